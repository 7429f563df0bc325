package config_test

import (
	"strings"
	"testing"

	"github.com/ordervox/ordervox/internal/config"
)

func TestValidate_InvalidLogLevel(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: bananas
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid log level, got nil")
	}
	if !strings.Contains(err.Error(), "log_level") {
		t.Errorf("error should mention log_level, got: %v", err)
	}
}

func TestValidate_TLSRequiresBothFiles(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  tls:
    cert_file: cert.pem
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for TLS missing key_file, got nil")
	}
	if !strings.Contains(err.Error(), "key_file") {
		t.Errorf("error should mention key_file, got: %v", err)
	}
}

func TestValidate_UnknownStoreBackend(t *testing.T) {
	t.Parallel()
	yaml := `
store:
  backend: cassandra
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for unknown store backend, got nil")
	}
	if !strings.Contains(err.Error(), "store.backend") {
		t.Errorf("error should mention store.backend, got: %v", err)
	}
}

func TestValidate_PostgresRequiresDSN(t *testing.T) {
	t.Parallel()
	yaml := `
store:
  backend: postgres
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for postgres without DSN, got nil")
	}
	if !strings.Contains(err.Error(), "postgres_dsn") {
		t.Errorf("error should mention postgres_dsn, got: %v", err)
	}
}

func TestValidate_TenantRequiresIDAndNumber(t *testing.T) {
	t.Parallel()
	yaml := `
tenants:
  - display_name: Nameless
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for tenant without id and number, got nil")
	}
	if !strings.Contains(err.Error(), "tenants[0].id") {
		t.Errorf("error should mention tenants[0].id, got: %v", err)
	}
	if !strings.Contains(err.Error(), "tenants[0].twilio_number") {
		t.Errorf("error should mention tenants[0].twilio_number, got: %v", err)
	}
}

func TestValidate_DuplicateTwilioNumbers(t *testing.T) {
	t.Parallel()
	yaml := `
tenants:
  - id: luigi
    twilio_number: "+49301234567"
  - id: mario
    twilio_number: "+49301234567"
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for duplicate twilio numbers, got nil")
	}
	if !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("error should mention duplicate, got: %v", err)
	}
}

func TestValidate_ResponderProviderRequiresModel(t *testing.T) {
	t.Parallel()
	yaml := `
responder:
  provider: openai
  api_key: sk-test
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for responder without model, got nil")
	}
	if !strings.Contains(err.Error(), "responder.model") {
		t.Errorf("error should mention responder.model, got: %v", err)
	}
}

func TestValidate_EmptyResponderIsFine(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  listen_addr: ":8080"
`
	if _, err := config.LoadFromReader(strings.NewReader(yaml)); err != nil {
		t.Fatalf("unexpected error for config without responder: %v", err)
	}
}

func TestValidate_NegativeDialogueValues(t *testing.T) {
	t.Parallel()
	yaml := `
dialogue:
  max_failures: -1
  phonetic_threshold: 1.5
responder:
  timeout_ms: -100
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected errors for out-of-range values, got nil")
	}
	for _, want := range []string{"max_failures", "phonetic_threshold", "timeout_ms"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s, got: %v", want, err)
		}
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: loud
store:
  backend: postgres
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected joined errors, got nil")
	}
	if !strings.Contains(err.Error(), "log_level") || !strings.Contains(err.Error(), "postgres_dsn") {
		t.Errorf("joined error should report both failures, got: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := config.Load("/nonexistent/ordervox.yaml")
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}
