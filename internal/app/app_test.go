package app_test

import (
	"context"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/ordervox/ordervox/internal/app"
	"github.com/ordervox/ordervox/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{ListenAddr: ":0"},
		Store:  config.StoreConfig{Backend: config.StoreMemory},
		Tenants: []config.TenantConfig{
			{ID: "luigi", DisplayName: "Luigi's Pizza", TwilioNumber: "+49301234567"},
		},
	}
}

func newApp(t *testing.T) *app.App {
	t.Helper()
	a, err := app.New(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() {
		if err := a.Shutdown(context.Background()); err != nil {
			t.Errorf("shutdown error: %v", err)
		}
	})
	return a
}

func postForm(t *testing.T, a *app.App, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	return rec
}

func TestNew_WiresTelephonyRoutes(t *testing.T) {
	t.Parallel()
	a := newApp(t)

	rec := postForm(t, a, "/twilio/voice/incoming", url.Values{
		"CallSid": {"CA100"},
		"To":      {"+49301234567"},
	})
	if rec.Code != 200 {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<Gather") {
		t.Errorf("greeting response should gather speech, got: %s", rec.Body.String())
	}
}

func TestNew_WiresHealthRoutes(t *testing.T) {
	t.Parallel()
	a := newApp(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest("GET", path, nil)
		rec := httptest.NewRecorder()
		a.Handler().ServeHTTP(rec, req)
		if rec.Code != 200 {
			t.Errorf("%s: got %d, want 200", path, rec.Code)
		}
	}
}

func TestNew_WiresMetricsRoute(t *testing.T) {
	t.Parallel()
	a := newApp(t)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Errorf("/metrics: got %d, want 200", rec.Code)
	}
}

func TestNew_FullTurnThroughMux(t *testing.T) {
	t.Parallel()
	a := newApp(t)

	postForm(t, a, "/twilio/voice/incoming", url.Values{
		"CallSid": {"CA200"},
		"To":      {"+49301234567"},
	})
	rec := postForm(t, a, "/twilio/voice/handle-speech", url.Values{
		"CallSid":      {"CA200"},
		"To":           {"+49301234567"},
		"SpeechResult": {"one Margherita please"},
	})
	if rec.Code != 200 {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Margherita") {
		t.Errorf("response should echo the added item, got: %s", rec.Body.String())
	}
}

func TestNew_UnknownStoreBackend(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Store.Backend = "cassandra"
	if _, err := app.New(context.Background(), cfg); err == nil {
		t.Fatal("expected error for unknown store backend, got nil")
	}
}

func TestNew_MissingCatalogFile(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Catalog.Path = "/nonexistent/menu.yaml"
	if _, err := app.New(context.Background(), cfg); err == nil {
		t.Fatal("expected error for missing catalog file, got nil")
	}
}

func TestNew_ResponderWithoutKeyFails(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Responder = config.ResponderConfig{Provider: "openai", Model: "gpt-4o-mini"}
	if _, err := app.New(context.Background(), cfg); err == nil {
		t.Fatal("expected error for openai responder without api key, got nil")
	}
}

func TestShutdown_Idempotent(t *testing.T) {
	t.Parallel()
	a, err := app.New(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := a.Shutdown(context.Background()); err != nil {
		t.Errorf("first shutdown: %v", err)
	}
	if err := a.Shutdown(context.Background()); err != nil {
		t.Errorf("second shutdown: %v", err)
	}
}
