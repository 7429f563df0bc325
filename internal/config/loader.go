package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidResponderProviders lists known responder provider names.
// Used by [Validate] to warn about unrecognised names.
var ValidResponderProviders = []string{
	"openai", "anthropic", "gemini", "ollama", "mistral", "groq",
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.TLS != nil {
		if cfg.Server.TLS.CertFile == "" || cfg.Server.TLS.KeyFile == "" {
			errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
		}
	}

	// Store
	if cfg.Store.Backend != "" && !cfg.Store.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("store.backend %q is invalid; valid values: memory, postgres", cfg.Store.Backend))
	}
	if cfg.Store.Backend == StorePostgres && cfg.Store.PostgresDSN == "" {
		errs = append(errs, errors.New("store.postgres_dsn is required when store.backend is postgres"))
	}
	if cfg.Store.Backend == StoreMemory || cfg.Store.Backend == "" {
		if len(cfg.Tenants) > 0 {
			slog.Warn("store.backend is memory; sessions are lost on restart and cannot be shared between instances")
		}
	}

	// Tenants: duplicate number detection.
	numbersSeen := make(map[string]int, len(cfg.Tenants))
	for i, t := range cfg.Tenants {
		prefix := fmt.Sprintf("tenants[%d]", i)
		if t.ID == "" {
			errs = append(errs, fmt.Errorf("%s.id is required", prefix))
		}
		if t.TwilioNumber == "" {
			errs = append(errs, fmt.Errorf("%s.twilio_number is required", prefix))
		} else {
			if prev, ok := numbersSeen[t.TwilioNumber]; ok {
				errs = append(errs, fmt.Errorf("%s.twilio_number %q is a duplicate of tenants[%d]", prefix, t.TwilioNumber, prev))
			}
			numbersSeen[t.TwilioNumber] = i
		}
	}
	if len(cfg.Tenants) == 0 {
		slog.Warn("no tenants configured; every call will be rejected as unconfigured")
	}

	// Dialogue
	if cfg.Dialogue.MaxFailures < 0 {
		errs = append(errs, fmt.Errorf("dialogue.max_failures %d must not be negative", cfg.Dialogue.MaxFailures))
	}
	if cfg.Dialogue.PhoneticThreshold < 0 || cfg.Dialogue.PhoneticThreshold > 1 {
		errs = append(errs, fmt.Errorf("dialogue.phonetic_threshold %.2f is out of range [0, 1]", cfg.Dialogue.PhoneticThreshold))
	}

	// Responder
	if cfg.Responder.Provider != "" {
		if !slices.Contains(ValidResponderProviders, cfg.Responder.Provider) {
			slog.Warn("unknown responder provider — may be a typo",
				"provider", cfg.Responder.Provider,
				"known", ValidResponderProviders,
			)
		}
		if cfg.Responder.Model == "" {
			errs = append(errs, errors.New("responder.model is required when responder.provider is set"))
		}
	}
	if cfg.Responder.TimeoutMS < 0 {
		errs = append(errs, fmt.Errorf("responder.timeout_ms %d must not be negative", cfg.Responder.TimeoutMS))
	}

	return errors.Join(errs...)
}
