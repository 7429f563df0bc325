package config_test

import (
	"testing"

	"github.com/ordervox/ordervox/internal/config"
)

func tenantDiffByID(d config.ConfigDiff, id string) (config.TenantDiff, bool) {
	for _, td := range d.TenantChanges {
		if td.ID == id {
			return td, true
		}
	}
	return config.TenantDiff{}, false
}

func TestDiff_NoChanges(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{
		Server: config.ServerConfig{LogLevel: config.LogInfo},
		Tenants: []config.TenantConfig{
			{ID: "luigi", DisplayName: "Luigi's Pizza", TwilioNumber: "+49301234567"},
		},
	}
	d := config.Diff(cfg, cfg)
	if d.TenantsChanged {
		t.Error("TenantsChanged should be false for identical configs")
	}
	if d.LogLevelChanged {
		t.Error("LogLevelChanged should be false for identical configs")
	}
	if len(d.TenantChanges) != 0 {
		t.Errorf("TenantChanges should be empty, got %+v", d.TenantChanges)
	}
}

func TestDiff_LogLevelChange(t *testing.T) {
	t.Parallel()
	old := &config.Config{Server: config.ServerConfig{LogLevel: config.LogInfo}}
	new := &config.Config{Server: config.ServerConfig{LogLevel: config.LogDebug}}

	d := config.Diff(old, new)
	if !d.LogLevelChanged {
		t.Fatal("LogLevelChanged should be true")
	}
	if d.NewLogLevel != config.LogDebug {
		t.Errorf("NewLogLevel: got %q, want %q", d.NewLogLevel, config.LogDebug)
	}
}

func TestDiff_TenantAddedAndRemoved(t *testing.T) {
	t.Parallel()
	old := &config.Config{
		Tenants: []config.TenantConfig{
			{ID: "luigi", TwilioNumber: "+49301234567"},
		},
	}
	new := &config.Config{
		Tenants: []config.TenantConfig{
			{ID: "mario", TwilioNumber: "+49897654321"},
		},
	}

	d := config.Diff(old, new)
	if !d.TenantsChanged {
		t.Fatal("TenantsChanged should be true")
	}
	removed, ok := tenantDiffByID(d, "luigi")
	if !ok || !removed.Removed {
		t.Errorf("luigi should be reported as removed, got %+v", d.TenantChanges)
	}
	added, ok := tenantDiffByID(d, "mario")
	if !ok || !added.Added {
		t.Errorf("mario should be reported as added, got %+v", d.TenantChanges)
	}
}

func TestDiff_TenantNumberChange(t *testing.T) {
	t.Parallel()
	old := &config.Config{
		Tenants: []config.TenantConfig{
			{ID: "luigi", DisplayName: "Luigi's Pizza", TwilioNumber: "+49301234567"},
		},
	}
	new := &config.Config{
		Tenants: []config.TenantConfig{
			{ID: "luigi", DisplayName: "Luigi's Pizza", TwilioNumber: "+49300000000"},
		},
	}

	d := config.Diff(old, new)
	td, ok := tenantDiffByID(d, "luigi")
	if !ok {
		t.Fatalf("expected a diff entry for luigi, got %+v", d.TenantChanges)
	}
	if !td.NumberChanged {
		t.Error("NumberChanged should be true")
	}
	if td.NameChanged {
		t.Error("NameChanged should be false")
	}
	if td.Added || td.Removed {
		t.Errorf("modified tenant should not be added/removed, got %+v", td)
	}
}

func TestDiff_TenantNameChange(t *testing.T) {
	t.Parallel()
	old := &config.Config{
		Tenants: []config.TenantConfig{
			{ID: "luigi", DisplayName: "Luigi's Pizza", TwilioNumber: "+49301234567"},
		},
	}
	new := &config.Config{
		Tenants: []config.TenantConfig{
			{ID: "luigi", DisplayName: "Luigi's Trattoria", TwilioNumber: "+49301234567"},
		},
	}

	d := config.Diff(old, new)
	td, ok := tenantDiffByID(d, "luigi")
	if !ok {
		t.Fatalf("expected a diff entry for luigi, got %+v", d.TenantChanges)
	}
	if !td.NameChanged || td.NumberChanged {
		t.Errorf("only the name should have changed, got %+v", td)
	}
}
