package config

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked.
type ConfigDiff struct {
	TenantsChanged  bool         // true if any tenant mapping changed
	TenantChanges   []TenantDiff // per-tenant diffs
	LogLevelChanged bool
	NewLogLevel     LogLevel
}

// TenantDiff describes what changed for a single tenant between two configs.
type TenantDiff struct {
	ID            string
	NumberChanged bool
	NameChanged   bool
	Added         bool
	Removed       bool
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	// Log level
	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	// Build tenant lookup maps keyed by ID.
	oldTenants := make(map[string]*TenantConfig, len(old.Tenants))
	for i := range old.Tenants {
		oldTenants[old.Tenants[i].ID] = &old.Tenants[i]
	}
	newTenants := make(map[string]*TenantConfig, len(new.Tenants))
	for i := range new.Tenants {
		newTenants[new.Tenants[i].ID] = &new.Tenants[i]
	}

	// Detect modified and removed tenants.
	for id, oldT := range oldTenants {
		newT, exists := newTenants[id]
		if !exists {
			d.TenantChanges = append(d.TenantChanges, TenantDiff{
				ID:      id,
				Removed: true,
			})
			d.TenantsChanged = true
			continue
		}
		td := TenantDiff{ID: id}
		if oldT.TwilioNumber != newT.TwilioNumber {
			td.NumberChanged = true
		}
		if oldT.DisplayName != newT.DisplayName {
			td.NameChanged = true
		}
		if td.NumberChanged || td.NameChanged {
			d.TenantChanges = append(d.TenantChanges, td)
			d.TenantsChanged = true
		}
	}

	// Detect added tenants.
	for id := range newTenants {
		if _, exists := oldTenants[id]; !exists {
			d.TenantChanges = append(d.TenantChanges, TenantDiff{
				ID:    id,
				Added: true,
			})
			d.TenantsChanged = true
		}
	}

	return d
}
