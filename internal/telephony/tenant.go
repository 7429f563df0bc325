package telephony

import "strings"

// Tenant is one restaurant reachable through a Twilio number.
type Tenant struct {
	// ID is the stable restaurant identifier recorded on sessions and orders.
	ID string

	// DisplayName is the spoken restaurant name.
	DisplayName string
}

// TenantResolver maps the webhook's To number to a restaurant. Numbers are
// matched after normalization, so "+49 30 1234567" and "+49301234567"
// resolve identically.
type TenantResolver struct {
	byNumber map[string]Tenant
}

// NewTenantResolver builds a resolver from a number-to-tenant map.
func NewTenantResolver(tenants map[string]Tenant) *TenantResolver {
	byNumber := make(map[string]Tenant, len(tenants))
	for number, t := range tenants {
		byNumber[normalizeNumber(number)] = t
	}
	return &TenantResolver{byNumber: byNumber}
}

// Resolve returns the tenant for the called number. The raw number is tried
// as a fallback for trunks that deliver non-E.164 values.
func (r *TenantResolver) Resolve(to string) (Tenant, bool) {
	if t, ok := r.byNumber[normalizeNumber(to)]; ok {
		return t, true
	}
	t, ok := r.byNumber[strings.TrimSpace(to)]
	return t, ok
}

// normalizeNumber strips separators and rewrites the 00 international prefix
// to +. Digits and a leading + survive; everything else is dropped.
func normalizeNumber(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	out := b.String()
	if strings.HasPrefix(out, "00") {
		out = "+" + out[2:]
	}
	return out
}
