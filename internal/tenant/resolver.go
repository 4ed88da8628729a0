// Package tenant derives the tenant a request belongs to. Tenant isolation
// is what keeps customer data apart on a shared platform, so resolution is
// strict: a request off the excluded paths that resolves to nothing is
// rejected upstream.
package tenant

import (
	"strings"
)

// Context is the resolved tenant for one request.
type Context struct {
	ID string
	// Subdomain is set only when the tenant was derived from the Host
	// header.
	Subdomain string
}

// Signals are the request inputs tenant resolution draws from, in
// decreasing order of trust.
type Signals struct {
	// IdentityTenant is the trusted X-User-Tenant-Id header, injected by
	// authentication when the credential encodes a tenant.
	IdentityTenant string
	// HeaderTenant is the caller-supplied X-Tenant-Id header.
	HeaderTenant string
	// Host is the Host header, possibly with a port.
	Host string
	// QueryTenant is the tenantId query parameter, kept for backward
	// compatibility only.
	QueryTenant string
}

// Resolver resolves tenants by precedence. Safe for concurrent use; it
// holds only read-only configuration.
type Resolver struct {
	excluded []string
}

// DefaultExcludedPrefixes are the authentication and infrastructure paths
// that skip tenant resolution entirely.
var DefaultExcludedPrefixes = []string{
	"/api/users/auth/",
	"/api/auth/",
	"/actuator/",
}

// NewResolver creates a resolver. With no arguments the default excluded
// prefixes apply.
func NewResolver(excludedPrefixes ...string) *Resolver {
	if len(excludedPrefixes) == 0 {
		excludedPrefixes = DefaultExcludedPrefixes
	}
	return &Resolver{excluded: excludedPrefixes}
}

// Excluded reports whether the path skips tenant resolution.
func (r *Resolver) Excluded(path string) bool {
	for _, prefix := range r.excluded {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Resolve picks the tenant from the signals, first non-blank value wins:
// identity header, explicit header, host subdomain, query parameter.
// ok is false when nothing resolves.
func (r *Resolver) Resolve(s Signals) (Context, bool) {
	subdomain := Subdomain(s.Host)

	if v := strings.TrimSpace(s.IdentityTenant); v != "" {
		return Context{ID: v, Subdomain: subdomain}, true
	}
	if v := strings.TrimSpace(s.HeaderTenant); v != "" {
		return Context{ID: v, Subdomain: subdomain}, true
	}
	if subdomain != "" {
		return Context{ID: subdomain, Subdomain: subdomain}, true
	}
	if v := strings.TrimSpace(s.QueryTenant); v != "" {
		return Context{ID: v}, true
	}
	return Context{}, false
}

// Subdomain extracts the tenant subdomain from a Host header value, e.g.
// "acme.bmsedge.com" -> "acme". It requires at least three labels and
// refuses the generic www, api and localhost labels. Returns "" when no
// subdomain can be derived.
func Subdomain(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}

	// Strip port if present.
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}

	parts := strings.Split(host, ".")
	if len(parts) < 3 {
		return ""
	}

	sub := parts[0]
	switch strings.ToLower(sub) {
	case "www", "api", "localhost":
		return ""
	}
	return sub
}
