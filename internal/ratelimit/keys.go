// Package ratelimit derives rate-limit partition keys and provides the
// narrow seam to the external limiter that consumes them. Key derivation is
// the decision logic; counter storage and eviction live behind the Limiter
// interface.
package ratelimit

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Header names the key strategies read. Identity and tenant headers are
// injected by the admission pipeline before rate limiting runs.
const (
	tenantHeader = "X-Tenant-Id"
	userHeader   = "X-User-Id"
)

// Fallback partitions for requests that carry no usable signal.
const (
	unknownKey   = "unknown"
	anonymousKey = "anonymous"
)

// KeyFunc derives the partition key for a request. Implementations are pure
// functions over the request snapshot.
type KeyFunc func(r *http.Request) string

// TenantKey partitions by tenant, the default for platform fairness.
func TenantKey(r *http.Request) string {
	if v := r.Header.Get(tenantHeader); v != "" {
		return v
	}
	return unknownKey
}

// UserKey partitions by authenticated user.
func UserKey(r *http.Request) string {
	if v := r.Header.Get(userHeader); v != "" {
		return v
	}
	return anonymousKey
}

// IPKey partitions by client address, for anonymous and public endpoints.
func IPKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return unknownKey
}

// CompositeKey partitions by tenant and user together for granular control.
func CompositeKey(r *http.Request) string {
	return TenantKey(r) + ":" + UserKey(r)
}

// Registry maps strategy names to key resolvers. The zero value is not
// usable; NewRegistry installs the built-in strategies.
type Registry struct {
	strategies map[string]KeyFunc
}

// NewRegistry creates a registry with the tenant, user, ip and composite
// strategies installed.
func NewRegistry() *Registry {
	return &Registry{strategies: map[string]KeyFunc{
		"tenant":    TenantKey,
		"user":      UserKey,
		"ip":        IPKey,
		"composite": CompositeKey,
	}}
}

// Register adds or replaces a strategy.
func (r *Registry) Register(name string, fn KeyFunc) {
	r.strategies[name] = fn
}

// Resolve returns the strategy registered under name.
func (r *Registry) Resolve(name string) (KeyFunc, error) {
	fn, ok := r.strategies[name]
	if !ok {
		return nil, fmt.Errorf("unknown rate limit key strategy %q", name)
	}
	return fn, nil
}
