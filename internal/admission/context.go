// Package admission is the request-admission pipeline: an ordered,
// short-circuiting filter chain that decides, before any backend is
// contacted, whether a request may proceed and which identity and tenant
// context it carries downstream.
package admission

import (
	"net/http"
	"net/url"
)

// RequestContext is an immutable snapshot of an inbound request. Filters
// read it and return outcomes; they never mutate it. Adding headers
// produces a new snapshot via WithHeaders.
type RequestContext struct {
	Method string
	Path   string
	// Host is kept separately because net/http promotes the Host header
	// out of the header map.
	Host          string
	Header        http.Header
	RemoteAddr    string
	Query         url.Values
	ContentLength int64
}

// Snapshot captures the request at pipeline entry. The header map is cloned
// so later mutation of the underlying request cannot leak in.
func Snapshot(r *http.Request) *RequestContext {
	return &RequestContext{
		Method:        r.Method,
		Path:          r.URL.Path,
		Host:          r.Host,
		Header:        r.Header.Clone(),
		RemoteAddr:    r.RemoteAddr,
		Query:         r.URL.Query(),
		ContentLength: r.ContentLength,
	}
}

// HeaderValue returns the first value of the named header, or "".
func (rc *RequestContext) HeaderValue(name string) string {
	return rc.Header.Get(name)
}

// QueryValue returns the first value of the named query parameter, or "".
func (rc *RequestContext) QueryValue(name string) string {
	return rc.Query.Get(name)
}

// WithHeaders returns a copy of the snapshot with the given headers set.
// The receiver is left untouched.
func (rc *RequestContext) WithHeaders(headers map[string]string) *RequestContext {
	if len(headers) == 0 {
		return rc
	}
	out := *rc
	out.Header = rc.Header.Clone()
	for k, v := range headers {
		out.Header.Set(k, v)
	}
	return &out
}
