// Package proxy forwards admitted requests to backend services. Routes are
// matched by longest path prefix; every backend sits behind its own
// circuit breaker and per-call timeout.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sort"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/bmsedge/edge-gateway/internal/admission"
	"github.com/bmsedge/edge-gateway/internal/config"
)

// Route maps a path prefix to a backend base URL.
type Route struct {
	Prefix string
	Target *url.URL
}

type backend struct {
	route Route
	proxy *httputil.ReverseProxy
}

// Table routes requests to backends. It implements http.Handler; unmatched
// paths get 502.
type Table struct {
	backends []*backend
	logger   *slog.Logger
}

// NewTable builds the routing table from configuration. Route targets must
// be absolute URLs.
func NewTable(routes []config.RouteConfig, breaker config.BreakerConfig, logger *slog.Logger) (*Table, error) {
	if logger == nil {
		logger = slog.Default()
	}

	t := &Table{logger: logger}
	for _, rc := range routes {
		target, err := url.Parse(rc.Target)
		if err != nil {
			return nil, fmt.Errorf("route %s: invalid target %q: %w", rc.Prefix, rc.Target, err)
		}
		if target.Scheme == "" || target.Host == "" {
			return nil, fmt.Errorf("route %s: target %q must be an absolute URL", rc.Prefix, rc.Target)
		}
		t.backends = append(t.backends, t.newBackend(Route{Prefix: rc.Prefix, Target: target}, breaker))
	}

	// Longest prefix first so /api/users/admin beats /api/users.
	sort.SliceStable(t.backends, func(i, j int) bool {
		return len(t.backends[i].route.Prefix) > len(t.backends[j].route.Prefix)
	})
	return t, nil
}

func (t *Table) newBackend(route Route, bc config.BreakerConfig) *backend {
	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        route.Prefix,
		MaxRequests: uint32(bc.HalfOpenCalls),
		Interval:    bc.OpenStateWaitDuration(),
		Timeout:     bc.OpenStateWaitDuration(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < uint32(bc.MinimumCalls) {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio*100 >= bc.FailureRateThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			t.logger.Warn("circuit breaker state change",
				slog.String("route", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})

	rp := httputil.NewSingleHostReverseProxy(route.Target)
	rp.Transport = &breakerTransport{
		base:    http.DefaultTransport,
		breaker: cb,
		timeout: bc.CallTimeoutDuration(),
	}
	rp.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		status := http.StatusBadGateway
		message := "backend unavailable"
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			status = http.StatusServiceUnavailable
			message = "service temporarily unavailable"
		case errors.Is(err, context.DeadlineExceeded):
			status = http.StatusGatewayTimeout
			message = "backend timeout"
		}
		t.logger.Error("proxy error",
			slog.String("route", route.Prefix),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		w.Header().Set(admission.HeaderError, message)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
	}
	return &backend{route: route, proxy: rp}
}

// Match returns the route for the given path, longest prefix wins.
func (t *Table) Match(path string) (Route, bool) {
	if b := t.match(path); b != nil {
		return b.route, true
	}
	return Route{}, false
}

func (t *Table) match(path string) *backend {
	for _, b := range t.backends {
		p := b.route.Prefix
		if path == p || (len(path) > len(p) && path[:len(p)] == p && path[len(p)] == '/') {
			return b
		}
	}
	return nil
}

func (t *Table) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b := t.match(r.URL.Path)
	if b == nil {
		w.Header().Set(admission.HeaderError, "no route for path")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		return
	}
	b.proxy.ServeHTTP(w, r)
}

// breakerTransport runs each backend call through the route's circuit
// breaker with a hard per-call deadline. Transport errors and timeouts
// count as failures; backend status codes do not.
type breakerTransport struct {
	base    http.RoundTripper
	breaker *gobreaker.CircuitBreaker[*http.Response]
	timeout time.Duration
}

func (t *breakerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	return t.breaker.Execute(func() (*http.Response, error) {
		ctx := r.Context()
		cancel := context.CancelFunc(func() {})
		if t.timeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, t.timeout)
		}

		res, err := t.base.RoundTrip(r.WithContext(ctx))
		if err != nil {
			cancel()
			return nil, err
		}
		// The deadline must survive until the body is drained.
		res.Body = &cancelOnClose{ReadCloser: res.Body, cancel: cancel}
		return res, nil
	})
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
