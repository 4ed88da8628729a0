package proxy

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bmsedge/edge-gateway/internal/admission"
	"github.com/bmsedge/edge-gateway/internal/config"
)

func testBreaker() config.BreakerConfig {
	return config.BreakerConfig{
		SlidingWindowSize:    10,
		MinimumCalls:         5,
		HalfOpenCalls:        3,
		OpenStateWait:        "10s",
		FailureRateThreshold: 50,
		CallTimeout:          "10s",
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewTable_RejectsRelativeTarget(t *testing.T) {
	_, err := NewTable([]config.RouteConfig{
		{Prefix: "/api/users", Target: "localhost:8083"},
	}, testBreaker(), quietLogger())
	if err == nil {
		t.Fatal("expected error for relative target")
	}
}

func TestTable_Match(t *testing.T) {
	table, err := NewTable([]config.RouteConfig{
		{Prefix: "/api/users", Target: "http://localhost:8083"},
		{Prefix: "/api/users/admin", Target: "http://localhost:8084"},
		{Prefix: "/api/inventory", Target: "http://localhost:8082"},
	}, testBreaker(), quietLogger())
	if err != nil {
		t.Fatalf("new table: %v", err)
	}

	tests := []struct {
		path   string
		target string
		ok     bool
	}{
		{"/api/users/42", "http://localhost:8083", true},
		{"/api/users", "http://localhost:8083", true},
		{"/api/users/admin/roles", "http://localhost:8084", true},
		{"/api/usersextra", "", false},
		{"/api/inventory/items", "http://localhost:8082", true},
		{"/api/analytics/report", "", false},
	}
	for _, tt := range tests {
		route, ok := table.Match(tt.path)
		if ok != tt.ok {
			t.Errorf("Match(%s) ok = %v, want %v", tt.path, ok, tt.ok)
			continue
		}
		if ok && route.Target.String() != tt.target {
			t.Errorf("Match(%s) = %s, want %s", tt.path, route.Target, tt.target)
		}
	}
}

func TestTable_NoRoute(t *testing.T) {
	table, err := NewTable(nil, testBreaker(), quietLogger())
	if err != nil {
		t.Fatalf("new table: %v", err)
	}

	rec := httptest.NewRecorder()
	table.ServeHTTP(rec, httptest.NewRequest("GET", "/api/unknown", nil))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if got := rec.Header().Get(admission.HeaderError); got != "no route for path" {
		t.Errorf("%s = %q", admission.HeaderError, got)
	}
}

func TestTable_ForwardsToBackend(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Backend-Path", r.URL.Path)
		w.Header().Set("X-Backend-Tenant", r.Header.Get("X-Tenant-Id"))
		w.WriteHeader(http.StatusCreated)
	}))
	defer backend.Close()

	table, err := NewTable([]config.RouteConfig{
		{Prefix: "/api/users", Target: backend.URL},
	}, testBreaker(), quietLogger())
	if err != nil {
		t.Fatalf("new table: %v", err)
	}

	req := httptest.NewRequest("POST", "/api/users/42", nil)
	req.Header.Set("X-Tenant-Id", "acme")
	rec := httptest.NewRecorder()
	table.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if got := rec.Header().Get("X-Backend-Path"); got != "/api/users/42" {
		t.Errorf("backend saw path %q", got)
	}
	if got := rec.Header().Get("X-Backend-Tenant"); got != "acme" {
		t.Errorf("backend saw tenant %q, injected headers must be forwarded", got)
	}
}

func TestTable_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	// Nothing listens here; every call is a transport failure.
	table, err := NewTable([]config.RouteConfig{
		{Prefix: "/api/users", Target: "http://127.0.0.1:1"},
	}, testBreaker(), quietLogger())
	if err != nil {
		t.Fatalf("new table: %v", err)
	}

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		table.ServeHTTP(rec, httptest.NewRequest("GET", "/api/users", nil))
		if rec.Code != http.StatusBadGateway {
			t.Fatalf("call %d: status = %d, want 502 while breaker closed", i, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	table.ServeHTTP(rec, httptest.NewRequest("GET", "/api/users", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 once breaker is open", rec.Code)
	}
	if got := rec.Header().Get(admission.HeaderError); got != "service temporarily unavailable" {
		t.Errorf("%s = %q", admission.HeaderError, got)
	}
}
