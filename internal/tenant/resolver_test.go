package tenant

import "testing"

func TestSubdomain(t *testing.T) {
	tests := []struct {
		name string
		host string
		want string
	}{
		{"plain tenant host", "acme.bmsedge.com", "acme"},
		{"host with port", "acme.bmsedge.com:8080", "acme"},
		{"www refused", "www.bmsedge.com", ""},
		{"api refused", "api.bmsedge.com", ""},
		{"localhost refused", "localhost.bmsedge.com", ""},
		{"case insensitive refusal", "WWW.bmsedge.com", ""},
		{"two labels only", "bmsedge.com", ""},
		{"bare host", "localhost", ""},
		{"bare host with port", "localhost:8080", ""},
		{"empty", "", ""},
		{"deeply nested", "acme.eu.bmsedge.com", "acme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Subdomain(tt.host); got != tt.want {
				t.Errorf("Subdomain(%q) = %q, want %q", tt.host, got, tt.want)
			}
		})
	}
}

func TestResolver_Precedence(t *testing.T) {
	r := NewResolver()

	tests := []struct {
		name    string
		signals Signals
		wantID  string
		wantSub string
		wantOK  bool
	}{
		{
			name: "identity header wins over everything",
			signals: Signals{
				IdentityTenant: "from-token",
				HeaderTenant:   "from-header",
				Host:           "acme.bmsedge.com",
				QueryTenant:    "from-query",
			},
			wantID:  "from-token",
			wantSub: "acme",
			wantOK:  true,
		},
		{
			name: "explicit header beats subdomain",
			signals: Signals{
				HeaderTenant: "from-header",
				Host:         "acme.bmsedge.com",
			},
			wantID:  "from-header",
			wantSub: "acme",
			wantOK:  true,
		},
		{
			name:    "subdomain beats query",
			signals: Signals{Host: "acme.bmsedge.com", QueryTenant: "from-query"},
			wantID:  "acme",
			wantSub: "acme",
			wantOK:  true,
		},
		{
			name:    "query as last resort",
			signals: Signals{Host: "api.bmsedge.com", QueryTenant: "from-query"},
			wantID:  "from-query",
			wantSub: "",
			wantOK:  true,
		},
		{
			name:    "blank values skipped",
			signals: Signals{IdentityTenant: "   ", HeaderTenant: "\t", QueryTenant: "q"},
			wantID:  "q",
			wantOK:  true,
		},
		{
			name:    "nothing resolves",
			signals: Signals{Host: "www.bmsedge.com"},
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Resolve(tt.signals)
			if ok != tt.wantOK {
				t.Fatalf("Resolve ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.ID != tt.wantID {
				t.Errorf("ID = %q, want %q", got.ID, tt.wantID)
			}
			if got.Subdomain != tt.wantSub {
				t.Errorf("Subdomain = %q, want %q", got.Subdomain, tt.wantSub)
			}
		})
	}
}

func TestResolver_Excluded(t *testing.T) {
	r := NewResolver()

	excluded := []string{
		"/api/auth/login",
		"/api/users/auth/signin",
		"/actuator/health",
	}
	for _, path := range excluded {
		if !r.Excluded(path) {
			t.Errorf("Excluded(%q) = false, want true", path)
		}
	}

	included := []string{"/api/orders", "/api/inventory/items", "/"}
	for _, path := range included {
		if r.Excluded(path) {
			t.Errorf("Excluded(%q) = true, want false", path)
		}
	}
}

func TestResolver_CustomExclusions(t *testing.T) {
	r := NewResolver("/internal/")

	if !r.Excluded("/internal/debug") {
		t.Error("custom exclusion should apply")
	}
	if r.Excluded("/api/auth/login") {
		t.Error("defaults should not apply when custom exclusions are given")
	}
}
