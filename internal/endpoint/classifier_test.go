package endpoint

import (
	"sync"
	"testing"
)

func newTestClassifier() *Classifier {
	return NewClassifier(
		[]string{"/api/auth/signin", "/actuator/health", "/swagger-ui"},
		[]string{"/api/auth", "/actuator", "/api/inventory/templates"},
	)
}

func TestClassifier_IsPublic(t *testing.T) {
	c := newTestClassifier()

	tests := []struct {
		name   string
		path   string
		public bool
	}{
		{"exact match", "/api/auth/signin", true},
		{"prefix match", "/api/auth/anything/nested", true},
		{"prefix match exact boundary", "/actuator", true},
		{"templates prefix", "/api/inventory/templates/items", true},
		{"health suffix anywhere", "/api/inventory/health", true},
		{"health segment anywhere", "/internal/health/live", true},
		{"protected api path", "/api/orders", false},
		{"protected inventory path", "/api/inventory/items", false},
		{"root", "/", false},
		{"empty path", "", false},
		{"unrelated path", "/totally/unknown", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.IsPublic(tt.path); got != tt.public {
				t.Errorf("IsPublic(%q) = %v, want %v", tt.path, got, tt.public)
			}
		})
	}
}

// The prefix rules use plain string-prefix matching, so "/api/auth" also
// covers "/api/auth2/...". This pins the current behavior; tightening it to
// segment-aware matching is a deliberate decision, not a drive-by fix.
func TestClassifier_PrefixOverMatch(t *testing.T) {
	c := newTestClassifier()

	if !c.IsPublic("/api/auth2/exploit") {
		t.Error("expected /api/auth2/exploit to match the /api/auth prefix rule")
	}
	if !c.IsPublic("/api/authxyz") {
		t.Error("expected /api/authxyz to match the /api/auth prefix rule")
	}
}

func TestClassifier_Deterministic(t *testing.T) {
	c := newTestClassifier()

	for i := 0; i < 100; i++ {
		if !c.IsPublic("/api/auth/signin") {
			t.Fatal("IsPublic flipped for an unchanged configuration")
		}
		if c.IsPublic("/api/orders") {
			t.Fatal("IsPublic flipped for an unchanged configuration")
		}
	}
}

func TestClassifier_Reload(t *testing.T) {
	c := newTestClassifier()

	if c.IsPublic("/api/reports/daily") {
		t.Fatal("path should start out protected")
	}

	c.Reload([]string{"/api/reports/daily"}, nil)

	if !c.IsPublic("/api/reports/daily") {
		t.Error("path should be public after reload")
	}
	if c.IsPublic("/api/auth/signin") {
		t.Error("old rules should be gone after reload")
	}
}

func TestClassifier_ReloadUnderConcurrentReads(t *testing.T) {
	c := newTestClassifier()

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					// Must never panic or observe a partial rule set.
					_ = c.IsPublic("/api/auth/signin")
					_ = c.IsPublic("/api/orders")
				}
			}
		}()
	}

	for i := 0; i < 1000; i++ {
		c.Reload([]string{"/api/auth/signin"}, []string{"/actuator"})
	}
	close(stop)
	wg.Wait()
}
