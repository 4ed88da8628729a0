package admission

import (
	"net/http"
	"strings"
	"testing"
)

func testThresholds() SizeThresholds {
	return SizeThresholds{
		Default: 10 * 1024 * 1024,
		Upload:  50 * 1024 * 1024,
		Batch:   20 * 1024 * 1024,
	}
}

func sizeReq(path string, contentLength int64) *RequestContext {
	return &RequestContext{
		Method:        "POST",
		Path:          path,
		Header:        http.Header{},
		ContentLength: contentLength,
	}
}

func TestSizeGuard_Categories(t *testing.T) {
	g := NewSizeGuard(testThresholds())

	tests := []struct {
		name   string
		path   string
		length int64
		halted bool
	}{
		{"default under", "/api/orders", 5 * 1024 * 1024, false},
		{"default over", "/api/orders", 11 * 1024 * 1024, true},
		{"upload within", "/api/inventory/upload", 40 * 1024 * 1024, false},
		{"upload over", "/api/inventory/upload", 60 * 1024 * 1024, true},
		{"import within", "/api/data/import", 40 * 1024 * 1024, false},
		{"bulk within", "/api/orders/bulk", 40 * 1024 * 1024, false},
		{"sensor batch within", "/api/sensors/batch", 15 * 1024 * 1024, false},
		{"sensor batch over", "/api/sensors/batch", 25 * 1024 * 1024, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := g.Apply(sizeReq(tt.path, tt.length))
			if out.Halted() != tt.halted {
				t.Fatalf("Halted() = %v, want %v", out.Halted(), tt.halted)
			}
			if tt.halted && out.Status != http.StatusRequestEntityTooLarge {
				t.Errorf("Status = %d, want 413", out.Status)
			}
		})
	}
}

func TestSizeGuard_ExactBoundary(t *testing.T) {
	g := NewSizeGuard(testThresholds())
	limit := int64(10 * 1024 * 1024)

	if out := g.Apply(sizeReq("/api/orders", limit)); out.Halted() {
		t.Error("request exactly at the threshold should be allowed")
	}

	out := g.Apply(sizeReq("/api/orders", limit+1))
	if !out.Halted() {
		t.Fatal("one byte over the threshold should be rejected")
	}
	if out.Status != http.StatusRequestEntityTooLarge {
		t.Errorf("Status = %d, want 413", out.Status)
	}
	if !strings.Contains(out.Message, "10.00 MB") {
		t.Errorf("message should name the limit in human units, got %q", out.Message)
	}
}

func TestSizeGuard_NoDeclaredLength(t *testing.T) {
	g := NewSizeGuard(testThresholds())

	if out := g.Apply(sizeReq("/api/orders", -1)); out.Halted() {
		t.Error("requests without a declared length pass through")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{1024, "1.00 KB"},
		{10 * 1024 * 1024, "10.00 MB"},
		{50 * 1024 * 1024, "50.00 MB"},
		{3 * 1024 * 1024 * 1024, "3.00 GB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
