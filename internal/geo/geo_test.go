package geo

import (
	"net/http"
	"testing"
)

func TestOpen_EmptyPath_ReturnsNoOpReader(t *testing.T) {
	r, err := Open("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r == nil {
		t.Fatal("expected non-nil Reader")
	}
	if r.Enabled() {
		t.Error("Enabled() = true without a database")
	}
}

func TestOpen_MissingFile(t *testing.T) {
	if _, err := Open("/nonexistent/geo.mmdb"); err == nil {
		t.Fatal("expected error for missing database file")
	}
}

func TestLookup_NoOpReader_ReturnsEmptyResult(t *testing.T) {
	r, _ := Open("")
	result := r.Lookup("8.8.8.8")
	if result != (Result{}) {
		t.Errorf("expected empty result, got %+v", result)
	}
}

func TestLookup_InvalidIP_ReturnsEmptyResult(t *testing.T) {
	r, _ := Open("")
	result := r.Lookup("not-an-ip")
	if result != (Result{}) {
		t.Errorf("expected zero Result, got %+v", result)
	}
}

func TestResolve_FallsBackToEdgeHeaders(t *testing.T) {
	r, _ := Open("")

	tests := []struct {
		name   string
		header map[string]string
		want   Result
	}{
		{"none", nil, Result{}},
		{"cloudflare", map[string]string{"CF-IPCountry": "IN"}, Result{Country: "IN"}},
		{"vercel", map[string]string{"X-Vercel-IP-Country": "US", "X-Vercel-IP-City": "San%20Francisco"}, Result{Country: "US", City: "San Francisco"}},
		{"unknown marker", map[string]string{"CF-IPCountry": "XX"}, Result{}},
		{"tor marker", map[string]string{"CF-IPCountry": "T1"}, Result{}},
	}
	for _, tt := range tests {
		h := http.Header{}
		for k, v := range tt.header {
			h.Set(k, v)
		}
		if got := r.Resolve("203.0.113.9", h); got != tt.want {
			t.Errorf("%s: Resolve = %+v, want %+v", tt.name, got, tt.want)
		}
	}
}

func TestClose_NoOpReader_NoPanic(t *testing.T) {
	r, _ := Open("")
	r.Close()

	var nilReader *Reader
	nilReader.Close()
	if nilReader.Lookup("8.8.8.8") != (Result{}) {
		t.Error("nil reader lookup should be empty")
	}
}
