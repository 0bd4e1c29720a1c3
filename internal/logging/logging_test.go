package logging

import (
	"net/http"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	for _, env := range []string{"production", "development", ""} {
		log, err := New(env)
		if err != nil {
			t.Fatalf("New(%q): %v", env, err)
		}
		if log == nil {
			t.Fatalf("New(%q) returned nil logger", env)
		}
	}

	prod, _ := New("production")
	if prod.Core().Enabled(zapcore.DebugLevel) {
		t.Error("production logger has debug enabled")
	}
	dev, _ := New("development")
	if !dev.Core().Enabled(zapcore.DebugLevel) {
		t.Error("development logger has debug disabled")
	}
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(core)

	h := chimiddleware.RequestID(RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("hello"))
	})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/alice", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}

	first := entries[0].ContextMap()
	if first["path"] != "/alice" || first["status"] != int64(200) || first["bytes"] != int64(5) {
		t.Errorf("first entry = %v", first)
	}
	if id, _ := first["request_id"].(string); id == "" {
		t.Error("request_id missing")
	}
	if entries[0].Level != zapcore.InfoLevel {
		t.Errorf("level = %v, want info", entries[0].Level)
	}

	if entries[1].Level != zapcore.WarnLevel {
		t.Errorf("404 level = %v, want warn", entries[1].Level)
	}
	if entries[1].ContextMap()["status"] != int64(404) {
		t.Errorf("status = %v, want 404", entries[1].ContextMap()["status"])
	}
}
