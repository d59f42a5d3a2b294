package logger

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResponseLogger(t *testing.T) {
	rr := httptest.NewRecorder()
	lw := New(rr)

	lw.WriteHeader(http.StatusNotFound)
	// A second WriteHeader is ignored, as by net/http.
	lw.WriteHeader(http.StatusOK)
	io.WriteString(lw, `{"detail":"Post not found"}`)

	if lw.Status() != http.StatusNotFound {
		t.Errorf("want status %v, got %v", http.StatusNotFound, lw.Status())
	}
	if rr.Code != http.StatusNotFound {
		t.Errorf("want recorded status %v, got %v", http.StatusNotFound, rr.Code)
	}
	if lw.Written() != len(`{"detail":"Post not found"}`) {
		t.Errorf("want %d bytes written, got %d", len(`{"detail":"Post not found"}`), lw.Written())
	}
}

func TestResponseLoggerImplicitOK(t *testing.T) {
	rr := httptest.NewRecorder()
	lw := New(rr)

	lw.Header().Set("Content-Type", "application/json")
	io.WriteString(lw, "[]")

	if lw.Status() != http.StatusOK {
		t.Errorf("want status %v, got %v", http.StatusOK, lw.Status())
	}
	if got := rr.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("want content type header %q, got %q", "application/json", got)
	}
	if lw.Unwrap() != rr {
		t.Error("Unwrap() does not return the wrapped writer")
	}
}
