package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestJSONError(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONError(rec, http.StatusNotFound, "post not found")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type = %q", ct)
	}
	if body := rec.Body.String(); !strings.Contains(body, `"error":"post not found"`) {
		t.Fatalf("body = %q", body)
	}
}

func TestJSONWriteKeepsStoredEntities(t *testing.T) {
	rec := httptest.NewRecorder()
	err := JSONWrite(rec, http.StatusOK, map[string]string{"content": "&lt;script&gt;"})
	if err != nil {
		t.Fatalf("JSONWrite failed: %v", err)
	}
	// stored entities pass through verbatim instead of being re-escaped
	// into & sequences
	if body := rec.Body.String(); !strings.Contains(body, "&lt;script&gt;") {
		t.Fatalf("body = %q", body)
	}
}
