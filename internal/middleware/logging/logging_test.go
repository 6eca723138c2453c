package logging

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestLoggingWritesAccessLine(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf).Level(zerolog.InfoLevel)
	defer func() { log.Logger = prev }()

	handler := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/endp/echo?input=secret", nil))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected one json log line, got %q: %v", buf.String(), err)
	}
	if line["status"] != float64(http.StatusForbidden) {
		t.Errorf("want status 403 in log, got %v", line["status"])
	}
	if line["path"] != "/endp/echo" {
		t.Errorf("unexpected path %v", line["path"])
	}
	if line["message"] != "request completed with error" {
		t.Errorf("unexpected message %v", line["message"])
	}
	if bytes.Contains(buf.Bytes(), []byte("secret")) {
		t.Errorf("query string must not be logged")
	}
}

func TestLoggingRecordsUser(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf).Level(zerolog.InfoLevel)
	defer func() { log.Logger = prev }()

	handler := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		SetUser(r.Context(), "alice")
		w.WriteHeader(http.StatusOK)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/endp/echo", nil))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected one json log line, got %q: %v", buf.String(), err)
	}
	if line["user"] != "alice" {
		t.Errorf("want user alice in access log, got %v", line["user"])
	}

	// вне Logging вызов безопасен
	SetUser(httptest.NewRequest(http.MethodGet, "/", nil).Context(), "bob")
}
