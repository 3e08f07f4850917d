package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestLogger(t *testing.T) {
	cases := []struct {
		name   string
		status int
		level  string
	}{
		{"ok", http.StatusOK, "INFO"},
		{"client error", http.StatusNotFound, "WARN"},
		{"server error", http.StatusInternalServerError, "ERROR"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))
			remote := func(*http.Request) string { return "198.51.100.7" }

			var inner *slog.Logger
			h := RequestID(RequestLogger(logger, remote)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				inner = LoggerFrom(r.Context())
				w.WriteHeader(tc.status)
				w.Write([]byte("hello"))
			})))

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/results", nil))

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("decode log line %q: %v", buf.String(), err)
			}
			if entry["level"] != tc.level {
				t.Errorf("level = %v, want %s", entry["level"], tc.level)
			}
			if entry["status"] != float64(tc.status) || entry["bytes"] != float64(5) {
				t.Errorf("status/bytes = %v/%v", entry["status"], entry["bytes"])
			}
			if entry["remote"] != "198.51.100.7" || entry["path"] != "/results" {
				t.Errorf("entry = %v", entry)
			}
			if entry["request_id"] != rec.Header().Get(RequestIDHeader) {
				t.Errorf("request_id = %v, header = %q", entry["request_id"], rec.Header().Get(RequestIDHeader))
			}
			if inner == nil || inner == slog.Default() {
				t.Error("handler did not receive request logger")
			}
		})
	}
}

func TestRequestLoggerImplicitOK(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := RequestLogger(logger, socketIP)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry["status"] != float64(http.StatusOK) {
		t.Errorf("status = %v", entry["status"])
	}
}

func TestLoggerFromDefault(t *testing.T) {
	if LoggerFrom(httptest.NewRequest(http.MethodGet, "/", nil).Context()) != slog.Default() {
		t.Error("expected default logger")
	}
}
