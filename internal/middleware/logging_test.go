package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

func TestLogger(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{"ok", http.StatusOK, "level=INFO"},
		{"client error", http.StatusNotFound, "level=WARN"},
		{"server error", http.StatusInternalServerError, "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))

			h := chimiddleware.RequestID(Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("hello"))
			})))

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/habits", nil))

			line := buf.String()
			for _, want := range []string{
				tt.wantLevel,
				"method=GET",
				"path=/api/habits",
				"status=" + strconv.Itoa(tt.status),
				"bytes=5",
				"requestID=",
			} {
				if !strings.Contains(line, want) {
					t.Errorf("log line %q is missing %q", line, want)
				}
			}
			if strings.Contains(line, `requestID=""`) {
				t.Errorf("request id was not logged: %q", line)
			}
		})
	}
}

func TestLogger_ImplicitOK(t *testing.T) {
	var buf bytes.Buffer
	h := Logger(slog.New(slog.NewTextHandler(&buf, nil)))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{}"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if !strings.Contains(buf.String(), "status=200") {
		t.Errorf("log line %q, want status=200", buf.String())
	}
}
