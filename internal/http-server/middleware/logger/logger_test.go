package logger

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	h := middleware.RequestID(New(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("tea"))
	})))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/activities/7/recordings", nil))

	out := buf.String()
	assert.Contains(t, out, "request completed")
	assert.Contains(t, out, "path=/activities/7/recordings")
	assert.Contains(t, out, "status=418")
	assert.Contains(t, out, "bytes=3")
	assert.Contains(t, out, "request_id=")
}
