package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"grid-assistant-service/internal/config"
)

type ctxKey string

const ctxCallerKey ctxKey = "caller_api_key"

var reqIDSeq uint64

func loggerOr(log *slog.Logger) *slog.Logger {
	if log != nil {
		return log
	}
	return slog.Default()
}

type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

// WithRequestLogging logs each request at debug level.
func WithRequestLogging(log *slog.Logger) func(http.Handler) http.Handler {
	log = loggerOr(log)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !log.Enabled(r.Context(), slog.LevelDebug) {
				next.ServeHTTP(w, r)
				return
			}

			reqID := atomic.AddUint64(&reqIDSeq, 1)
			start := time.Now()
			path := r.URL.Path
			if r.URL.RawQuery != "" {
				path = path + "?" + r.URL.RawQuery
			}
			log.Debug("http in", "id", reqID, "method", r.Method, "path", path)

			sw := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(sw, r)

			status := sw.status
			if status == 0 {
				status = http.StatusOK
			}
			log.Debug("http out", "id", reqID, "status", status, "bytes", sw.bytes, "duration", time.Since(start))
		})
	}
}

func WithAPIKey(cfg config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get("X-API-Key"))
			if key == "" {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "missing_x_api_key"})
				return
			}
			if _, ok := cfg.AgentAPIKeys[key]; !ok {
				writeJSON(w, http.StatusForbidden, map[string]any{"error": "invalid_x_api_key"})
				return
			}
			ctx := context.WithValue(r.Context(), ctxCallerKey, key)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin must run after WithAPIKey.
func RequireAdmin(cfg config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := cfg.AdminAPIKeys[CallerKey(r)]; !ok {
				writeJSON(w, http.StatusForbidden, map[string]any{"error": "admin_required"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func CallerKey(r *http.Request) string {
	v, _ := r.Context().Value(ctxCallerKey).(string)
	return strings.TrimSpace(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
