package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// sensitiveFields are field-name fragments that must never reach the logs.
// Signatures are image payloads and secrets at once, so they are filtered
// like credentials.
var sensitiveFields = []string{
	"password",
	"password_hash",
	"token",
	"access_token",
	"authorization",
	"secret",
	"api_key",
	"signature",
	"credential",
}

// LoggingMiddleware logs each request on arrival and its outcome on
// completion. Request bodies are logged with sensitive fields masked;
// response bodies are only counted, never logged.
func LoggingMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			traceID := w.Header().Get("X-Trace-ID")

			logger.Info("incoming request",
				"request_id", traceID,
				"method", r.Method,
				"path", r.URL.Path,
				"query", r.URL.RawQuery,
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
				"body", requestBodyForLog(r),
			)

			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			level := slog.LevelInfo
			switch {
			case ww.status >= 500:
				level = slog.LevelError
			case ww.status >= 400:
				level = slog.LevelWarn
			}

			logger.Log(r.Context(), level, "response",
				"request_id", traceID,
				"method", r.Method,
				"path", r.URL.Path,
				"status_code", ww.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"response_size", ww.written,
			)
		})
	}
}

// statusWriter records the status code and byte count on the way through.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	n, err := sw.ResponseWriter.Write(b)
	sw.written += n
	return n, err
}

// requestBodyForLog drains the body for logging and puts a replayable copy
// back on the request.
func requestBodyForLog(r *http.Request) string {
	if r.Body == nil {
		return ""
	}
	raw, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewBuffer(raw))
	return maskSensitive(raw)
}

func maskSensitive(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var decoded interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		// Not JSON; refuse to log it at all if anything in it looks secret.
		lowered := strings.ToLower(string(body))
		for _, field := range sensitiveFields {
			if strings.Contains(lowered, field) {
				return "[FILTERED - Contains sensitive data]"
			}
		}
		return string(body)
	}

	masked, err := json.Marshal(maskJSON(decoded))
	if err != nil {
		return "[ERROR - Failed to marshal filtered JSON]"
	}
	return string(masked)
}

func maskJSON(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, value := range v {
			if isSensitiveKey(key) {
				out[key] = "[FILTERED]"
				continue
			}
			out[key] = maskJSON(value)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = maskJSON(item)
		}
		return out
	default:
		return v
	}
}

func isSensitiveKey(key string) bool {
	lowered := strings.ToLower(key)
	for _, field := range sensitiveFields {
		if strings.Contains(lowered, field) {
			return true
		}
	}
	return false
}
