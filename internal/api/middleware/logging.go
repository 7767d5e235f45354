// logging.go — middleware логирования HTTP-запросов FitCheck Backend.
package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// responseWriter — обёртка для перехвата статус-кода и размера ответа.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Unwrap даёт http.ResponseController доступ к оригинальному ResponseWriter:
// SSE-поток настроек делает Flush сквозь эту обёртку.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// RequestLogger возвращает middleware, логирующий каждый запрос:
// метод, путь, статус, длительность, размер ответа, remote_addr.
// Для потоковых endpoints (/settings/stream, /settings/ws) длительность —
// время жизни соединения, а не время обработки.
//
// Уровень: ERROR (5xx), WARN (4xx), DEBUG для опросных endpoints
// (health probes и /metrics дёргаются оркестратором каждые несколько
// секунд и на INFO засоряют журнал), иначе INFO.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	log := logger.With(slog.String("component", "http"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := newResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			log.LogAttrs(r.Context(), requestLevel(wrapped.statusCode, r.URL.Path), "HTTP запрос",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", wrapped.statusCode),
				slog.Duration("duration", time.Since(start)),
				slog.Int64("bytes", wrapped.written),
				slog.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}

// requestLevel выбирает уровень логирования по статус-коду и пути.
func requestLevel(status int, path string) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	case isProbePath(path):
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// isProbePath сообщает, является ли путь опросным endpoint'ом.
func isProbePath(path string) bool {
	return path == "/metrics" || strings.HasPrefix(path, "/health/")
}
