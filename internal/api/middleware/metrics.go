// metrics.go — Prometheus HTTP метрики FitCheck Backend.
// Регистрирует метрики: fc_http_requests_total, fc_http_request_duration_seconds.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fc_http_requests_total",
			Help: "Общее количество HTTP-запросов к FitCheck Backend",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fc_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к FitCheck Backend в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Нормализуем путь для лейблов метрик
			// (заменяем числовые ID на {id} для предотвращения кардинальности)
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// metricsResponseWriter — обёртка для перехвата статус-кода.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному
// ResponseWriter (нужен для Flush в SSE и Hijack в WebSocket).
func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// normalizePath заменяет динамические сегменты пути на плейсхолдеры
// для предотвращения взрывного роста кардинальности метрик.
// /api/admin/users/42 → /api/admin/users/{id}
func normalizePath(path string) string {
	// Статические пути — возвращаем как есть
	switch path {
	case "/health/live", "/health/ready", "/metrics",
		"/api/auth/login", "/api/auth/validate",
		"/api/admin/dashboard",
		"/api/admin/users", "/api/admin/sync-users",
		"/api/admin/settings", "/api/admin/questions",
		"/api/admin/test-history",
		"/api/android/login", "/api/android/settings",
		"/api/android/settings/stream", "/api/android/settings/ws",
		"/api/android/questions",
		"/api/android/test-results", "/api/android/user-answers",
		"/api/upload/image", "/api/upload/images":
		return path
	}

	// Динамические пути с числовым ID или именем файла в хвосте
	prefixes := []struct {
		prefix string
		result string
	}{
		{"/api/admin/users/", "/api/admin/users/{id}"},
		{"/api/admin/questions/", "/api/admin/questions/{id}"},
		{"/api/admin/test-history/", "/api/admin/test-history/{id}/answers"},
		{"/api/upload/images/", "/api/upload/images/{filename}"},
		{"/uploads/", "/uploads/{filename}"},
	}

	for _, p := range prefixes {
		if strings.HasPrefix(path, p.prefix) && len(path) > len(p.prefix) {
			return p.result
		}
	}

	return path
}
