// metrics.go — Prometheus HTTP метрики веб-интерфейса.
// Регистрирует метрики: pc_http_requests_total, pc_http_request_duration_seconds.
// Нормализация путей предотвращает взрывной рост кардинальности.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pc_http_requests_total",
			Help: "Общее количество HTTP-запросов к Paint Catalog",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pc_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к Paint Catalog в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			status := strconv.Itoa(wrapped.statusCode)
			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(time.Since(start).Seconds())
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

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// normalizePath заменяет ID записи в пути на {id}.
// /paints/42/edit → /paints/{id}/edit
// /static/css/app.css → /static/*
// Неизвестные пути сводятся к "other".
func normalizePath(path string) string {
	switch path {
	case "/", "/paints", "/paints/new", "/paints/reload", "/paints/edit/cancel",
		"/statistics", "/statistics/average", "/export.csv",
		"/preferences/theme", "/preferences/language",
		"/health/live", "/health/ready", "/metrics":
		return path
	}

	if strings.HasPrefix(path, "/static/") {
		return "/static/*"
	}

	const paintsPrefix = "/paints/"
	if rest, ok := strings.CutPrefix(path, paintsPrefix); ok && rest != "" {
		id, suffix, _ := strings.Cut(rest, "/")
		if id == "" {
			return "other"
		}
		switch suffix {
		case "":
			return "/paints/{id}"
		case "edit", "delete":
			return "/paints/{id}/" + suffix
		}
	}

	return "other"
}
