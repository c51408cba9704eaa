package catalogclient

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus-метрики клиента каталога.
var (
	// requestsTotal — количество обращений к каталогу по операции и результату
	// (ok или категория ошибки).
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pc_catalog_requests_total",
			Help: "Общее количество запросов к удалённому каталогу",
		},
		[]string{"operation", "outcome"},
	)

	// requestDuration — длительность запросов к каталогу.
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pc_catalog_request_duration_seconds",
			Help:    "Длительность запросов к удалённому каталогу в секундах",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)
)

// outcomeOf возвращает метку результата для метрик.
func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	if k := KindOf(err); k != "" {
		return string(k)
	}
	return "error"
}
