package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus-метрики контроллера и хранилища сессий.
var (
	// operationsTotal — операции контроллера по результату
	// (ok, invalid, busy, cancelled, empty, error).
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pc_controller_operations_total",
			Help: "Общее количество пользовательских операций контроллера каталога",
		},
		[]string{"operation", "result"},
	)

	sessionHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pc_session_hits_total",
		Help: "Общее количество обращений к существующей сессии.",
	})
	sessionMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pc_session_misses_total",
		Help: "Общее количество обращений к отсутствующей или истёкшей сессии.",
	})
	sessionsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pc_sessions_created_total",
		Help: "Общее количество созданных сессий.",
	})
)
