// Пакет handlers — служебные HTTP endpoints Paint Catalog.
// /health/live — liveness probe (процесс жив)
// /health/ready — readiness probe (удалённый каталог доступен)
// /metrics — Prometheus метрики
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bigkaa/paint-catalog/internal/config"
)

// serviceName — имя сервиса в ответах health endpoints.
const serviceName = "paint-catalog"

// ReadinessChecker — интерфейс проверки готовности зависимости.
type ReadinessChecker interface {
	// CheckReady возвращает статус ("ok", "degraded", "fail") и сообщение.
	CheckReady() (status, message string)
}

// DependencyHealth — состояние зависимостей по данным фонового мониторинга.
type DependencyHealth interface {
	// Health возвращает карту "endpoint → доступен".
	Health() map[string]bool
}

// HealthHandler — обработчик health endpoints.
type HealthHandler struct {
	catalogChecker ReadinessChecker
	dependencies   DependencyHealth
	promHandler    http.Handler
}

// NewHealthHandler создаёт обработчик health endpoints.
// catalogChecker — проверка удалённого каталога (может быть nil — readiness вернёт "fail").
func NewHealthHandler(catalogChecker ReadinessChecker) *HealthHandler {
	return &HealthHandler{
		catalogChecker: catalogChecker,
		promHandler:    promhttp.Handler(),
	}
}

// SetDependencyHealth подключает фоновый мониторинг зависимостей к readiness probe.
// Недоступный endpoint понижает итог до degraded: решающей остаётся прямая проверка каталога.
func (h *HealthHandler) SetDependencyHealth(d DependencyHealth) {
	h.dependencies = d
}

// healthCheckResult — результат проверки одной зависимости.
type healthCheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// healthLiveResponse — ответ liveness probe.
type healthLiveResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Service   string `json:"service"`
}

// healthReadyResponse — ответ readiness probe.
type healthReadyResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Service   string `json:"service"`
	Checks    struct {
		Catalog healthCheckResult `json:"catalog"`
		// Dependencies — endpoints из topologymetrics
		Dependencies map[string]healthCheckResult `json:"dependencies,omitempty"`
	} `json:"checks"`
}

// HealthLive — liveness probe. Возвращает 200 если процесс жив.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthLiveResponse{
		Status:    statusOK,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   serviceName,
	})
}

// HealthReady — readiness probe. Проверяет удалённый каталог.
// Возвращает 200 (ok/degraded) или 503 (fail).
func (h *HealthHandler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	resp := healthReadyResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   serviceName,
	}

	if h.catalogChecker != nil {
		status, msg := h.catalogChecker.CheckReady()
		resp.Checks.Catalog = healthCheckResult{Status: status, Message: msg}
	} else {
		resp.Checks.Catalog = healthCheckResult{Status: statusFail, Message: "не инициализирован"}
	}

	statuses := []string{resp.Checks.Catalog.Status}
	if h.dependencies != nil {
		resp.Checks.Dependencies, statuses = dependencyChecks(h.dependencies.Health(), statuses)
	}
	resp.Status = overallStatus(statuses...)

	code := http.StatusOK
	if resp.Status == statusFail {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

// GetMetrics — Prometheus метрики.
func (h *HealthHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.promHandler.ServeHTTP(w, r)
}

// Константы статусов health check.
const (
	statusOK       = "ok"
	statusDegraded = "degraded"
	statusFail     = "fail"
)

// overallStatus определяет итоговый статус из статусов зависимостей.
// Если хотя бы одна зависимость fail — итог fail.
// Если хотя бы одна degraded — итог degraded.
// Иначе — ok.
func overallStatus(statuses ...string) string {
	hasDegraded := false
	for _, s := range statuses {
		if s == statusFail {
			return statusFail
		}
		if s == statusDegraded {
			hasDegraded = true
		}
	}
	if hasDegraded {
		return statusDegraded
	}
	return statusOK
}

// dependencyChecks переводит карту мониторинга в результаты проверок.
// Недоступный endpoint даёт degraded.
func dependencyChecks(health map[string]bool, statuses []string) (map[string]healthCheckResult, []string) {
	if len(health) == 0 {
		return nil, statuses
	}
	checks := make(map[string]healthCheckResult, len(health))
	for k, ok := range health {
		if ok {
			checks[k] = healthCheckResult{Status: statusOK}
			continue
		}
		checks[k] = healthCheckResult{Status: statusDegraded, Message: "мониторинг: endpoint недоступен"}
		statuses = append(statuses, statusDegraded)
	}
	return checks, statuses
}

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
