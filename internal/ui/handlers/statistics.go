package handlers

import (
	"log/slog"
	"net/http"

	"github.com/bigkaa/paint-catalog/internal/domain/view"
	"github.com/bigkaa/paint-catalog/internal/ui/pages"
)

// StatisticsHandler — обработчик страницы статистики.
type StatisticsHandler struct {
	logger *slog.Logger
}

// NewStatisticsHandler создаёт StatisticsHandler.
func NewStatisticsHandler(logger *slog.Logger) *StatisticsHandler {
	return &StatisticsHandler{
		logger: logger.With(slog.String("component", "ui.statistics")),
	}
}

// HandleStatistics обрабатывает GET /statistics — агрегаты, пересчитанные из кэша.
func (h *StatisticsHandler) HandleStatistics(w http.ResponseWriter, r *http.Request) {
	ctrl := controllerFrom(w, r, h.logger)
	if ctrl == nil {
		return
	}

	if err := ctrl.Navigate(r.Context(), view.Statistics); err != nil {
		h.logger.Error("Ошибка перехода к статистике", slog.String("error", err.Error()))
	}
	renderPage(w, r, h.logger, http.StatusOK, pages.Statistics(statisticsData(r, ctrl.Snapshot())))
}

// HandleAverage обрабатывает POST /statistics/average — уведомление со средней ценой.
func (h *StatisticsHandler) HandleAverage(w http.ResponseWriter, r *http.Request) {
	ctrl := controllerFrom(w, r, h.logger)
	if ctrl == nil {
		return
	}

	ctrl.AveragePrice()
	redirectTo(w, r, "/statistics")
}
