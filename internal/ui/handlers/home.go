package handlers

import (
	"log/slog"
	"net/http"

	"github.com/bigkaa/paint-catalog/internal/domain/view"
	"github.com/bigkaa/paint-catalog/internal/ui/pages"
)

// HomeHandler — обработчик стартовой страницы.
type HomeHandler struct {
	catalogURL string
	logger     *slog.Logger
}

// NewHomeHandler создаёт HomeHandler. catalogURL показывается на странице.
func NewHomeHandler(catalogURL string, logger *slog.Logger) *HomeHandler {
	return &HomeHandler{
		catalogURL: catalogURL,
		logger:     logger.With(slog.String("component", "ui.home")),
	}
}

// HandleHome обрабатывает GET / — стартовый экран.
func (h *HomeHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	ctrl := controllerFrom(w, r, h.logger)
	if ctrl == nil {
		return
	}

	if err := ctrl.Navigate(r.Context(), view.Home); err != nil {
		h.logger.Error("Ошибка перехода на стартовый экран", slog.String("error", err.Error()))
	}
	st := ctrl.Snapshot()

	renderPage(w, r, h.logger, http.StatusOK, pages.Home(pages.HomeData{
		Page:       pageFor(r, st, view.Home),
		Loaded:     st.Loaded,
		CacheSize:  st.CacheSize,
		CatalogURL: h.catalogURL,
	}))
}
