package handlers

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/bigkaa/paint-catalog/internal/service"
)

// ExportHandler — выгрузка кэша сессии в CSV.
type ExportHandler struct {
	now    func() time.Time
	logger *slog.Logger
}

// NewExportHandler создаёт ExportHandler.
func NewExportHandler(logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		now:    time.Now,
		logger: logger.With(slog.String("component", "ui.export")),
	}
}

// HandleExport обрабатывает GET /export.csv.
// Пустой кэш — redirect на список с предупреждением.
func (h *ExportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctrl := controllerFrom(w, r, h.logger)
	if ctrl == nil {
		return
	}

	var buf bytes.Buffer
	if err := ctrl.ExportCSV(&buf); err != nil {
		if !errors.Is(err, service.ErrNothingToExport) {
			h.logger.Error("Ошибка экспорта CSV", slog.String("error", err.Error()))
		}
		redirectTo(w, r, listURL)
		return
	}

	filename := service.ExportFilename(h.now())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)

	h.logger.Info("CSV выгружен", slog.String("filename", filename), slog.Int("bytes", buf.Len()))
}
