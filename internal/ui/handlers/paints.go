// paints.go — обработчики формы и таблицы записей каталога.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/paint-catalog/internal/domain/model"
	"github.com/bigkaa/paint-catalog/internal/domain/view"
	"github.com/bigkaa/paint-catalog/internal/service"
	"github.com/bigkaa/paint-catalog/internal/ui/pages"
)

// PaintsHandler — обработчик операций с записями каталога.
type PaintsHandler struct {
	logger *slog.Logger
}

// NewPaintsHandler создаёт PaintsHandler.
func NewPaintsHandler(logger *slog.Logger) *PaintsHandler {
	return &PaintsHandler{
		logger: logger.With(slog.String("component", "ui.paints")),
	}
}

// HandleList обрабатывает GET /paints — таблица записей.
// Параметры: brand — фильтр по марке, clear=1 — снять фильтр, sort=price — по цене.
func (h *PaintsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctrl := controllerFrom(w, r, h.logger)
	if ctrl == nil {
		return
	}

	if err := ctrl.Navigate(r.Context(), view.List); err != nil {
		h.logger.Error("Ошибка перехода к списку", slog.String("error", err.Error()))
	}

	q := r.URL.Query()
	switch {
	case q.Get("clear") == "1":
		ctrl.ClearFilter()
	case q.Has("brand"):
		ctrl.FilterByBrand(q.Get("brand"))
	}
	if q.Get("sort") == "price" {
		ctrl.SortByPrice()
	}

	renderPage(w, r, h.logger, http.StatusOK, pages.List(listData(r, ctrl.Snapshot())))
}

// HandleReload обрабатывает POST /paints/reload — повторная загрузка каталога.
func (h *PaintsHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	ctrl := controllerFrom(w, r, h.logger)
	if ctrl == nil {
		return
	}

	// Ошибка уже показана уведомлением
	_ = ctrl.LoadAll(r.Context())
	redirectTo(w, r, listURL)
}

// HandleNew обрабатывает GET /paints/new — форма создания (или редактируемая запись).
func (h *PaintsHandler) HandleNew(w http.ResponseWriter, r *http.Request) {
	ctrl := controllerFrom(w, r, h.logger)
	if ctrl == nil {
		return
	}

	if err := ctrl.Navigate(r.Context(), view.Form); err != nil {
		h.logger.Error("Ошибка перехода к форме", slog.String("error", err.Error()))
	}
	renderPage(w, r, h.logger, http.StatusOK, pages.Form(formData(r, ctrl.Snapshot())))
}

// HandleCreate обрабатывает POST /paints — создание записи.
func (h *PaintsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctrl := controllerFrom(w, r, h.logger)
	if ctrl == nil {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Ошибка разбора формы", http.StatusBadRequest)
		return
	}

	h.respondMutation(w, r, ctrl, ctrl.SubmitCreate(r.Context(), formInput(r)))
}

// HandleEdit обрабатывает GET /paints/{id}/edit — выбор записи для редактирования.
// При ошибке показывается таблица, которая вернётся к списку после паузы восстановления.
func (h *PaintsHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	ctrl := controllerFrom(w, r, h.logger)
	if ctrl == nil {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	err := ctrl.SelectForEdit(r.Context(), id)
	switch {
	case err == nil:
		renderPage(w, r, h.logger, http.StatusOK, pages.Form(formData(r, ctrl.Snapshot())))
	case errors.Is(err, service.ErrBusy):
		redirectTo(w, r, listURL)
	default:
		renderPage(w, r, h.logger, http.StatusOK, pages.List(listData(r, ctrl.Snapshot())))
	}
}

// HandleUpdate обрабатывает POST /paints/{id} — сохранение редактируемой записи.
func (h *PaintsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctrl := controllerFrom(w, r, h.logger)
	if ctrl == nil {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Ошибка разбора формы", http.StatusBadRequest)
		return
	}

	// Форма из другой вкладки: сначала выбрать запись заново
	if editingID, editing := ctrl.EditingID(); editing && editingID != id {
		h.logger.Warn("Форма относится к другой записи",
			slog.String("path_id", id),
			slog.String("editing_id", editingID),
		)
		redirectTo(w, r, paintURL(id, "/edit"))
		return
	}

	err := ctrl.SubmitUpdate(r.Context(), formInput(r))
	if errors.Is(err, service.ErrNoRecordInEdit) {
		redirectTo(w, r, listURL)
		return
	}
	h.respondMutation(w, r, ctrl, err)
}

// HandleCancel обрабатывает POST /paints/edit/cancel — отмена редактирования.
func (h *PaintsHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	ctrl := controllerFrom(w, r, h.logger)
	if ctrl == nil {
		return
	}

	ctrl.CancelEdit()
	redirectTo(w, r, listURL+"/new")
}

// HandleConfirmDelete обрабатывает GET /paints/{id}/delete — страница подтверждения.
func (h *PaintsHandler) HandleConfirmDelete(w http.ResponseWriter, r *http.Request) {
	ctrl := controllerFrom(w, r, h.logger)
	if ctrl == nil {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	rec, found := ctrl.Lookup(id)
	if !found {
		rec = model.PaintRecord{ID: id}
	}
	st := ctrl.Snapshot()

	renderPage(w, r, h.logger, http.StatusOK, pages.ConfirmDelete(pages.ConfirmDeleteData{
		Page: pageFor(r, st, st.View),
		Row:  rowFor(rec),
	}))
}

// HandleDelete обрабатывает POST /paints/{id}/delete.
// Удаление выполняется только при confirm=yes.
func (h *PaintsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctrl := controllerFrom(w, r, h.logger)
	if ctrl == nil {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Ошибка разбора формы", http.StatusBadRequest)
		return
	}

	confirmed := r.PostFormValue("confirm") == "yes"
	err := ctrl.Remove(r.Context(), id, service.ConfirmFunc(func(_ context.Context, _ model.PaintRecord) bool {
		return confirmed
	}))
	if err != nil && !errors.Is(err, service.ErrNotConfirmed) {
		h.logger.Debug("Удаление не выполнено",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
	}
	redirectTo(w, r, listURL)
}

// respondMutation завершает create/update:
// успех — redirect на список, нарушения формы — 422 с формой,
// ошибка каталога — форма с уведомлением и сохранённым вводом.
func (h *PaintsHandler) respondMutation(w http.ResponseWriter, r *http.Request, ctrl *service.Controller, err error) {
	switch {
	case err == nil, errors.Is(err, service.ErrBusy):
		redirectTo(w, r, listURL)
	case errors.Is(err, service.ErrInvalidInput):
		renderPage(w, r, h.logger, http.StatusUnprocessableEntity, pages.Form(formData(r, ctrl.Snapshot())))
	default:
		renderPage(w, r, h.logger, http.StatusOK, pages.Form(formData(r, ctrl.Snapshot())))
	}
}

// pathID извлекает ID записи из пути.
func (h *PaintsHandler) pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil || id == "" {
		http.Error(w, "Некорректный ID записи", http.StatusBadRequest)
		return "", false
	}
	return id, true
}
