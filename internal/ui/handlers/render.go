// Пакет handlers — HTTP-обработчики веб-интерфейса каталога.
// Каждый обработчик вызывает один метод контроллера сессии и рисует
// снимок его состояния; POST-обработчики отвечают redirect (PRG).
// Файл render.go — общие помощники: сборка данных страниц и рендеринг.
package handlers

import (
	"bytes"
	"log/slog"
	"math"
	"net/http"
	"net/url"

	"github.com/a-h/templ"

	"github.com/bigkaa/paint-catalog/internal/domain/model"
	"github.com/bigkaa/paint-catalog/internal/domain/view"
	"github.com/bigkaa/paint-catalog/internal/service"
	"github.com/bigkaa/paint-catalog/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/paint-catalog/internal/ui/middleware"
	"github.com/bigkaa/paint-catalog/internal/ui/pages"
)

// listURL — адрес таблицы записей (цель redirect и восстановления).
const listURL = "/paints"

// controllerFrom возвращает контроллер сессии или отвечает 500.
func controllerFrom(w http.ResponseWriter, r *http.Request, logger *slog.Logger) *service.Controller {
	ctrl := uimiddleware.ControllerFromContext(r.Context())
	if ctrl == nil {
		logger.Error("Контроллер сессии не найден в контексте", slog.String("path", r.URL.Path))
		http.Error(w, "Сессия не найдена", http.StatusInternalServerError)
	}
	return ctrl
}

// renderPage рендерит компонент в буфер и отправляет его с указанным статусом.
func renderPage(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, c templ.Component) {
	var buf bytes.Buffer
	if err := c.Render(r.Context(), &buf); err != nil {
		logger.Error("Ошибка рендеринга страницы",
			slog.String("error", err.Error()),
			slog.String("path", r.URL.Path),
		)
		http.Error(w, "Ошибка рендеринга страницы", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// redirectTo отвечает 303 See Other.
func redirectTo(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// pageFor собирает общие данные layout: язык, тема, вкладка, уведомления.
func pageFor(r *http.Request, st service.State, active view.View) pages.Page {
	ctx := r.Context()
	p := pages.Page{
		Lang:     i18n.LangFromContext(ctx),
		DarkMode: uimiddleware.DarkModeFromContext(ctx),
		Active:   string(active),
	}
	for _, n := range st.Notices {
		p.Notices = append(p.Notices, pages.Notice{
			Level: string(n.Level),
			Text:  i18n.Tf(ctx, n.Key, n.Args...),
		})
	}
	if st.Recovering {
		p.RefreshAfter = int(math.Ceil(st.RecoveryDelay.Seconds()))
		if p.RefreshAfter < 1 {
			p.RefreshAfter = 1
		}
		p.RefreshURL = listURL
	}
	return p
}

// rowFor преобразует запись в строку таблицы.
func rowFor(rec model.PaintRecord) pages.Row {
	return pages.Row{
		ID:       rec.ID,
		PathID:   url.PathEscape(rec.ID),
		Brand:    rec.Brand,
		Price:    service.FormatPrice(rec.Price),
		Color:    rec.Color,
		Quantity: rec.Quantity,
	}
}

// paintURL — адрес записи с экранированным ID.
func paintURL(id string, suffix string) string {
	return listURL + "/" + url.PathEscape(id) + suffix
}

func formData(r *http.Request, st service.State) pages.FormData {
	data := pages.FormData{
		Page:   pageFor(r, st, view.Form),
		Action: listURL,
		Input:  st.Form,
	}
	if st.Editing != nil {
		data.Editing = true
		data.EditID = st.Editing.ID
		data.Action = paintURL(st.Editing.ID, "")
	}
	if len(st.FormErrors) > 0 {
		data.Errors = make(map[string]string, len(st.FormErrors))
		for _, field := range st.FormErrors.Fields() {
			data.Errors[field] = i18n.T(r.Context(), "validation."+st.FormErrors[field].Code)
		}
	}
	return data
}

func listData(r *http.Request, st service.State) pages.ListData {
	data := pages.ListData{
		Page:      pageFor(r, st, view.List),
		Loaded:    st.Loaded,
		CacheSize: st.CacheSize,
		Filter:    st.Filter,
		Rows:      make([]pages.Row, 0, len(st.Records)),
	}
	for _, rec := range st.Records {
		data.Rows = append(data.Rows, rowFor(rec))
	}
	if st.Recovering {
		data.RecoveryIn = st.RecoveryDelay.String()
	}
	return data
}

func statisticsData(r *http.Request, st service.State) pages.StatisticsData {
	s := st.Summary
	data := pages.StatisticsData{
		Page:          pageFor(r, st, view.Statistics),
		Total:         s.Total,
		Average:       service.FormatPrice(s.Average),
		Max:           service.FormatPrice(s.Max),
		Min:           service.FormatPrice(s.Min),
		TotalQuantity: s.TotalQuantity,
	}
	if brand, count, ok := s.MostCommonBrand(); ok {
		data.MostCommonBrand = brand
		data.MostCommonCount = count
	}
	if st.MostExpensive != nil {
		row := rowFor(*st.MostExpensive)
		data.MostExpensive = &row
	}
	for _, ba := range st.BrandAverages {
		data.BrandAverages = append(data.BrandAverages, pages.BrandRow{
			Brand:   ba.Brand,
			Count:   ba.Count,
			Average: service.FormatPrice(ba.Average),
		})
	}
	return data
}

// formInput читает поля формы записи.
func formInput(r *http.Request) model.PaintInput {
	return model.PaintInput{
		Brand:    r.PostFormValue("marca"),
		Price:    r.PostFormValue("precio"),
		Color:    r.PostFormValue("color"),
		Quantity: r.PostFormValue("cantidad"),
	}
}

// safeReferer возвращает путь Referer (без хоста) или fallback.
func safeReferer(r *http.Request, fallback string) string {
	ref, err := url.Parse(r.Header.Get("Referer"))
	if err != nil || ref.Path == "" {
		return fallback
	}
	if ref.RawQuery != "" {
		return ref.Path + "?" + ref.RawQuery
	}
	return ref.Path
}
