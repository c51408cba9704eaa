// Пакет pages — страницы веб-интерфейса каталога.
// Шаблоны html/template встраиваются в бинарник и отдаются как templ.Component,
// поэтому обработчики рендерят их единообразно: pages.X(data).Render(ctx, w).
// Тексты переводятся функциями шаблона t/tf через i18n bundle.
package pages

import (
	"embed"
	"html/template"

	"github.com/a-h/templ"

	"github.com/bigkaa/paint-catalog/internal/domain/model"
	"github.com/bigkaa/paint-catalog/internal/ui/i18n"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(
	template.New("pages").Funcs(template.FuncMap{
		"t":  translate,
		"tf": translatef,
	}).ParseFS(templateFS, "templates/*.html"),
)

// Notice — уведомление, готовое к показу.
type Notice struct {
	Level string
	Text  string
}

// Page — общие данные layout: язык, тема, активная вкладка, уведомления.
type Page struct {
	Lang     string
	DarkMode bool
	// Active — имя активной вкладки (home, form, list, statistics)
	Active  string
	Notices []Notice
	// RefreshAfter > 0 — страница перезагрузится на RefreshURL через N секунд
	RefreshAfter int
	RefreshURL   string
}

// Row — строка таблицы записей.
type Row struct {
	ID string
	// PathID — ID, экранированный для сегмента пути
	PathID   string
	Brand    string
	Price    string
	Color    string
	Quantity int
}

// HomeData — данные стартовой страницы.
type HomeData struct {
	Page
	Loaded     bool
	CacheSize  int
	CatalogURL string
}

// FormData — данные формы создания/редактирования.
type FormData struct {
	Page
	Editing bool
	EditID  string
	Action  string
	Input   model.PaintInput
	// Errors — переведённые сообщения нарушений по имени поля
	Errors map[string]string
}

// ListData — данные таблицы записей.
type ListData struct {
	Page
	Loaded    bool
	Rows      []Row
	CacheSize int
	Filter    string
	// RecoveryIn — оставшееся время до возврата к списку (для текста уведомления)
	RecoveryIn string
}

// BrandRow — строка таблицы средних цен по марке.
type BrandRow struct {
	Brand   string
	Count   int
	Average string
}

// StatisticsData — данные страницы статистики.
type StatisticsData struct {
	Page
	Total           int
	Average         string
	Max             string
	Min             string
	TotalQuantity   int
	MostCommonBrand string
	MostCommonCount int
	MostExpensive   *Row
	BrandAverages   []BrandRow
}

// ConfirmDeleteData — данные страницы подтверждения удаления.
type ConfirmDeleteData struct {
	Page
	Row Row
}

// Home — стартовая страница.
func Home(data HomeData) templ.Component {
	return render("home", data)
}

// Form — форма создания или редактирования записи.
func Form(data FormData) templ.Component {
	return render("form", data)
}

// List — таблица записей с фильтром, сортировкой и экспортом.
func List(data ListData) templ.Component {
	return render("list", data)
}

// Statistics — агрегаты по каталогу.
func Statistics(data StatisticsData) templ.Component {
	return render("statistics", data)
}

// ConfirmDelete — подтверждение удаления записи.
func ConfirmDelete(data ConfirmDeleteData) templ.Component {
	return render("confirm_delete", data)
}

func render(name string, data any) templ.Component {
	return templ.FromGoHTML(templates.Lookup(name), data)
}

func translate(lang, key string) string {
	if b := i18n.GetBundle(); b != nil {
		return b.Translate(lang, key)
	}
	return key
}

func translatef(lang, key string, args ...any) string {
	if b := i18n.GetBundle(); b != nil {
		return b.Translatef(lang, key, args...)
	}
	return key
}
