package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/paint-catalog/internal/catalogclient"
	"github.com/bigkaa/paint-catalog/internal/service"
	"github.com/bigkaa/paint-catalog/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/paint-catalog/internal/ui/middleware"
)

func TestMain(m *testing.M) {
	logger := testLogger()
	if err := i18n.LoadFromEmbedFS(i18n.Init(logger), logger); err != nil {
		logger.Error("i18n", slog.String("error", err.Error()))
		os.Exit(1)
	}
	os.Exit(m.Run())
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// wirePaint — запись в формате удалённого API.
type wirePaint struct {
	ID       int     `json:"id"`
	Marca    string  `json:"marca"`
	Precio   float64 `json:"precio"`
	Color    string  `json:"color"`
	Cantidad int     `json:"cantidad"`
}

// fakeCatalogAPI — in-memory REST API каталога.
type fakeCatalogAPI struct {
	mu      sync.Mutex
	items   []wirePaint
	nextID  int
	failAll bool
	// postDelay — задержка ответа на POST после сохранения записи
	postDelay time.Duration
}

func (f *fakeCatalogAPI) handler() http.Handler {
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	find := func(id string) int {
		for i, p := range f.items {
			if strconv.Itoa(p.ID) == id {
				return i
			}
		}
		return -1
	}

	mux.HandleFunc("/pinturas", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failAll {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "boom"})
			return
		}
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, f.items)
		case http.MethodPost:
			var p wirePaint
			if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
				return
			}
			f.nextID++
			p.ID = f.nextID
			f.items = append(f.items, p)
			if delay := f.postDelay; delay > 0 {
				f.mu.Unlock()
				time.Sleep(delay)
				f.mu.Lock()
			}
			writeJSON(w, http.StatusCreated, p)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/pinturas/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failAll {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "boom"})
			return
		}
		i := find(r.PathValue("id"))
		if i < 0 {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, f.items[i])
		case http.MethodPut:
			var p wirePaint
			if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
				return
			}
			p.ID = f.items[i].ID
			f.items[i] = p
			writeJSON(w, http.StatusOK, p)
		case http.MethodDelete:
			f.items = append(f.items[:i], f.items[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]bool{"success": true})
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	return mux
}

func (f *fakeCatalogAPI) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

// testApp — веб-интерфейс поверх fake API с отдельным браузером (cookie jar).
type testApp struct {
	server  *httptest.Server
	browser *http.Client
	api     *fakeCatalogAPI
}

func newTestApp(t *testing.T, items ...wirePaint) *testApp {
	t.Helper()

	api := &fakeCatalogAPI{items: items, nextID: len(items)}
	apiServer := httptest.NewServer(api.handler())
	t.Cleanup(apiServer.Close)

	client, err := catalogclient.New(apiServer.URL+"/pinturas", 2*time.Second, "", testLogger())
	if err != nil {
		t.Fatalf("catalogclient.New: %v", err)
	}

	store := service.NewSessionStore(10, time.Minute, func() *service.Controller {
		return service.NewController(client, 50*time.Millisecond, testLogger())
	})
	sessions := uimiddleware.NewSessions(store, false, testLogger())

	home := NewHomeHandler(client.BaseURL(), testLogger())
	paints := NewPaintsHandler(testLogger())
	statistics := NewStatisticsHandler(testLogger())
	export := NewExportHandler(testLogger())

	r := chi.NewRouter()
	r.Use(i18n.Middleware())
	r.Use(sessions.Middleware())
	r.Get("/", home.HandleHome)
	r.Get("/paints", paints.HandleList)
	r.Post("/paints", paints.HandleCreate)
	r.Post("/paints/reload", paints.HandleReload)
	r.Get("/paints/new", paints.HandleNew)
	r.Post("/paints/edit/cancel", paints.HandleCancel)
	r.Get("/paints/{id}/edit", paints.HandleEdit)
	r.Post("/paints/{id}", paints.HandleUpdate)
	r.Get("/paints/{id}/delete", paints.HandleConfirmDelete)
	r.Post("/paints/{id}/delete", paints.HandleDelete)
	r.Get("/statistics", statistics.HandleStatistics)
	r.Post("/statistics/average", statistics.HandleAverage)
	r.Get("/export.csv", export.HandleExport)
	r.Post("/preferences/theme", HandleSetTheme)
	r.Post("/preferences/language", HandleSetLanguage)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &testApp{
		server:  server,
		browser: &http.Client{Jar: jar, Timeout: 5 * time.Second},
		api:     api,
	}
}

// get выполняет GET (с переходом по redirect) и возвращает статус и тело.
func (a *testApp) get(t *testing.T, path string) (int, string) {
	t.Helper()
	resp, err := a.browser.Get(a.server.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return readResponse(t, resp)
}

// post отправляет форму (с переходом по redirect) и возвращает статус и тело.
func (a *testApp) post(t *testing.T, path string, form url.Values) (int, string) {
	t.Helper()
	resp, err := a.browser.PostForm(a.server.URL+path, form)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return readResponse(t, resp)
}

func readResponse(t *testing.T, resp *http.Response) (int, string) {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("чтение ответа: %v", err)
	}
	return resp.StatusCode, string(body)
}

func expectContains(t *testing.T, body string, parts ...string) {
	t.Helper()
	for _, p := range parts {
		if !strings.Contains(body, p) {
			t.Errorf("в ответе нет %q", p)
		}
	}
}

func paintForm(brand, price, color, qty string) url.Values {
	return url.Values{
		"marca":    {brand},
		"precio":   {price},
		"color":    {color},
		"cantidad": {qty},
	}
}

var sherwin = wirePaint{ID: 1, Marca: "Sherwin", Precio: 120, Color: "#FF0000", Cantidad: 10}
var alba = wirePaint{ID: 2, Marca: "Alba", Precio: 300, Color: "#00FF00", Cantidad: 5}

func TestHome(t *testing.T) {
	app := newTestApp(t)

	status, body := app.get(t, "/")
	if status != http.StatusOK {
		t.Fatalf("status = %d, ожидался 200", status)
	}
	expectContains(t, body, `<html lang="es">`, "Catálogo de pinturas", "El catálogo todavía no fue cargado.")
}

func TestList_LoadsCatalog(t *testing.T) {
	app := newTestApp(t, sherwin, alba)

	status, body := app.get(t, "/paints")
	if status != http.StatusOK {
		t.Fatalf("status = %d, ожидался 200", status)
	}
	expectContains(t, body, "Sherwin", "Alba", "$120", "Mostrando 2 de 2", `href="/paints/1/edit"`)
}

func TestList_FilterAndSort(t *testing.T) {
	app := newTestApp(t, sherwin, alba)

	_, body := app.get(t, "/paints?brand=alb")
	expectContains(t, body, "Se encontraron 1 pinturas de la marca «alb».", "Mostrando 1 de 2")
	if strings.Contains(body, "Sherwin") {
		t.Error("фильтр должен скрыть Sherwin")
	}

	_, body = app.get(t, "/paints?clear=1&sort=price")
	expectContains(t, body, "Pinturas ordenadas por precio.")
	if strings.Index(body, "Sherwin") > strings.Index(body, ">Alba<") {
		t.Error("Sherwin (120) должен идти раньше Alba (300)")
	}
}

func TestList_CatalogFailureRendersNotice(t *testing.T) {
	app := newTestApp(t, sherwin)
	app.api.failAll = true

	status, body := app.get(t, "/paints")
	if status != http.StatusOK {
		t.Fatalf("status = %d, ожидался 200", status)
	}
	expectContains(t, body, "Error del servidor. Intente más tarde.", "El catálogo no pudo cargarse.")
}

func TestCreate_Success(t *testing.T) {
	app := newTestApp(t)

	status, body := app.post(t, "/paints", paintForm(" Colorín ", "150", "#abcdef", "20"))
	if status != http.StatusOK {
		t.Fatalf("status = %d, ожидался 200", status)
	}
	expectContains(t, body, "Pintura «Colorín» agregada correctamente.", "#ABCDEF", "Mostrando 1 de 1")
	if app.api.count() != 1 {
		t.Errorf("записей в API = %d, ожидалась 1", app.api.count())
	}
}

func TestCreate_ClientDisconnectDoesNotAbortCatalogRequest(t *testing.T) {
	api := &fakeCatalogAPI{postDelay: 300 * time.Millisecond}
	apiServer := httptest.NewServer(api.handler())
	t.Cleanup(apiServer.Close)

	client, err := catalogclient.New(apiServer.URL+"/pinturas", 2*time.Second, "", testLogger())
	if err != nil {
		t.Fatalf("catalogclient.New: %v", err)
	}
	store := service.NewSessionStore(10, time.Minute, func() *service.Controller {
		return service.NewController(client, 0, testLogger())
	})
	sessions := uimiddleware.NewSessions(store, false, testLogger())
	h := i18n.Middleware()(sessions.Middleware()(http.HandlerFunc(NewPaintsHandler(testLogger()).HandleCreate)))

	// Браузер закрывает соединение, пока каталог ещё обрабатывает POST
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(50*time.Millisecond, cancel)

	form := paintForm("Sherwin", "120", "#ff0000", "10")
	req := httptest.NewRequest(http.MethodPost, "/paints", strings.NewReader(form.Encode())).WithContext(ctx)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, ожидался 303", rec.Code)
	}
	if ctx.Err() == nil {
		t.Fatal("контекст запроса должен быть отменён до ответа каталога")
	}
	if api.count() != 1 {
		t.Fatalf("записей в API = %d, ожидалась 1", api.count())
	}

	var sessionID string
	for _, c := range rec.Result().Cookies() {
		if c.Name == uimiddleware.SessionCookieName {
			sessionID = c.Value
		}
	}
	ctrl, ok := store.Get(sessionID)
	if !ok {
		t.Fatal("сессия не найдена")
	}

	st := ctrl.Snapshot()
	if st.CacheSize != 1 {
		t.Errorf("кэш должен перезагрузиться после создания: записей = %d", st.CacheSize)
	}
	if st.Form.Brand != "" {
		t.Errorf("форма должна очиститься, марка = %q", st.Form.Brand)
	}
	var created bool
	for _, n := range st.Notices {
		if n.Key == "notice.created" {
			created = true
		}
	}
	if !created {
		t.Error("нет уведомления об успешном создании")
	}
}

func TestCreate_InvalidInput(t *testing.T) {
	app := newTestApp(t)

	status, body := app.post(t, "/paints", paintForm("A", "10", "red", "1.5"))
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, ожидался 422", status)
	}
	expectContains(t, body,
		"La marca debe tener al menos 2 caracteres.",
		"El precio mínimo es 50.",
		"El color debe ser un código hexadecimal (#RRGGBB).",
		"La cantidad debe ser un número entero.",
		`value="A"`,
	)
	if app.api.count() != 0 {
		t.Error("невалидная запись не должна отправляться в API")
	}
}

func TestEditAndUpdate(t *testing.T) {
	app := newTestApp(t, sherwin, alba)
	app.get(t, "/paints")

	status, body := app.get(t, "/paints/1/edit")
	if status != http.StatusOK {
		t.Fatalf("status = %d, ожидался 200", status)
	}
	expectContains(t, body, "Editar pintura #1", `value="Sherwin"`, `action="/paints/1"`)

	_, body = app.post(t, "/paints/1", paintForm("Sherwin Pro", "130", "#ff0000", "12"))
	expectContains(t, body, "Pintura «Sherwin Pro» modificada correctamente.", "Sherwin Pro", "$130")

	// Ссылка на редактируемую запись очищена
	_, body = app.get(t, "/paints/new")
	expectContains(t, body, "Nueva pintura")
}

func TestEdit_MissingRecordRecovers(t *testing.T) {
	app := newTestApp(t, sherwin)
	app.get(t, "/paints")

	status, body := app.get(t, "/paints/999/edit")
	if status != http.StatusOK {
		t.Fatalf("status = %d, ожидался 200", status)
	}
	expectContains(t, body, "La pintura no existe.", `http-equiv="refresh"`, "Sherwin")
}

func TestUpdate_WithoutSelection(t *testing.T) {
	app := newTestApp(t, sherwin)

	_, body := app.post(t, "/paints/1", paintForm("Sherwin", "130", "#FF0000", "12"))
	expectContains(t, body, "No hay ninguna pintura seleccionada para modificar.")
}

func TestCancelEdit(t *testing.T) {
	app := newTestApp(t, sherwin)
	app.get(t, "/paints/1/edit")

	_, body := app.post(t, "/paints/edit/cancel", nil)
	expectContains(t, body, "Edición cancelada.", "Nueva pintura")
}

func TestDelete_ConfirmFlow(t *testing.T) {
	app := newTestApp(t, sherwin, alba)
	app.get(t, "/paints")

	_, body := app.get(t, "/paints/1/delete")
	expectContains(t, body, "¿Está seguro de eliminar la pintura «Sherwin» (ID 1)?")

	app.post(t, "/paints/1/delete", url.Values{"confirm": {"no"}})
	if app.api.count() != 2 {
		t.Fatalf("запись удалена без подтверждения")
	}

	_, body = app.post(t, "/paints/1/delete", url.Values{"confirm": {"yes"}})
	expectContains(t, body, "Pintura «Sherwin» eliminada.", "Mostrando 1 de 1")
	if app.api.count() != 1 {
		t.Errorf("записей в API = %d, ожидалась 1", app.api.count())
	}
}

func TestExport(t *testing.T) {
	app := newTestApp(t, sherwin)
	app.get(t, "/paints")

	resp, err := app.browser.Get(app.server.URL + "/export.csv")
	if err != nil {
		t.Fatal(err)
	}
	_, body := readResponse(t, resp)

	if ct := resp.Header.Get("Content-Type"); ct != "text/csv; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	cd := resp.Header.Get("Content-Disposition")
	if !strings.HasPrefix(cd, `attachment; filename="pinturas_`) || !strings.HasSuffix(cd, `.csv"`) {
		t.Errorf("Content-Disposition = %q", cd)
	}
	want := "ID,Marca,Precio,Color,Cantidad\n1,\"Sherwin\",120,#FF0000,10\n"
	if body != want {
		t.Errorf("CSV = %q, ожидался %q", body, want)
	}
}

func TestExport_EmptyCache(t *testing.T) {
	app := newTestApp(t)

	_, body := app.get(t, "/export.csv")
	expectContains(t, body, "No hay datos para exportar.")
}

func TestStatistics(t *testing.T) {
	app := newTestApp(t, sherwin, alba, wirePaint{ID: 3, Marca: "Alba", Precio: 90, Color: "#0000FF", Cantidad: 1})
	app.get(t, "/paints")

	_, body := app.get(t, "/statistics")
	expectContains(t, body, "Marca más común: Alba (2)", "$170", "$300", "$90", "Pintura más cara")

	_, body = app.post(t, "/statistics/average", nil)
	expectContains(t, body, "El precio promedio es $170.")
}

func TestPreferences_ThemeAndLanguage(t *testing.T) {
	app := newTestApp(t)

	_, body := app.post(t, "/preferences/theme", nil)
	expectContains(t, body, `<body class="dark">`)

	_, body = app.post(t, "/preferences/language", url.Values{"lang": {"en"}})
	expectContains(t, body, `<html lang="en">`, "Paint catalog", "Light mode")

	_, body = app.post(t, "/preferences/theme", nil)
	expectContains(t, body, `<body class="light">`)
}

func TestSafeReferer(t *testing.T) {
	tests := []struct {
		referer string
		want    string
	}{
		{"http://evil.example/paints?x=1", "/paints?x=1"},
		{"", "/"},
		{"::bad", "/"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/preferences/theme", nil)
		if tt.referer != "" {
			req.Header.Set("Referer", tt.referer)
		}
		if got := safeReferer(req, "/"); got != tt.want {
			t.Errorf("safeReferer(%q) = %q, ожидалось %q", tt.referer, got, tt.want)
		}
	}
}
