// Пакет service — бизнес-логика Paint Catalog.
// Controller — состояние одной сессии пользователя: кэш записей,
// запись в редактировании, форма, текущий экран и очередь уведомлений.
// Каждое действие пользователя соответствует одному методу контроллера;
// слой представления только вызывает методы и рисует Snapshot.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bigkaa/paint-catalog/internal/domain/model"
	"github.com/bigkaa/paint-catalog/internal/domain/stats"
	"github.com/bigkaa/paint-catalog/internal/domain/validation"
	"github.com/bigkaa/paint-catalog/internal/domain/view"
)

// CatalogClient — операции удалённого каталога, которые использует контроллер.
// Реализуется catalogclient.Client.
type CatalogClient interface {
	List(ctx context.Context) ([]model.PaintRecord, error)
	Get(ctx context.Context, id string) (model.PaintRecord, error)
	Create(ctx context.Context, rec model.PaintRecord) (*model.PaintRecord, error)
	Update(ctx context.Context, id string, rec model.PaintRecord) (*model.PaintRecord, error)
	Delete(ctx context.Context, id string) error
}

// Confirmer — блокирующее подтверждение удаления (да/нет).
type Confirmer interface {
	Confirm(ctx context.Context, rec model.PaintRecord) bool
}

// ConfirmFunc — адаптер функции к Confirmer.
type ConfirmFunc func(ctx context.Context, rec model.PaintRecord) bool

// Confirm вызывает f.
func (f ConfirmFunc) Confirm(ctx context.Context, rec model.PaintRecord) bool {
	return f(ctx, rec)
}

// SortMode — порядок записей в списке.
type SortMode string

const (
	// SortServer — порядок, в котором записи вернул сервер
	SortServer SortMode = ""
	// SortPrice — по возрастанию цены
	SortPrice SortMode = "price"
	// SortID — по идентификатору
	SortID SortMode = "id"
)

// State — снимок состояния контроллера для отрисовки.
type State struct {
	View view.View
	// Records — записи списка с учётом фильтра и сортировки
	Records []model.PaintRecord
	// CacheSize — количество записей в кэше
	CacheSize int
	Loaded    bool
	Filter    string
	Sort      SortMode

	// Editing — запись в редактировании (nil — режим создания)
	Editing    *model.PaintRecord
	Form       model.PaintInput
	FormErrors validation.Violations

	Summary       stats.Summary
	MostExpensive *model.PaintRecord
	BrandAverages []stats.BrandAverage
	Notices       []Notice
	Recovering    bool
	RecoveryDelay time.Duration
	OperationBusy bool
}

// Controller — контроллер приложения для одной сессии.
// Потокобезопасен: обработчики одной сессии могут выполняться параллельно.
type Controller struct {
	client        CatalogClient
	recoveryDelay time.Duration
	logger        *slog.Logger
	nav           *view.StateMachine

	mu            sync.Mutex
	records       []model.PaintRecord
	loaded        bool
	visible       []model.PaintRecord
	filter        string
	sortMode      SortMode
	summary       stats.Summary
	editing       *model.PaintRecord
	form          model.PaintInput
	formErrors    validation.Violations
	notices       []Notice
	busy          bool
	recovering    bool
	recoveryTimer *time.Timer
}

// NewController создаёт контроллер на стартовом экране с пустым кэшем.
// recoveryDelay — пауза перед возвратом к списку после неудачного выбора записи.
func NewController(client CatalogClient, recoveryDelay time.Duration, logger *slog.Logger) *Controller {
	nav, _ := view.NewStateMachine(view.Home)
	return &Controller{
		client:        client,
		recoveryDelay: recoveryDelay,
		logger:        logger.With(slog.String("component", "controller")),
		nav:           nav,
		summary:       stats.Compute(nil),
		visible:       []model.PaintRecord{},
	}
}

// --- Навигация ---

// Navigate переключает экран и применяет эффект входа:
// список рисуется из кэша (загрузка только при пустом кэше),
// статистика пересчитывается, форма очищается, если ничего не редактируется.
func (c *Controller) Navigate(ctx context.Context, target view.View) error {
	c.mu.Lock()
	effect, err := c.nav.TransitionTo(target, len(c.records) == 0, view.TriggerNavigate)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.cancelRecoveryLocked()

	switch effect {
	case view.EffectRenderList:
		c.refreshLocked()
	case view.EffectRecompute:
		c.summary = stats.Compute(c.records)
	case view.EffectPrepareForm:
		if c.editing == nil {
			c.form = model.PaintInput{}
			c.formErrors = nil
		}
	}
	c.mu.Unlock()

	if effect == view.EffectReload {
		// Ошибка уже превращена в уведомление, экран остаётся списком.
		if err := c.LoadAll(ctx); err != nil && !errors.Is(err, ErrBusy) {
			c.logger.Debug("Загрузка при входе в список не удалась", slog.String("error", err.Error()))
		}
	}
	return nil
}

// CurrentView возвращает текущий экран.
func (c *Controller) CurrentView() view.View {
	return c.nav.Current()
}

// --- Операции с каталогом ---

// LoadAll загружает все записи и полностью заменяет кэш.
// При ошибке кэш не меняется, ошибка превращается в уведомление.
func (c *Controller) LoadAll(ctx context.Context) error {
	if err := c.begin("load"); err != nil {
		return err
	}
	defer c.end()

	err := c.reload(detach(ctx))
	c.count("load", err)
	return err
}

// SubmitCreate проверяет форму и создаёт запись.
// После успеха кэш перезагружается, форма и ссылка на редактируемую запись очищаются.
func (c *Controller) SubmitCreate(ctx context.Context, in model.PaintInput) error {
	rec, violations := validation.Parse(in)
	if !violations.Valid() {
		c.rejectForm(in, violations)
		operationsTotal.WithLabelValues("create", "invalid").Inc()
		return ErrInvalidInput
	}

	if err := c.begin("create"); err != nil {
		return err
	}
	defer c.end()

	ctx = detach(ctx)
	if _, err := c.client.Create(ctx, rec); err != nil {
		c.failForm(in, "create", err)
		return err
	}

	c.logger.Info("Запись создана", slog.String("brand", rec.Brand))
	c.notify(Notice{Level: LevelSuccess, Key: "notice.created", Args: []any{rec.Brand}})
	c.finishMutation(ctx)
	c.count("create", nil)
	return nil
}

// SubmitUpdate проверяет форму и заменяет поля редактируемой записи.
// Без выбранной записи операция отклоняется с предупреждением.
func (c *Controller) SubmitUpdate(ctx context.Context, in model.PaintInput) error {
	c.mu.Lock()
	if c.editing == nil {
		c.pushLocked(Notice{Level: LevelWarning, Key: "notice.no_edit_selected"})
		c.mu.Unlock()
		operationsTotal.WithLabelValues("update", "no_edit").Inc()
		return ErrNoRecordInEdit
	}
	id := c.editing.ID
	c.mu.Unlock()

	rec, violations := validation.Parse(in)
	if !violations.Valid() {
		c.rejectForm(in, violations)
		operationsTotal.WithLabelValues("update", "invalid").Inc()
		return ErrInvalidInput
	}

	if err := c.begin("update"); err != nil {
		return err
	}
	defer c.end()

	ctx = detach(ctx)
	if _, err := c.client.Update(ctx, id, rec); err != nil {
		c.failForm(in, "update", err)
		return err
	}

	c.logger.Info("Запись изменена", slog.String("id", id))
	c.notify(Notice{Level: LevelSuccess, Key: "notice.updated", Args: []any{rec.Brand}})
	c.finishMutation(ctx)
	c.count("update", nil)
	return nil
}

// SelectForEdit загружает запись и открывает её в форме.
// При ошибке показывается уведомление, и через recoveryDelay экран
// возвращается к списку; кэш не меняется.
func (c *Controller) SelectForEdit(ctx context.Context, id string) error {
	if err := c.begin("select"); err != nil {
		return err
	}
	defer c.end()

	rec, err := c.client.Get(detach(ctx), id)

	c.mu.Lock()
	if err != nil {
		c.pushLocked(noticeForError(err))
		c.scheduleRecoveryLocked()
		c.mu.Unlock()

		c.logger.Warn("Не удалось загрузить запись для редактирования",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		c.count("select", err)
		return err
	}

	c.cancelRecoveryLocked()
	c.editing = &rec
	c.form = validation.InputFromRecord(rec)
	c.formErrors = nil
	_, _ = c.nav.TransitionTo(view.Form, len(c.records) == 0, view.TriggerSelect)
	c.pushLocked(Notice{Level: LevelInfo, Key: "notice.editing", Args: []any{rec.Brand}})
	c.mu.Unlock()

	c.count("select", nil)
	return nil
}

// CancelEdit сбрасывает форму и ссылку на редактируемую запись.
func (c *Controller) CancelEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.clearFormLocked()
	c.pushLocked(Notice{Level: LevelInfo, Key: "notice.edit_cancelled"})
}

// Remove удаляет запись после подтверждения пользователя.
// Отказ — ErrNotConfirmed без побочных эффектов.
// Если удалена редактируемая запись, форма очищается.
func (c *Controller) Remove(ctx context.Context, id string, confirmer Confirmer) error {
	rec, ok := c.Lookup(id)
	if !ok {
		rec = model.PaintRecord{ID: id}
	}
	if confirmer == nil || !confirmer.Confirm(ctx, rec) {
		operationsTotal.WithLabelValues("delete", "cancelled").Inc()
		return ErrNotConfirmed
	}

	if err := c.begin("delete"); err != nil {
		return err
	}
	defer c.end()

	ctx = detach(ctx)
	if err := c.client.Delete(ctx, id); err != nil {
		c.notify(noticeForError(err))
		c.logger.Warn("Не удалось удалить запись",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		c.count("delete", err)
		return err
	}

	c.mu.Lock()
	if c.editing != nil && c.editing.ID == id {
		c.clearFormLocked()
	}
	c.pushLocked(Notice{Level: LevelSuccess, Key: "notice.deleted", Args: []any{rec.Brand}})
	c.mu.Unlock()

	c.logger.Info("Запись удалена", slog.String("id", id))
	_ = c.reload(ctx)
	c.count("delete", nil)
	return nil
}

// ExportCSV записывает кэш в w в формате CSV.
// При пустом кэше ничего не пишет и возвращает ErrNothingToExport.
func (c *Controller) ExportCSV(w io.Writer) error {
	c.mu.Lock()
	if len(c.records) == 0 {
		c.pushLocked(Notice{Level: LevelWarning, Key: "notice.export_empty"})
		c.mu.Unlock()
		operationsTotal.WithLabelValues("export", "empty").Inc()
		return ErrNothingToExport
	}
	records := append([]model.PaintRecord(nil), c.records...)
	c.mu.Unlock()

	if err := WriteCSV(w, records); err != nil {
		c.count("export", err)
		return fmt.Errorf("экспорт CSV: %w", err)
	}
	c.count("export", nil)
	return nil
}

// --- Фильтрация и сортировка списка ---

// FilterByBrand оставляет в списке записи, марка которых содержит query без учёта регистра.
func (c *Controller) FilterByBrand(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	query = strings.TrimSpace(query)
	if query == "" {
		c.pushLocked(Notice{Level: LevelWarning, Key: "notice.filter_empty"})
		return
	}

	c.filter = query
	c.refreshLocked()
	if len(c.visible) == 0 {
		c.pushLocked(Notice{Level: LevelInfo, Key: "notice.filter_no_match", Args: []any{query}})
		return
	}
	c.pushLocked(Notice{Level: LevelInfo, Key: "notice.filter_applied", Args: []any{strconv.Itoa(len(c.visible)), query}})
}

// ClearFilter снимает фильтр и показывает все записи по порядку ID.
func (c *Controller) ClearFilter() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.filter = ""
	c.sortMode = SortID
	c.refreshLocked()
	c.pushLocked(Notice{Level: LevelInfo, Key: "notice.filter_cleared"})
}

// SortByPrice упорядочивает список по возрастанию цены.
func (c *Controller) SortByPrice() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sortMode = SortPrice
	c.refreshLocked()
	c.pushLocked(Notice{Level: LevelInfo, Key: "notice.sorted_by_price"})
}

// AveragePrice добавляет уведомление со средней ценой по кэшу.
func (c *Controller) AveragePrice() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.records) == 0 {
		c.pushLocked(Notice{Level: LevelWarning, Key: "notice.no_records"})
		return
	}
	s := stats.Compute(c.records)
	c.pushLocked(Notice{Level: LevelInfo, Key: "notice.average_price", Args: []any{FormatPrice(s.Average)}})
}

// --- Чтение состояния ---

// Lookup ищет запись в кэше по ID.
func (c *Controller) Lookup(id string) (model.PaintRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range c.records {
		if r.ID == id {
			return r, true
		}
	}
	return model.PaintRecord{}, false
}

// EditingID возвращает ID записи в редактировании.
func (c *Controller) EditingID() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.editing == nil {
		return "", false
	}
	return c.editing.ID, true
}

// Cache возвращает копию кэша записей.
func (c *Controller) Cache() []model.PaintRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.PaintRecord(nil), c.records...)
}

// Snapshot возвращает снимок состояния и забирает накопленные уведомления.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := State{
		View:          c.nav.Current(),
		Records:       append([]model.PaintRecord(nil), c.visible...),
		CacheSize:     len(c.records),
		Loaded:        c.loaded,
		Filter:        c.filter,
		Sort:          c.sortMode,
		Form:          c.form,
		Summary:       c.summary,
		BrandAverages: stats.AverageByBrand(c.records),
		Notices:       c.notices,
		Recovering:    c.recovering,
		RecoveryDelay: c.recoveryDelay,
		OperationBusy: c.busy,
	}
	if c.editing != nil {
		rec := *c.editing
		st.Editing = &rec
	}
	if len(c.formErrors) > 0 {
		st.FormErrors = make(validation.Violations, len(c.formErrors))
		for k, v := range c.formErrors {
			st.FormErrors[k] = v
		}
	}
	if rec, ok := stats.MostExpensive(c.records); ok {
		st.MostExpensive = &rec
	}

	c.notices = nil
	return st
}

// Close останавливает таймер восстановления. Вызывается при вытеснении сессии.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelRecoveryLocked()
}

// --- Внутренние помощники ---

// begin помечает сессию занятой. Повторное действие во время выполнения
// предыдущего отклоняется с ErrBusy.
func (c *Controller) begin(op string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy {
		c.pushLocked(Notice{Level: LevelWarning, Key: "notice.busy"})
		operationsTotal.WithLabelValues(op, "busy").Inc()
		return ErrBusy
	}
	c.busy = true
	return nil
}

func (c *Controller) end() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}

// detach отвязывает запрос к каталогу от отмены контекста вызывающего.
// Уход пользователя со страницы не прерывает начатый запрос; его срок
// ограничивает только таймаут клиента каталога. Значения контекста сохраняются.
func detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

// reload запрашивает список и заменяет кэш. Вызывается внутри begin/end.
func (c *Controller) reload(ctx context.Context) error {
	records, err := c.client.List(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.pushLocked(noticeForError(err))
		c.logger.Warn("Не удалось загрузить каталог", slog.String("error", err.Error()))
		return err
	}

	c.records = records
	c.loaded = true
	c.refreshLocked()
	c.logger.Debug("Кэш каталога обновлён", slog.Int("records", len(records)))
	return nil
}

// finishMutation перезагружает кэш и очищает форму после успешного create/update.
// Ошибка перезагрузки уже показана уведомлением; запись на сервере изменена.
func (c *Controller) finishMutation(ctx context.Context) {
	_ = c.reload(ctx)

	c.mu.Lock()
	c.clearFormLocked()
	c.mu.Unlock()
}

// rejectForm сохраняет ввод и нарушения для повторного показа формы.
func (c *Controller) rejectForm(in model.PaintInput, v validation.Violations) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.form = in
	c.formErrors = v
	c.pushLocked(Notice{Level: LevelWarning, Key: "notice.form_invalid"})
}

// failForm сохраняет ввод после ошибки каталога.
func (c *Controller) failForm(in model.PaintInput, op string, err error) {
	c.mu.Lock()
	c.form = in
	c.formErrors = nil
	c.pushLocked(noticeForError(err))
	c.mu.Unlock()

	c.logger.Warn("Операция каталога не выполнена",
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
	c.count(op, err)
}

func (c *Controller) clearFormLocked() {
	c.editing = nil
	c.form = model.PaintInput{}
	c.formErrors = nil
}

// refreshLocked пересчитывает видимый список и агрегаты из кэша.
func (c *Controller) refreshLocked() {
	visible := stats.FilterByBrand(c.records, c.filter)
	switch c.sortMode {
	case SortPrice:
		visible = stats.SortByPrice(visible)
	case SortID:
		visible = stats.SortByID(visible)
	}
	c.visible = visible
	c.summary = stats.Compute(c.records)
}

// scheduleRecoveryLocked планирует возврат к списку после ошибки выбора записи.
func (c *Controller) scheduleRecoveryLocked() {
	c.cancelRecoveryLocked()
	if c.recoveryDelay <= 0 {
		c.recoverLocked()
		return
	}
	c.recovering = true
	var timer *time.Timer
	timer = time.AfterFunc(c.recoveryDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		// Таймер мог быть отменён или заменён новым
		if c.recovering && c.recoveryTimer == timer {
			c.recoverLocked()
		}
	})
	c.recoveryTimer = timer
}

func (c *Controller) recoverLocked() {
	c.recovering = false
	c.recoveryTimer = nil
	if _, err := c.nav.TransitionTo(view.List, len(c.records) == 0, view.TriggerRecovery); err == nil {
		c.refreshLocked()
	}
}

func (c *Controller) cancelRecoveryLocked() {
	if c.recoveryTimer != nil {
		c.recoveryTimer.Stop()
		c.recoveryTimer = nil
	}
	c.recovering = false
}

func (c *Controller) notify(n Notice) {
	c.mu.Lock()
	c.pushLocked(n)
	c.mu.Unlock()
}

func (c *Controller) pushLocked(n Notice) {
	c.notices = append(c.notices, n)
}

// count записывает результат операции в метрики.
func (c *Controller) count(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	operationsTotal.WithLabelValues(op, result).Inc()
}

// FormatPrice форматирует цену без лишних нулей и с двумя знаками для дробных.
func FormatPrice(p float64) string {
	if p == float64(int64(p)) {
		return strconv.FormatInt(int64(p), 10)
	}
	return strconv.FormatFloat(p, 'f', 2, 64)
}
