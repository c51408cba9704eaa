// Пакет view — конечный автомат экранов приложения.
//
// Четыре экрана: home, form (создание/редактирование), list, statistics.
// Переходы выполняются только по явному действию пользователя
// (или по таймеру восстановления после ошибки выбора записи),
// и каждый источник перехода ведёт только на свои экраны.
// Каждый переход возвращает эффект, который должен применить контроллер:
//   - list — перерисовка из кэша, повторная загрузка только при пустом кэше
//   - statistics — пересчёт агрегатов из кэша
//   - form — подготовка формы (очистка, если ничего не редактируется)
//
// Потокобезопасен через sync.RWMutex.
package view

import (
	"fmt"
	"sync"
)

// View — экран приложения.
type View string

const (
	// Home — стартовый экран
	Home View = "home"
	// Form — форма создания или редактирования записи
	Form View = "form"
	// List — таблица записей
	List View = "list"
	// Statistics — агрегаты по каталогу
	Statistics View = "statistics"
)

// Effect — действие, которое контроллер выполняет после перехода.
type Effect string

const (
	EffectNone        Effect = "none"
	EffectRenderList  Effect = "render_list"
	EffectReload      Effect = "reload"
	EffectRecompute   Effect = "recompute"
	EffectPrepareForm Effect = "prepare_form"
)

// Trigger — источник перехода.
type Trigger string

const (
	// TriggerNavigate — вкладка навигации
	TriggerNavigate Trigger = "navigate"
	// TriggerSelect — выбор записи для редактирования
	TriggerSelect Trigger = "select"
	// TriggerRecovery — возврат к списку после ошибки выбора записи
	TriggerRecovery Trigger = "recovery"
)

// StateMachine — конечный автомат экранов одной сессии.
type StateMachine struct {
	mu      sync.RWMutex
	current View
}

// allowedTargets — экраны, доступные для каждого источника перехода.
// Вкладки ведут на любой экран, включая текущий; выбор записи открывает
// только форму, восстановление возвращает только к списку.
var allowedTargets = map[Trigger]map[View]bool{
	TriggerNavigate: {Home: true, Form: true, List: true, Statistics: true},
	TriggerSelect:   {Form: true},
	TriggerRecovery: {List: true},
}

// NewStateMachine создаёт конечный автомат с начальным экраном.
// Возвращает ошибку, если экран невалидный.
func NewStateMachine(initial View) (*StateMachine, error) {
	if !isValidView(initial) {
		return nil, fmt.Errorf("недопустимый начальный экран: %q", initial)
	}
	return &StateMachine{current: initial}, nil
}

// Current возвращает текущий экран.
func (sm *StateMachine) Current() View {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.current
}

// TransitionTo выполняет переход и возвращает эффект входа на экран.
//
// Параметры:
//   - target: целевой экран
//   - cacheEmpty: кэш записей пуст (для list означает повторную загрузку)
//   - trigger: источник перехода
//
// Ошибки:
//   - INVALID_VIEW — неизвестный экран
//   - INVALID_TRANSITION — экран недоступен для этого источника перехода
func (sm *StateMachine) TransitionTo(target View, cacheEmpty bool, trigger Trigger) (Effect, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !isValidView(target) {
		return EffectNone, &TransitionError{
			Code:    "INVALID_VIEW",
			Message: fmt.Sprintf("неизвестный экран: %q", target),
		}
	}
	if !allowedTargets[trigger][target] {
		return EffectNone, &TransitionError{
			Code:    "INVALID_TRANSITION",
			Message: fmt.Sprintf("переход %s → %s по %q недопустим", sm.current, target, trigger),
		}
	}

	sm.current = target
	return entryEffect(target, cacheEmpty), nil
}

// entryEffect определяет эффект входа на экран.
func entryEffect(target View, cacheEmpty bool) Effect {
	switch target {
	case List:
		if cacheEmpty {
			return EffectReload
		}
		return EffectRenderList
	case Statistics:
		return EffectRecompute
	case Form:
		return EffectPrepareForm
	default:
		return EffectNone
	}
}

// TransitionError — ошибка перехода между экранами.
type TransitionError struct {
	Code    string // Машиночитаемый код (INVALID_VIEW, INVALID_TRANSITION)
	Message string // Человекочитаемое описание
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// isValidView проверяет, является ли значение известным экраном.
func isValidView(v View) bool {
	switch v {
	case Home, Form, List, Statistics:
		return true
	default:
		return false
	}
}
