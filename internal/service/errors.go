// errors.go — ошибки сервисного слоя.
package service

import "errors"

var (
	// ErrBusy — предыдущая операция сессии ещё выполняется.
	ErrBusy = errors.New("операция уже выполняется")
	// ErrInvalidInput — данные формы не прошли валидацию.
	ErrInvalidInput = errors.New("ошибка валидации формы")
	// ErrNoRecordInEdit — изменение без выбранной для редактирования записи.
	ErrNoRecordInEdit = errors.New("запись для редактирования не выбрана")
	// ErrNotConfirmed — пользователь отказался от удаления.
	ErrNotConfirmed = errors.New("удаление не подтверждено")
	// ErrNothingToExport — экспорт при пустом кэше.
	ErrNothingToExport = errors.New("нет записей для экспорта")
)
