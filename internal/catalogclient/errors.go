package catalogclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind — категория ошибки обращения к каталогу.
type Kind string

const (
	// KindNetwork — соединение не установлено или разорвано
	KindNetwork Kind = "network"
	// KindTimeout — ответ не получен за отведённое время
	KindTimeout Kind = "timeout"
	// KindHTTP — сервер вернул статус вне 2xx
	KindHTTP Kind = "http"
	// KindNotFound — 404 на get/update/delete
	KindNotFound Kind = "not_found"
	// KindRejected — 4xx (кроме 404) на create/update: сервер отклонил данные
	KindRejected Kind = "rejected"
	// KindProtocol — тело ответа не JSON или не соответствует схеме
	KindProtocol Kind = "protocol"
)

// Sentinel-ошибки для errors.Is.
var (
	ErrNetwork  = errors.New("каталог недоступен")
	ErrTimeout  = errors.New("превышено время ожидания ответа каталога")
	ErrHTTP     = errors.New("каталог вернул ошибку HTTP")
	ErrNotFound = errors.New("запись не найдена")
	ErrRejected = errors.New("каталог отклонил данные")
	ErrProtocol = errors.New("некорректный ответ каталога")
)

// Error — ошибка операции клиента каталога.
// Сопоставляется с sentinel-ошибками через errors.Is:
// NotFound и Rejected одновременно являются ErrHTTP.
type Error struct {
	// Kind — категория ошибки
	Kind Kind
	// Op — операция клиента (list, get, create, update, delete, ping)
	Op string
	// StatusCode — HTTP-статус ответа (0, если ответа не было)
	StatusCode int
	// Detail — фрагмент тела ответа или пояснение
	Detail string
	// Err — исходная ошибка транспорта или декодирования
	Err error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("catalog %s: %s", e.Op, e.sentinel().Error())
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap возвращает исходную ошибку.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is сопоставляет ошибку с sentinel-ошибками пакета.
func (e *Error) Is(target error) bool {
	if target == e.sentinel() {
		return true
	}
	return target == ErrHTTP && e.StatusCode != 0
}

func (e *Error) sentinel() error {
	switch e.Kind {
	case KindNetwork:
		return ErrNetwork
	case KindTimeout:
		return ErrTimeout
	case KindNotFound:
		return ErrNotFound
	case KindRejected:
		return ErrRejected
	case KindProtocol:
		return ErrProtocol
	default:
		return ErrHTTP
	}
}

// KindOf возвращает категорию ошибки клиента каталога
// или пустую строку, если err не является *Error.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// HTTPStatus возвращает HTTP-статус из ошибки клиента каталога (0, если ответа не было).
func HTTPStatus(err error) int {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.StatusCode
	}
	return 0
}

// transportError классифицирует ошибку транспорта: таймаут или сеть.
func transportError(op string, err error) *Error {
	kind := KindNetwork
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = KindTimeout
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// statusError классифицирует ответ со статусом вне 2xx.
func statusError(op string, status int, detail string) *Error {
	kind := KindHTTP
	switch {
	case status == http.StatusNotFound && (op == opGet || op == opUpdate || op == opDelete):
		kind = KindNotFound
	case status >= 400 && status < 500 && status != http.StatusNotFound && (op == opCreate || op == opUpdate):
		kind = KindRejected
	}
	return &Error{Kind: kind, Op: op, StatusCode: status, Detail: detail}
}

// protocolError — ответ получен, но не может быть разобран.
func protocolError(op, detail string, err error) *Error {
	return &Error{Kind: KindProtocol, Op: op, Detail: detail, Err: err}
}
