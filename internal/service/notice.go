package service

import (
	"errors"
	"strconv"

	"github.com/bigkaa/paint-catalog/internal/catalogclient"
)

// Level — уровень уведомления пользователю.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice — уведомление, которое показывается при следующей отрисовке.
// Key — ключ i18n-каталога, Args — аргументы форматирования.
type Notice struct {
	Level Level
	Key   string
	Args  []any
}

// noticeForError преобразует ошибку каталога в понятное пользователю уведомление.
func noticeForError(err error) Notice {
	switch {
	case errors.Is(err, catalogclient.ErrTimeout):
		return Notice{Level: LevelError, Key: "error.timeout"}
	case errors.Is(err, catalogclient.ErrNetwork):
		return Notice{Level: LevelError, Key: "error.network"}
	case errors.Is(err, catalogclient.ErrNotFound):
		return Notice{Level: LevelError, Key: "error.not_found"}
	case errors.Is(err, catalogclient.ErrRejected):
		return Notice{Level: LevelError, Key: "error.rejected"}
	case errors.Is(err, catalogclient.ErrProtocol):
		return Notice{Level: LevelError, Key: "error.protocol"}
	case errors.Is(err, catalogclient.ErrHTTP):
		status := catalogclient.HTTPStatus(err)
		if status >= 500 {
			return Notice{Level: LevelError, Key: "error.server"}
		}
		return Notice{Level: LevelError, Key: "error.http", Args: []any{strconv.Itoa(status)}}
	default:
		return Notice{Level: LevelError, Key: "error.unknown"}
	}
}
