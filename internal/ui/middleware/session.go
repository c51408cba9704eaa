// Пакет middleware — HTTP middleware веб-интерфейса.
// session.go — привязка браузера к контроллеру приложения через cookie сессии.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/bigkaa/paint-catalog/internal/service"
)

// contextKey — тип для ключей контекста UI (избегаем коллизий с API middleware).
type contextKey string

const (
	// ContextKeyController — контроллер сессии в контексте запроса.
	ContextKeyController contextKey = "ui_controller"
	// ContextKeyDarkMode — предпочтение тёмной темы.
	ContextKeyDarkMode contextKey = "ui_dark_mode"
)

const (
	// SessionCookieName — cookie с ID сессии.
	SessionCookieName = "pinturas_session"
	// ThemeCookieName — cookie с предпочтением тёмной темы ("true"/"false").
	ThemeCookieName = "modo-oscuro-pinturas"
)

// Sessions — middleware, выдающий каждому браузеру собственный контроллер.
type Sessions struct {
	store  *service.SessionStore
	secure bool
	logger *slog.Logger
}

// NewSessions создаёт middleware сессий.
// secure — выставлять Secure у cookie (за TLS-терминатором).
func NewSessions(store *service.SessionStore, secure bool, logger *slog.Logger) *Sessions {
	return &Sessions{
		store:  store,
		secure: secure,
		logger: logger.With(slog.String("component", "ui_session_middleware")),
	}
}

// Middleware возвращает HTTP middleware: находит или создаёт сессию,
// помещает контроллер и тему в контекст.
func (s *Sessions) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sessionID string
			if cookie, err := r.Cookie(SessionCookieName); err == nil {
				sessionID = cookie.Value
			}

			id, ctrl, created := s.store.GetOrCreate(sessionID)
			if created {
				s.setSessionCookie(w, id)
				s.logger.Debug("Создана новая сессия",
					slog.String("remote_addr", r.RemoteAddr),
					slog.Bool("had_cookie", sessionID != ""),
				)
			}

			ctx := context.WithValue(r.Context(), ContextKeyController, ctrl)
			ctx = context.WithValue(ctx, ContextKeyDarkMode, DarkModeFromRequest(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// setSessionCookie устанавливает cookie сессии (session cookie, без MaxAge).
// Время жизни сессии ограничивает TTL хранилища.
func (s *Sessions) setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ControllerFromContext извлекает контроллер сессии из контекста запроса.
// Возвращает nil, если запрос не прошёл через Sessions middleware.
func ControllerFromContext(ctx context.Context) *service.Controller {
	ctrl, ok := ctx.Value(ContextKeyController).(*service.Controller)
	if !ok {
		return nil
	}
	return ctrl
}

// DarkModeFromContext возвращает предпочтение тёмной темы из контекста.
func DarkModeFromContext(ctx context.Context) bool {
	dark, _ := ctx.Value(ContextKeyDarkMode).(bool)
	return dark
}

// DarkModeFromRequest читает предпочтение тёмной темы из cookie.
// Отсутствующее или нераспознанное значение — светлая тема.
func DarkModeFromRequest(r *http.Request) bool {
	cookie, err := r.Cookie(ThemeCookieName)
	if err != nil {
		return false
	}
	return cookie.Value == "true"
}
