// preferences.go — переключение темы и языка интерфейса.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/bigkaa/paint-catalog/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/paint-catalog/internal/ui/middleware"
)

// preferenceMaxAge — срок хранения cookie предпочтений (1 год).
const preferenceMaxAge = 365 * 24 * time.Hour

func setPreferenceCookie(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(preferenceMaxAge.Seconds()),
		HttpOnly: false, // JS может читать для UI-логики
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(preferenceMaxAge),
	})
}

// HandleSetTheme обрабатывает POST /preferences/theme.
// Переключает cookie тёмной темы и перенаправляет обратно.
func HandleSetTheme(w http.ResponseWriter, r *http.Request) {
	dark := !uimiddleware.DarkModeFromRequest(r)
	setPreferenceCookie(w, uimiddleware.ThemeCookieName, strconv.FormatBool(dark))
	redirectTo(w, r, safeReferer(r, "/"))
}

// HandleSetLanguage обрабатывает POST /preferences/language.
// Параметр lang: "es" или "en" (из формы или query); иное — язык по умолчанию.
func HandleSetLanguage(w http.ResponseWriter, r *http.Request) {
	lang := r.FormValue("lang")
	if !i18n.IsSupported(lang) {
		lang = i18n.DefaultLang()
	}

	setPreferenceCookie(w, i18n.LangCookieName, lang)
	redirectTo(w, r, safeReferer(r, "/"))
}
