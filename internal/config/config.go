// Пакет config — загрузка и валидация конфигурации Paint Catalog
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// DefaultCatalogURL — адрес коллекции pinturas публичного REST API.
const DefaultCatalogURL = "https://utnfra-api-pinturas.onrender.com/pinturas"

// Config содержит все параметры конфигурации Paint Catalog.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера (по умолчанию 8040)
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- HTTP Server Timeouts ---

	// Таймаут чтения HTTP-сервера (по умолчанию 30s)
	HTTPReadTimeout time.Duration
	// Таймаут записи HTTP-сервера (по умолчанию 60s)
	HTTPWriteTimeout time.Duration
	// Таймаут простоя HTTP-сервера (по умолчанию 120s)
	HTTPIdleTimeout time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown (по умолчанию 5s)
	ShutdownTimeout time.Duration

	// --- Каталог (удалённый REST API) ---

	// URL коллекции записей, без завершающего слэша
	CatalogURL string
	// Таймаут одного запроса к каталогу (по умолчанию 10s)
	CatalogTimeout time.Duration
	// Путь к CA-сертификату для TLS (пустая строка — системный пул)
	CatalogCACertPath string

	// --- UI ---

	// Максимальное количество одновременных сессий браузеров
	SessionMax int
	// Время жизни неактивной сессии
	SessionTTL time.Duration
	// Задержка возврата к списку после неудачного выбора записи
	RecoveryDelay time.Duration
	// Язык интерфейса по умолчанию (es, en)
	DefaultLang string
	// Флаг Secure для cookie (включать за HTTPS)
	CookieSecure bool

	// --- topologymetrics ---

	// Включён ли мониторинг зависимостей
	DephealthEnabled bool
	// Имя группы в метриках dephealth
	DephealthGroup string
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration
}

// Load загружает конфигурацию из переменных окружения.
// Возвращает ошибку, если значения некорректны.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// PC_PORT — порт HTTP-сервера (по умолчанию 8040)
	cfg.Port, err = getEnvInt("PC_PORT", 8040)
	if err != nil {
		return nil, fmt.Errorf("PC_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("PC_PORT: значение %d вне диапазона 1-65535", cfg.Port)
	}

	// PC_LOG_LEVEL — уровень логирования (по умолчанию info)
	logLevel := getEnvDefault("PC_LOG_LEVEL", "info")
	cfg.LogLevel, err = parseLogLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("PC_LOG_LEVEL: %w", err)
	}

	// PC_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("PC_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("PC_LOG_FORMAT: недопустимый формат %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- HTTP Server Timeouts ---

	cfg.HTTPReadTimeout, err = getEnvDuration("PC_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("PC_HTTP_READ_TIMEOUT: %w", err)
	}

	cfg.HTTPWriteTimeout, err = getEnvDuration("PC_HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("PC_HTTP_WRITE_TIMEOUT: %w", err)
	}

	cfg.HTTPIdleTimeout, err = getEnvDuration("PC_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("PC_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// --- Graceful shutdown ---

	cfg.ShutdownTimeout, err = getEnvDuration("PC_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("PC_SHUTDOWN_TIMEOUT: %w", err)
	}

	// --- Каталог ---

	// PC_CATALOG_URL — URL коллекции (по умолчанию публичный API)
	cfg.CatalogURL = strings.TrimRight(getEnvDefault("PC_CATALOG_URL", DefaultCatalogURL), "/")
	parsed, err := url.Parse(cfg.CatalogURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("PC_CATALOG_URL: некорректный URL %q (ожидается http:// или https://)", cfg.CatalogURL)
	}

	// PC_CATALOG_TIMEOUT — таймаут запроса к каталогу (по умолчанию 10s)
	cfg.CatalogTimeout, err = getEnvDurationPositive("PC_CATALOG_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("PC_CATALOG_TIMEOUT: %w", err)
	}

	cfg.CatalogCACertPath = getEnvDefault("PC_CATALOG_CA_CERT_PATH", "")

	// --- UI ---

	cfg.SessionMax, err = getEnvInt("PC_SESSION_MAX", 1000)
	if err != nil {
		return nil, fmt.Errorf("PC_SESSION_MAX: %w", err)
	}
	if cfg.SessionMax < 1 {
		return nil, fmt.Errorf("PC_SESSION_MAX: значение должно быть > 0")
	}

	cfg.SessionTTL, err = getEnvDurationPositive("PC_SESSION_TTL", 12*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("PC_SESSION_TTL: %w", err)
	}

	// PC_RECOVERY_DELAY — пауза перед возвратом к списку (по умолчанию 2s)
	cfg.RecoveryDelay, err = getEnvDuration("PC_RECOVERY_DELAY", 2*time.Second)
	if err != nil {
		return nil, fmt.Errorf("PC_RECOVERY_DELAY: %w", err)
	}

	cfg.DefaultLang = strings.ToLower(getEnvDefault("PC_DEFAULT_LANG", "es"))
	if cfg.DefaultLang != "es" && cfg.DefaultLang != "en" {
		return nil, fmt.Errorf("PC_DEFAULT_LANG: недопустимый язык %q, допустимые: es, en", cfg.DefaultLang)
	}

	cfg.CookieSecure, err = getEnvBool("PC_COOKIE_SECURE", false)
	if err != nil {
		return nil, fmt.Errorf("PC_COOKIE_SECURE: %w", err)
	}

	// --- topologymetrics ---

	cfg.DephealthEnabled, err = getEnvBool("PC_DEPHEALTH_ENABLED", true)
	if err != nil {
		return nil, fmt.Errorf("PC_DEPHEALTH_ENABLED: %w", err)
	}

	cfg.DephealthGroup = getEnvDefault("PC_DEPHEALTH_GROUP", "paint-catalog")

	cfg.DephealthCheckInterval, err = getEnvDurationPositive("PC_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("PC_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	if d < 0 {
		return 0, fmt.Errorf("длительность не может быть отрицательной: %q", val)
	}
	return d, nil
}

// getEnvDurationPositive — как getEnvDuration, но значение должно быть > 0.
func getEnvDurationPositive(key string, defaultVal time.Duration) (time.Duration, error) {
	d, err := getEnvDuration(key, defaultVal)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("значение должно быть > 0")
	}
	return d, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q (допустимые: true, false, 1, 0)", val)
	}
	return b, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
