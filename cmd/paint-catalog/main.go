// main.go — точка входа Paint Catalog.
// Веб-интерфейс каталога красок поверх удалённого REST-каталога.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	apihandlers "github.com/bigkaa/paint-catalog/internal/api/handlers"
	"github.com/bigkaa/paint-catalog/internal/catalogclient"
	"github.com/bigkaa/paint-catalog/internal/config"
	"github.com/bigkaa/paint-catalog/internal/server"
	"github.com/bigkaa/paint-catalog/internal/service"
	uihandlers "github.com/bigkaa/paint-catalog/internal/ui/handlers"
	"github.com/bigkaa/paint-catalog/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/paint-catalog/internal/ui/middleware"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// 2. Настройка логгера
	logger := config.SetupLogger(cfg)
	logger.Info("Paint Catalog запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("catalog_url", cfg.CatalogURL),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Переводы интерфейса (es, en)
	bundle := i18n.Init(logger)
	if err := i18n.LoadFromEmbedFS(bundle, logger); err != nil {
		logger.Error("Ошибка загрузки переводов", slog.String("error", err.Error()))
		os.Exit(1)
	}
	i18n.SetDefaultLang(cfg.DefaultLang)

	// 4. REST-клиент удалённого каталога
	catalog, err := catalogclient.New(cfg.CatalogURL, cfg.CatalogTimeout, cfg.CatalogCACertPath, logger)
	if err != nil {
		logger.Error("Ошибка создания клиента каталога", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 5. Хранилище UI-сессий: один контроллер на браузер
	store := service.NewSessionStore(cfg.SessionMax, cfg.SessionTTL, func() *service.Controller {
		return service.NewController(catalog, cfg.RecoveryDelay, logger)
	})
	logger.Info("Хранилище сессий создано",
		slog.Int("max", cfg.SessionMax),
		slog.String("ttl", cfg.SessionTTL.String()),
	)

	// 6. topologymetrics — мониторинг зависимости (удалённый каталог)
	var dephealthSvc *service.DephealthService
	if cfg.DephealthEnabled {
		if cfg.DephealthGroup == "" {
			logger.Warn("PC_DEPHEALTH_GROUP не задан, метрики зависимостей без группы")
		}
		var dephealthErr error
		dephealthSvc, dephealthErr = service.NewDephealthService(
			"paint-catalog",
			cfg.DephealthGroup,
			cfg.CatalogURL,
			cfg.DephealthCheckInterval,
			logger,
		)
		if dephealthErr != nil {
			logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
				slog.String("error", dephealthErr.Error()),
			)
			dephealthSvc = nil
		} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics",
				slog.String("error", startErr.Error()),
			)
			dephealthSvc = nil
		} else {
			logger.Info("topologymetrics запущен",
				slog.String("group", cfg.DephealthGroup),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
		}
	}

	// 7. Обработчики: health/metrics и веб-интерфейс
	healthHandler := apihandlers.NewHealthHandler(catalog)
	if dephealthSvc != nil {
		healthHandler.SetDependencyHealth(dephealthSvc)
	}
	ui := &server.UIComponents{
		Sessions:   uimiddleware.NewSessions(store, cfg.CookieSecure, logger),
		Home:       uihandlers.NewHomeHandler(catalog.BaseURL(), logger),
		Paints:     uihandlers.NewPaintsHandler(logger),
		Statistics: uihandlers.NewStatisticsHandler(logger),
		Export:     uihandlers.NewExportHandler(logger),
	}

	// 8. Создание и запуск HTTP-сервера (блокирующий вызов с graceful shutdown)
	srv := server.New(cfg, logger, healthHandler, ui)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 9. Остановка фоновых задач
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("Paint Catalog остановлен")
}
