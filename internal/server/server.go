// Пакет server — HTTP-сервер каталога красок с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на ingress.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	apihandlers "github.com/bigkaa/paint-catalog/internal/api/handlers"
	"github.com/bigkaa/paint-catalog/internal/api/middleware"
	"github.com/bigkaa/paint-catalog/internal/config"
	uihandlers "github.com/bigkaa/paint-catalog/internal/ui/handlers"
	"github.com/bigkaa/paint-catalog/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/paint-catalog/internal/ui/middleware"
	"github.com/bigkaa/paint-catalog/internal/ui/static"
)

// UIComponents — обработчики и middleware веб-интерфейса.
type UIComponents struct {
	Sessions   *uimiddleware.Sessions
	Home       *uihandlers.HomeHandler
	Paints     *uihandlers.PaintsHandler
	Statistics *uihandlers.StatisticsHandler
	Export     *uihandlers.ExportHandler
}

// Server — HTTP-сервер каталога.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт HTTP-сервер с настроенными routes и middleware.
func New(cfg *config.Config, logger *slog.Logger, health *apihandlers.HealthHandler, ui *UIComponents) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      NewRouter(logger, health, ui),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// NewRouter собирает chi-роутер: служебные endpoints, статика и UI.
// Health, metrics и статика не создают UI-сессию.
func NewRouter(logger *slog.Logger, health *apihandlers.HealthHandler, ui *UIComponents) chi.Router {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))

	router.Get("/health/live", health.HealthLive)
	router.Get("/health/ready", health.HealthReady)
	router.Get("/metrics", health.GetMetrics)
	router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(static.FileSystem())))

	if ui == nil {
		return router
	}

	router.Group(func(r chi.Router) {
		r.Use(i18n.Middleware())
		r.Use(ui.Sessions.Middleware())

		r.Get("/", ui.Home.HandleHome)

		r.Get("/paints", ui.Paints.HandleList)
		r.Post("/paints", ui.Paints.HandleCreate)
		r.Post("/paints/reload", ui.Paints.HandleReload)
		r.Get("/paints/new", ui.Paints.HandleNew)
		r.Post("/paints/edit/cancel", ui.Paints.HandleCancel)
		r.Get("/paints/{id}/edit", ui.Paints.HandleEdit)
		r.Post("/paints/{id}", ui.Paints.HandleUpdate)
		r.Get("/paints/{id}/delete", ui.Paints.HandleConfirmDelete)
		r.Post("/paints/{id}/delete", ui.Paints.HandleDelete)

		r.Get("/statistics", ui.Statistics.HandleStatistics)
		r.Post("/statistics/average", ui.Statistics.HandleAverage)

		r.Get("/export.csv", ui.Export.HandleExport)

		r.Post("/preferences/theme", uihandlers.HandleSetTheme)
		r.Post("/preferences/language", uihandlers.HandleSetLanguage)
	})

	return router
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
