// Package main - точка входа HTTP API SkillSwap Hub.
//
// Процесс обслуживает REST API (навыки, подбор пар, запросы на обмен,
// уведомления) и WebSocket-поток уведомлений. Фоновые задачи (истечение
// запросов, очистка уведомлений) выполняет cmd/worker.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	// Configuration
	"github.com/skillswap/skillswap-hub/config"
	"github.com/skillswap/skillswap-hub/internal/bootstrap"

	// Application layer
	"github.com/skillswap/skillswap-hub/internal/application/command"
	"github.com/skillswap/skillswap-hub/internal/application/query"

	// Interface layer
	httpserver "github.com/skillswap/skillswap-hub/internal/interface/http"
	"github.com/skillswap/skillswap-hub/internal/interface/http/handlers"
	"github.com/skillswap/skillswap-hub/internal/interface/ws"

	// Packages
	"github.com/skillswap/skillswap-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	appLog := setupLogger(cfg)
	log := appLog.Slog()
	log.Info("starting SkillSwap API",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"instance", cfg.App.InstanceID,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ХРАНИЛИЩА (PostgreSQL, Redis или память)
	// ─────────────────────────────────────────────────────────────────────────
	stores, err := bootstrap.OpenStores(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to open stores: %w", err)
	}
	defer stores.Close()

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ИНИЦИАЛИЗАЦИЯ EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	eventBus, err := bootstrap.NewEventBus(cfg, stores, log)
	if err != nil {
		return fmt.Errorf("failed to create event bus: %w", err)
	}
	defer func() {
		if err := eventBus.Close(); err != nil {
			log.Error("failed to close event bus", "error", err)
		}
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ПОДБОР ПАР И ПРОВЕРКА НАВЫКОВ
	// ─────────────────────────────────────────────────────────────────────────
	ranker, err := bootstrap.NewRanker(cfg.Scoring)
	if err != nil {
		return fmt.Errorf("failed to build ranker: %w", err)
	}
	validator := bootstrap.NewValidator(cfg.Features)
	if validator == nil {
		log.Info("self-assessment disabled by feature flag")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ИНИЦИАЛИЗАЦИЯ APPLICATION LAYER (Commands, Queries)
	// ─────────────────────────────────────────────────────────────────────────
	respondCfg := command.DefaultRespondConfig()
	respondCfg.LockTTL = cfg.Swap.LockTTL

	deps := httpserver.Dependencies{
		CreateSwapRequest:     command.NewCreateSwapRequestHandler(stores.Skills, stores.Requests, eventBus, nil),
		RespondSwapRequest:    command.NewRespondSwapRequestHandler(stores.Requests, eventBus, stores.Locker, nil, respondCfg),
		SkillListings:         command.NewSkillListingHandler(stores.Skills, validator, eventBus),
		SubmitAssessment:      command.NewSubmitAssessmentHandler(stores.Skills, validator, eventBus),
		SetAvailability:       command.NewSetAvailabilityHandler(stores.Profiles),
		MarkNotificationsRead: command.NewMarkNotificationsReadHandler(stores.Notifications, nil),

		RankMatches:   query.NewRankMatchesHandler(stores.Profiles, ranker, cfg.Scoring.CandidatePoolLimit),
		Skills:        query.NewSkillQueries(stores.Skills),
		SwapRequests:  query.NewSwapRequestQueries(stores.Requests, cfg.Swap.RequestTTL),
		Notifications: query.NewListNotificationsHandler(stores.Notifications),
		BadgeCounts:   query.NewBadgeCountsHandler(stores.Requests, stores.Notifications),

		HealthChecker: bootstrap.NewHealthChecker(cfg.App.Version, stores),
		Logger:        appLog.With(logger.Component("http")),
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. РЕГИСТРАЦИЯ EVENT HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	if _, err := bootstrap.WireNotifications(eventBus, stores, appLog); err != nil {
		return fmt.Errorf("failed to register event handlers: %w", err)
	}

	if cfg.Features.Enabled(config.FeatureNotifyWebSocketPush) {
		hub := ws.NewHub(appLog.With(logger.Component("ws")))
		if err := hub.Subscribe(eventBus); err != nil {
			return fmt.Errorf("failed to subscribe websocket hub: %w", err)
		}
		defer hub.Close()
		deps.NotificationStream = ws.NewHandler(hub, cfg.HTTP.AllowedOrigins)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. АУТЕНТИФИКАЦИЯ
	// ─────────────────────────────────────────────────────────────────────────
	deps.Authenticator, err = handlers.NewAuthenticator(handlers.AuthConfig{
		Secret:   []byte(cfg.Auth.JWTSecret),
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
		Leeway:   cfg.Auth.Leeway,
	})
	if err != nil {
		return fmt.Errorf("failed to create authenticator: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. СОЗДАНИЕ HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.MaxBodyBytes = cfg.HTTP.MaxBodyBytes
	httpConfig.EnableCORS = cfg.HTTP.EnableCORS
	httpConfig.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpConfig.RateLimitPerSecond = cfg.HTTP.RateLimitPerSecond
	httpConfig.RateLimitBurst = cfg.HTTP.RateLimitBurst
	httpConfig.RequestTTL = cfg.Swap.RequestTTL
	httpConfig.Version = cfg.App.Version

	httpServer, err := httpserver.NewServer(httpConfig, deps)
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. ЗАПУСК СЕРВИСОВ
	// ─────────────────────────────────────────────────────────────────────────
	errCh := httpServer.StartAsync()

	log.Info("SkillSwap API is running",
		"http_address", httpConfig.Address(),
		"websocket", deps.NotificationStream != nil,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 11. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			log.Error("http server error", "error", err)
			return err
		}
	case <-ctx.Done():
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", "error", err)
		log.Warn("shutdown completed with errors")
		return nil
	}

	// Event bus, hub и хранилища закроются через defer
	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger настраивает структурированное логирование и делает его
// логгером по умолчанию для slog.
func setupLogger(cfg *config.Config) *logger.Logger {
	log := bootstrap.NewLogger(cfg)
	slog.SetDefault(log.Slog())
	return log
}
