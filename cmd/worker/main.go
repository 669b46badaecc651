// Package main - точка входа для фоновых процессов (Worker) SkillSwap Hub.
//
// Worker отвечает за периодические задачи:
// - Перевод просроченных запросов на обмен в статус expired
// - Удаление старых прочитанных уведомлений
//
// Уведомления об истечении создаются в этом же процессе: обработчик
// событий подписан на локальную шину, а Redis доставляет
// notification.created до API-инстансов с WebSocket-клиентами.
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

	// Infrastructure layer
	"github.com/skillswap/skillswap-hub/internal/infrastructure/scheduler"
	"github.com/skillswap/skillswap-hub/internal/infrastructure/scheduler/jobs"

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
	log.Info("starting SkillSwap Worker",
		"env", cfg.App.Environment,
		"timezone", cfg.App.Location.String(),
		"instance", cfg.App.InstanceID,
	)

	if !cfg.Scheduler.Enabled {
		log.Warn("scheduler disabled (SCHEDULER_ENABLED=false), nothing to do")
		return nil
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ХРАНИЛИЩА (Worker также должен иметь актуальную схему)
	// ─────────────────────────────────────────────────────────────────────────
	stores, err := bootstrap.OpenStores(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to open stores: %w", err)
	}
	defer stores.Close()

	if stores.InMemory() {
		log.Warn("worker running on in-memory stores, it sees no data from the API")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ИНИЦИАЛИЗАЦИЯ EVENT BUS И ОБРАБОТЧИКОВ
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

	if _, err := bootstrap.WireNotifications(eventBus, stores, appLog); err != nil {
		return fmt.Errorf("failed to register event handlers: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. РЕГИСТРАЦИЯ ЗАДАЧ
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.NewScheduler(scheduler.SchedulerConfig{
		Logger:         log,
		Timezone:       cfg.App.Location,
		TickInterval:   cfg.Scheduler.TickInterval,
		MaxHistorySize: 1000,
		EnableMetrics:  true,
	})
	sched.OnJobError(func(jobName string, err error) {
		log.Error("job failed", "job", jobName, "error", err)
	})

	if err := registerJobs(sched, cfg, stores, eventBus, log); err != nil {
		return err
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ЗАПУСК ПЛАНИРОВЩИКА
	// ─────────────────────────────────────────────────────────────────────────
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	for _, info := range sched.ListJobs() {
		log.Info("job scheduled", "job", info.Name, "schedule", info.Schedule, "next_run", info.NextRun)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
	}

	log.Info("stopping scheduler...", "timeout", cfg.App.ShutdownTimeout.String())

	stopped := make(chan error, 1)
	go func() { stopped <- sched.Stop() }()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	select {
	case err := <-stopped:
		if err != nil {
			log.Error("failed to stop scheduler gracefully", "error", err)
		}
	case <-shutdownCtx.Done():
		log.Warn("scheduler did not stop in time, running jobs abandoned")
	}

	m := sched.GetMetrics().Snapshot()
	log.Info("shutdown completed",
		"total_runs", m.TotalExecutions,
		"failed_runs", m.TotalFailures,
	)
	return nil
}

// registerJobs регистрирует периодические задачи согласно конфигурации.
func registerJobs(sched *scheduler.Scheduler, cfg *config.Config, stores *bootstrap.Stores, bus bootstrap.EventBus, log *slog.Logger) error {
	if cfg.Features.Enabled(config.FeatureSwapExpirySweep) {
		schedule, err := scheduler.ParseCron(cfg.Swap.SweepCron, cfg.App.Location)
		if err != nil {
			return fmt.Errorf("swap sweep schedule: %w", err)
		}

		expirer := command.NewExpireSwapRequestsHandler(stores.Requests, bus, stores.Locker, nil)
		job := jobs.NewExpireSwapRequestsJob(expirer, jobs.ExpireSwapRequestsConfig{
			TTL:       cfg.Swap.RequestTTL,
			BatchSize: cfg.Swap.SweepBatchSize,
			Timeout:   cfg.Scheduler.JobTimeout,
		}, log)
		if err := sched.Register(job, schedule); err != nil {
			return fmt.Errorf("register %s: %w", job.Name(), err)
		}
	} else {
		log.Info("swap expiry sweep disabled by feature flag")
	}

	schedule, err := scheduler.ParseCron(cfg.Scheduler.PurgeCron, cfg.App.Location)
	if err != nil {
		return fmt.Errorf("notification purge schedule: %w", err)
	}
	purge := jobs.NewPurgeReadNotificationsJob(stores.Notifications, nil, cfg.Scheduler.NotificationRetention, log)
	if err := sched.Register(purge, schedule); err != nil {
		return fmt.Errorf("register %s: %w", purge.Name(), err)
	}

	return nil
}

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *logger.Logger {
	log := bootstrap.NewLogger(cfg).With(logger.Component("worker"))
	slog.SetDefault(log.Slog())
	return log
}
