// Package bootstrap builds the shared runtime graph (stores, event bus,
// scoring) from config for the api, worker and swapctl binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/skillswap/skillswap-hub/config"
	"github.com/skillswap/skillswap-hub/internal/application/command"
	"github.com/skillswap/skillswap-hub/internal/application/eventhandler"
	"github.com/skillswap/skillswap-hub/internal/domain/matching"
	"github.com/skillswap/skillswap-hub/internal/domain/notification"
	"github.com/skillswap/skillswap-hub/internal/domain/shared"
	"github.com/skillswap/skillswap-hub/internal/domain/skill"
	"github.com/skillswap/skillswap-hub/internal/domain/swap"
	"github.com/skillswap/skillswap-hub/internal/infrastructure/messaging"
	"github.com/skillswap/skillswap-hub/internal/infrastructure/persistence/memory"
	"github.com/skillswap/skillswap-hub/internal/infrastructure/persistence/postgres"
	redisstore "github.com/skillswap/skillswap-hub/internal/infrastructure/persistence/redis"
	"github.com/skillswap/skillswap-hub/internal/infrastructure/service"
	"github.com/skillswap/skillswap-hub/internal/interface/http/handlers"
	"github.com/skillswap/skillswap-hub/pkg/logger"
)

// Stores groups the repositories every binary works with.
type Stores struct {
	Skills        skill.Repository
	Requests      swap.RequestRepository
	Conversations swap.ConversationRepository
	Notifications notification.Repository
	Profiles      matching.ProfileRepository

	// DB is nil in memory mode.
	DB *postgres.Connection

	// Cache is nil when Redis is disabled or unreachable.
	Cache *redisstore.Cache

	// Locker serialises responses to one request across instances.
	Locker command.Locker

	closers []func()
}

// InMemory reports whether the stores are process-local.
func (s *Stores) InMemory() bool {
	return s.DB == nil
}

// Close releases connections in reverse order of opening.
func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// PostgresConfig maps application config onto the pool settings.
func PostgresConfig(c config.DatabaseConfig) postgres.Config {
	pc := postgres.DefaultConfig()
	pc.URL = c.URL
	if c.MaxConns > 0 {
		pc.MaxConns = int32(c.MaxConns)
	}
	if c.MinConns >= 0 {
		pc.MinConns = int32(c.MinConns)
	}
	if c.ConnMaxLifetime > 0 {
		pc.MaxConnLifetime = c.ConnMaxLifetime
	}
	if c.ConnMaxIdleTime > 0 {
		pc.MaxConnIdleTime = c.ConnMaxIdleTime
	}
	if c.ConnectTimeout > 0 {
		pc.ConnectTimeout = c.ConnectTimeout
	}
	return pc
}

// RedisConfig maps application config onto the client settings.
func RedisConfig(c config.RedisConfig) redisstore.Config {
	rc := redisstore.DefaultConfig()
	rc.Host = c.Host
	rc.Port = c.Port
	rc.Password = c.Password
	rc.DB = c.DB
	if c.PoolSize > 0 {
		rc.PoolSize = c.PoolSize
	}
	rc.MinIdleConns = c.MinIdleConns
	if c.DialTimeout > 0 {
		rc.DialTimeout = c.DialTimeout
	}
	if c.ReadTimeout > 0 {
		rc.ReadTimeout = c.ReadTimeout
	}
	if c.WriteTimeout > 0 {
		rc.WriteTimeout = c.WriteTimeout
	}
	return rc
}

// OpenStores connects to PostgreSQL and, when enabled, Redis. Without a
// DATABASE_URL in development the stores are in-memory.
func OpenStores(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Stores, error) {
	if log == nil {
		log = slog.Default()
	}
	s := &Stores{}

	if cfg.Database.URL == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("DATABASE_URL is required in production")
		}
		log.Warn("DATABASE_URL not set, using in-memory stores")
		skills := memory.NewSkillRepository()
		s.Skills = skills
		s.Profiles = memory.NewProfileRepository(skills)
		s.Requests = memory.NewSwapRequestRepository()
		s.Conversations = memory.NewConversationRepository()
		s.Notifications = memory.NewNotificationRepository()
	} else {
		conn, err := postgres.NewConnection(ctx, PostgresConfig(cfg.Database))
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		s.DB = conn
		s.closers = append(s.closers, conn.Close)

		if cfg.Database.AutoMigrate {
			applied, err := postgres.NewMigrator(conn).Migrate(ctx)
			if err != nil {
				s.Close()
				return nil, fmt.Errorf("run migrations: %w", err)
			}
			log.Info("migrations applied", "versions", applied)
		}

		s.Skills = postgres.NewSkillRepository(conn)
		s.Profiles = postgres.NewProfileRepository(conn)
		s.Requests = postgres.NewSwapRequestRepository(conn)
		s.Conversations = postgres.NewConversationRepository(conn)
		s.Notifications = postgres.NewNotificationRepository(conn)
	}

	s.Locker = command.NoopLocker{}

	if cfg.Redis.Disabled {
		return s, nil
	}

	cache, err := redisstore.NewCache(RedisConfig(cfg.Redis))
	if err != nil {
		// Redis is an accelerator: the service runs without it.
		log.Warn("redis unavailable, cache and distributed lock disabled", "error", err)
		return s, nil
	}
	s.Cache = cache
	s.closers = append(s.closers, func() { _ = cache.Close() })

	s.Skills = redisstore.NewCachedSkillRepository(s.Skills, cache, log).WithTTL(cfg.Redis.CacheTTL)
	if cfg.Features.Enabled(config.FeatureSwapRedisLock) {
		s.Locker = redisstore.NewLocker(cache.Client(), log)
	}

	return s, nil
}

// EventBus is a bus that must be closed on shutdown.
type EventBus interface {
	shared.EventBus
	Close() error
}

// NewEventBus returns the Redis-relayed bus when Redis is available,
// otherwise a process-local bus.
func NewEventBus(cfg *config.Config, stores *Stores, log *slog.Logger) (EventBus, error) {
	local := messaging.DefaultInMemoryEventBusConfig()
	local.Logger = log
	local.Middlewares = []messaging.Middleware{
		messaging.RecoveryMiddleware(log),
		messaging.LoggingMiddleware(log),
	}

	if stores.Cache == nil {
		return messaging.NewInMemoryEventBus(local), nil
	}

	bus, err := messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
		Client:         redisstore.NewPubSub(stores.Cache.Client(), log),
		ChannelName:    cfg.Redis.EventChannel,
		InstanceID:     cfg.App.InstanceID,
		LocalBusConfig: local,
		Logger:         log,
	})
	if err != nil {
		return nil, fmt.Errorf("redis event bus: %w", err)
	}
	return bus, nil
}

// NewFairnessScorer builds the scorer from scoring config and the optional
// affinity file.
func NewFairnessScorer(cfg config.ScoringConfig) (*skill.Compatibility, *matching.FairnessScorer, error) {
	table, err := service.LoadAffinityTable(cfg.AffinityFile)
	if err != nil {
		return nil, nil, err
	}

	weights := matching.FairnessWeights{
		TimePenaltyMax:    cfg.TimePenaltyMax,
		DemandStepPenalty: cfg.DemandStepPenalty,
		DemandPenaltyCap:  cfg.DemandPenaltyCap,
	}
	if err := weights.Validate(); err != nil {
		return nil, nil, err
	}

	compat := skill.NewCompatibility(table)
	return compat, matching.NewFairnessScorer(compat, weights), nil
}

// NewRanker builds the ranker on top of NewFairnessScorer.
func NewRanker(cfg config.ScoringConfig) (*matching.Ranker, error) {
	compat, scorer, err := NewFairnessScorer(cfg)
	if err != nil {
		return nil, err
	}
	return matching.NewRanker(compat, scorer), nil
}

// NewValidator returns the heuristic validator, or nil when
// self-assessment is switched off.
func NewValidator(flags *config.FeatureFlags) *skill.Validator {
	if flags != nil && !flags.Enabled(config.FeatureSkillHeuristicAssessment) {
		return nil
	}
	return skill.NewValidator(service.NewHeuristicScorer(), nil)
}

// NewHealthChecker registers the database as critical and Redis as optional.
func NewHealthChecker(version string, stores *Stores) *handlers.CompositeHealthChecker {
	hc := handlers.NewCompositeHealthChecker(version)
	if stores.DB != nil {
		hc.AddCheck("database", handlers.NewDatabaseCheck(stores.DB))
	}
	if stores.Cache != nil {
		hc.AddOptionalCheck("redis", handlers.NewCacheCheck(stores.Cache))
	}
	return hc
}

// NewLogger builds the process logger from observability settings.
// Debug mode forces debug level.
func NewLogger(cfg *config.Config) *logger.Logger {
	level := logger.ParseLevel(cfg.Observability.LogLevel)
	if cfg.App.Debug {
		level = logger.LevelDebug
	}
	return logger.New(logger.Options{
		Output: os.Stdout,
		Level:  level,
		Format: cfg.Observability.LogFormat,
	}).With(
		logger.String("app", cfg.App.Name),
		logger.String("env", string(cfg.App.Environment)),
	)
}

// Notifications holds the services behind swap lifecycle side effects.
type Notifications struct {
	Service       *service.NotificationService
	Conversations *service.ConversationService
}

// WireNotifications subscribes the swap event handler to the bus so every
// lifecycle transition published in this process creates notifications.
func WireNotifications(bus shared.EventBus, stores *Stores, log *logger.Logger) (*Notifications, error) {
	n := &Notifications{
		Service: service.NewNotificationService(stores.Notifications, bus, service.NotificationServiceOptions{
			Logger: log.With(logger.Component("notifications")),
		}),
		Conversations: service.NewConversationService(stores.Conversations, bus, log.With(logger.Component("conversations"))),
	}

	h := eventhandler.NewOnSwapRequestEventHandler(n.Service, n.Conversations, log.Slog())
	if err := h.Subscribe(bus); err != nil {
		return nil, fmt.Errorf("subscribe swap events: %w", err)
	}
	return n, nil
}
