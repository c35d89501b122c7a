// Package server assembles the service: record store clients, the
// aggregation provider, realtime push, scheduled maintenance and the HTTP
// surface.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/dealerpulse/dashboard-engine/internal/config"
	"github.com/dealerpulse/dashboard-engine/internal/handlers"
	"github.com/dealerpulse/dashboard-engine/internal/metrics"
	"github.com/dealerpulse/dashboard-engine/internal/provider"
	"github.com/dealerpulse/dashboard-engine/internal/realtime"
	"github.com/dealerpulse/dashboard-engine/internal/scheduler"
	"github.com/dealerpulse/dashboard-engine/internal/store"
)

// Server is the assembled dashboard engine service.
type Server struct {
	cfg       *config.Config
	logger    *zap.Logger
	http      *http.Server
	realtime  *realtime.Manager
	scheduler *scheduler.Scheduler
	cancel    context.CancelFunc
}

// NewServer wires every component from configuration.
func NewServer(cfg *config.Config, logger *zap.Logger, version string) (*Server, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.Database,
		PoolSize: cfg.Redis.PoolSize,
	})
	redisStore := store.NewRedisStore(redisClient, logger)

	recordStore, notifier, err := selectStore(cfg, logger, redisStore)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	collector := metrics.NewCollector(registry)

	dataProvider := provider.New(recordStore, notifier, collector, logger, provider.Config{
		GoalDeals:         cfg.Dashboard.GoalDealsPerPeriod,
		RefreshInterval:   time.Duration(cfg.Dashboard.RefreshIntervalSeconds) * time.Second,
		DefaultTimePeriod: cfg.Dashboard.DefaultTimePeriod,
		CacheEnabled:      cfg.Dashboard.CacheEnabled,
	})

	realtimeManager := realtime.NewManager(dataProvider, logger)
	cronScheduler := scheduler.New(dataProvider, logger, cfg.Dashboard.NightlyRefreshSchedule)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	handler := handlers.NewHandler(dataProvider, realtimeManager, logger, version)
	handler.RegisterRoutes(router)

	if cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Endpoint, gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	return &Server{
		cfg:       cfg,
		logger:    logger,
		http:      httpServer,
		realtime:  realtimeManager,
		scheduler: cronScheduler,
	}, nil
}

// selectStore picks the record store backend and its change notifier.
func selectStore(cfg *config.Config, logger *zap.Logger, redisStore *store.RedisStore) (store.RecordStore, store.ChangeNotifier, error) {
	var notifier store.ChangeNotifier = redisStore
	if cfg.Kafka.Enabled {
		notifier = store.NewKafkaNotifier(
			cfg.Kafka.Brokers,
			cfg.Kafka.DealEvents,
			cfg.Kafka.ConsumerGroup,
			logger,
		)
	}

	switch cfg.Dashboard.StoreBackend {
	case "redis", "":
		return redisStore, notifier, nil
	case "postgres":
		db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to record store: %w", err)
		}
		return store.NewPostgresStore(db, logger), notifier, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Dashboard.StoreBackend)
	}
}

// Start runs the realtime bridge, the scheduler and the HTTP listener. It
// blocks until the listener exits.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.realtime.Start(ctx)
	if err := s.scheduler.Start(); err != nil {
		cancel()
		return err
	}

	s.logger.Info("HTTP server listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Shutdown stops the listener, subscriptions and scheduled jobs.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")

	if s.cancel != nil {
		s.cancel()
	}
	s.realtime.Stop()
	s.scheduler.Stop()

	return s.http.Shutdown(ctx)
}
