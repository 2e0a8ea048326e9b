package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roomly/internal/api"
	"roomly/internal/config"
	"roomly/internal/database"
	"roomly/internal/domain"
	"roomly/internal/events"
	"roomly/internal/export"
	"roomly/internal/logging"
	"roomly/internal/metrics"
	"roomly/internal/models"
	"roomly/internal/notify"
	"roomly/internal/repository"
	"roomly/internal/service"
	"roomly/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stateRepo := initStateRepository(ctx, cfg, &logger)
	notifier := initNotifier(cfg, &logger)

	notifyWorker := worker.NewNotifyWorker(db, notifier, worker.RetryPolicy{
		MaxRetries:    cfg.Telegram.MaxRetries,
		InitialDelay:  5 * time.Second,
		MaxDelay:      5 * time.Minute,
		BackoffFactor: 2,
	}, &logger)
	go notifyWorker.Run(ctx)

	eventBus := newEventBus(&logger)

	reservations := service.NewReservationService(db, eventBus, notifyWorker, &logger)
	users := service.NewUserService(db, eventBus, &logger)
	posts := service.NewPostService(db, &logger)
	state := service.NewStateService(stateRepo, &logger)
	exporter := export.NewExporter(db, cfg.Rooms, cfg.Exports.Path, &logger)

	if cfg.Backup.Enabled {
		backup := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backup.Start(ctx)
	}

	startMetrics(ctx, cfg, &logger)

	httpServer := api.NewHTTPServer(cfg, reservations, users, posts, state, exporter, &logger)
	return startServer(ctx, httpServer, &logger)
}

// newEventBus wires an audit log subscriber for every domain event.
func newEventBus(logger *zerolog.Logger) *events.EventBus {
	bus := events.NewEventBus()
	audit := func(event *events.Event) error {
		logger.Info().
			Str("event", event.Type).
			RawJSON("payload", event.Payload).
			Msg("domain event")
		return nil
	}
	for _, eventType := range []string{
		events.EventReservationCreated,
		events.EventReservationUpdated,
		events.EventReservationDeleted,
		events.EventUserRegistered,
	} {
		bus.Subscribe(eventType, audit)
	}
	return bus
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "server-main").Logger()

	return cfg, logger, closer, nil
}

// initStateRepository prefers redis with in-memory failover; without redis
// the in-memory repository serves alone.
func initStateRepository(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) domain.StateRepository {
	memory := repository.NewMemoryStateRepository()
	if !cfg.Redis.Enabled || cfg.Redis.Address == "" {
		return memory
	}

	client := repository.NewRedisClient(cfg.Redis)
	if _, err := client.Ping(ctx).Result(); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, using in-memory state")
		_ = client.Close()
		return memory
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	redisRepo := repository.NewRedisStateRepository(client, models.SelectionTTL)
	return repository.NewFailoverStateRepository(redisRepo, memory, logger)
}

func initNotifier(cfg *config.Config, logger *zerolog.Logger) domain.Notifier {
	if !cfg.Telegram.Enabled {
		return notify.NopNotifier{}
	}
	notifier, err := notify.NewTelegramNotifier(cfg.Telegram, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, notifications disabled")
		return notify.NopNotifier{}
	}
	return notifier
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func startServer(ctx context.Context, httpServer *api.HTTPServer, logger *zerolog.Logger) error {
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpServer.Shutdown(shutdownCtx)
	logger.Info().Msg("server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
