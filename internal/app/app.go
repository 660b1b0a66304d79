package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/FocusGate/internal/auth"
	"github.com/utafrali/FocusGate/internal/catalog"
	"github.com/utafrali/FocusGate/internal/config"
	"github.com/utafrali/FocusGate/internal/event"
	handler "github.com/utafrali/FocusGate/internal/handler/http"
	"github.com/utafrali/FocusGate/internal/lock"
	"github.com/utafrali/FocusGate/internal/repository"
	"github.com/utafrali/FocusGate/internal/repository/memory"
	"github.com/utafrali/FocusGate/internal/repository/postgres"
	"github.com/utafrali/FocusGate/internal/service"
	"github.com/utafrali/FocusGate/migrations"
	"github.com/utafrali/FocusGate/pkg/database"
	"github.com/utafrali/FocusGate/pkg/health"
	pkgkafka "github.com/utafrali/FocusGate/pkg/kafka"
	"github.com/utafrali/FocusGate/pkg/middleware"
	"github.com/utafrali/FocusGate/pkg/tracing"
)

const serviceName = "focusgate"

// App wires together all dependencies and runs the FocusGate service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	ledger         *service.Ledger
	tracerShutdown tracing.ShutdownFunc
}

// initTracer is swapped in tests.
var initTracer = tracing.InitTracer

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	tracerShutdown, err := initTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	healthHandler := health.NewHandler()

	store, err := a.initStore(ctx, healthHandler)
	if err != nil {
		a.abort()
		return nil, err
	}

	locker, err := a.initLocker(ctx, healthHandler)
	if err != nil {
		a.abort()
		return nil, err
	}

	events := a.initEvents(ctx, healthHandler)

	// Build the dependency graph.
	ledger := service.NewLedger(store, events, logger)
	cat := catalog.New(nil)
	engine := service.NewEngine(store, cat, locker, ledger, events, logger, cfg.Location())
	a.ledger = ledger

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer)
	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSOrigins

	router := handler.NewRouter(engine, ledger, healthHandler, logger, handler.RouterConfig{
		Validate:           jwtManager.Validate,
		CORS:               cors,
		GenerateRatePerMin: cfg.GenerateRatePerMin,
		GenerateBurst:      cfg.GenerateBurst,
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// initStore opens the configured storage backend.
func (a *App) initStore(ctx context.Context, healthHandler *health.Handler) (repository.Store, error) {
	if a.cfg.StorageDriver == config.StorageMemory {
		a.logger.Warn("using in-memory storage, state is lost on restart")
		return memory.NewStore(), nil
	}

	pgCfg := a.cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, a.logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	a.logger.Info("connected to PostgreSQL",
		slog.String("host", a.cfg.PostgresHost),
		slog.Int("port", a.cfg.PostgresPort),
		slog.String("database", a.cfg.PostgresDB),
	)

	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, serviceName); err != nil {
		a.logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}

	if a.cfg.RunMigrations {
		if err := database.RunMigrations(ctx, pool, migrations.FS, a.logger); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		a.logger.Info("database migrations completed")
	}

	if a.cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(a.cfg.SlowQueryThresholdMs)*time.Millisecond, a.logger)
	}

	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	return postgres.NewStore(pool), nil
}

// initLocker builds the per-user lock, shared through Redis when several
// instances serve the same users.
func (a *App) initLocker(ctx context.Context, healthHandler *health.Handler) (lock.Locker, error) {
	if !a.cfg.NeedsRedis() {
		return lock.NewLocalLocker(), nil
	}

	client, err := database.NewRedisClient(ctx, a.cfg.Redis(), a.logger)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.redis = client
	a.logger.Info("connected to Redis", slog.String("addr", a.cfg.Redis().Addr()))

	healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	return lock.NewRedisLocker(client, a.cfg.RedisLock(), a.logger), nil
}

// initEvents returns the domain event producer. Without Kafka events are
// dropped.
func (a *App) initEvents(ctx context.Context, healthHandler *health.Handler) *event.Producer {
	if !a.cfg.KafkaEnabled {
		return event.NewProducer(nil, a.logger)
	}

	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(a.cfg.KafkaBrokers), a.logger)
	if err := pingKafkaWithRetry(ctx, producer, a.logger); err != nil {
		a.logger.Warn("kafka producer ping failed after retries, continuing in degraded mode",
			slog.String("error", err.Error()),
		)
	} else {
		a.logger.Info("kafka producer initialized", slog.Any("brokers", a.cfg.KafkaBrokers))
	}
	a.producer = producer

	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})
	return event.NewProducer(producer, a.logger)
}

// Run starts the HTTP server and the unlock sweeper, then blocks until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	go a.ledger.RunSweeper(sweepCtx, a.cfg.UnlockSweepInterval)

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		stopSweeper()
		if shutdownErr := a.Shutdown(); shutdownErr != nil {
			a.logger.Error("shutdown after server error", slog.String("error", shutdownErr.Error()))
		}
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush spans of the drained requests)
// 3. Kafka producer, Redis client and PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.shutdownTracer(); err != nil {
		errs = append(errs, err)
	}

	errs = append(errs, a.closeResources()...)

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// abort undoes a partially built App when NewApp fails.
func (a *App) abort() {
	a.closeResources()
	_ = a.shutdownTracer()
}

func (a *App) shutdownTracer() error {
	if a.tracerShutdown == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := a.tracerShutdown(ctx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		return err
	}
	return nil
}

// closeResources releases the connections opened by NewApp.
func (a *App) closeResources() []error {
	var errs []error
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	return errs
}

// pingKafkaWithRetry attempts to ping the Kafka producer with exponential
// backoff (3 attempts, 1s/2s/4s with ±25% jitter).
func pingKafkaWithRetry(ctx context.Context, producer *pkgkafka.Producer, logger *slog.Logger) error {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if lastErr = producer.Ping(ctx); lastErr == nil {
			return nil
		}
		if attempt < 2 {
			base := time.Duration(1<<uint(attempt)) * time.Second
			jitter := time.Duration(float64(base) * 0.25 * (2*rand.Float64() - 1)) // #nosec G404 -- retry jitter
			wait := base + jitter
			logger.Warn("kafka producer ping failed, retrying",
				slog.Int("attempt", attempt+1),
				slog.Int("max_attempts", 3),
				slog.Duration("backoff", wait),
				slog.String("error", lastErr.Error()),
			)
			select {
			case <-ctx.Done():
				return fmt.Errorf("kafka ping: context canceled during retry: %w", ctx.Err())
			case <-time.After(wait):
			}
		}
	}
	return fmt.Errorf("kafka producer ping failed after 3 attempts: %w", lastErr)
}
