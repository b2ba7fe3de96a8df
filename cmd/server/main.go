package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/service-booking/internal/booking"
	"github.com/iliyamo/service-booking/internal/config"
	"github.com/iliyamo/service-booking/internal/database"
	"github.com/iliyamo/service-booking/internal/handler"
	"github.com/iliyamo/service-booking/internal/logger"
	"github.com/iliyamo/service-booking/internal/middleware"
	"github.com/iliyamo/service-booking/internal/queue"
	"github.com/iliyamo/service-booking/internal/repository"
	"github.com/iliyamo/service-booking/internal/router"
	"github.com/iliyamo/service-booking/internal/service"
	"github.com/iliyamo/service-booking/internal/session"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	health := &handler.HealthHandler{
		Required: map[string]handler.HealthCheck{},
		Optional: map[string]handler.HealthCheck{},
	}

	// Persistence
	var repo booking.Repository
	switch cfg.Persistence {
	case config.PersistenceMySQL:
		db, err := database.Open(ctx, database.Options{
			User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
		})
		if err != nil {
			return err
		}
		defer db.Close()
		if err := database.EnsureSchema(ctx, db); err != nil {
			return err
		}
		repo = repository.NewBookingRepo(db)
		health.Required["mysql"] = pingDB(db)
	default:
		log.Warn().Msg("using in-memory persistence, bookings are lost on restart")
		repo = booking.NewMemoryRepository()
	}

	// Redis: rate limiting, response cache, token revocation
	redisCfg := config.LoadRedisConfig()
	rdb := config.NewRedisClient(redisCfg)
	var revoker session.Revoker
	if rdb != nil {
		defer rdb.Close()
		revoker = session.NewRedisRevoker(rdb, redisCfg.RevocationPrefix)
		health.Optional["redis"] = pingRedis(rdb)
	} else {
		log.Warn().Msg("redis unavailable: rate limiting and caching disabled, revocations kept in memory")
		revoker = session.NewMemoryRevoker()
	}

	// Events
	var events booking.EventPublisher
	if cfg.EventsEnabled {
		pub := service.NewPublisher(cfg.RabbitURL, log)
		defer pub.Close()
		events = pub
	}
	if cfg.AuditConsumerEnabled {
		consumer := queue.NewAuditConsumer(cfg.RabbitURL, queue.NewAuditLog(cfg.AuditLogPath), log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("audit consumer stopped")
			}
		}()
	}

	store := booking.NewStore()
	svc := booking.NewService(store, repo, events, log)
	loadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err := svc.Load(loadCtx)
	cancel()
	if err != nil {
		return err
	}

	e := router.New(router.Deps{
		JWTSecret:  cfg.JWTSecret,
		Revoker:    revoker,
		Log:        log,
		RateLimit:  middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log),
		Cache:      middleware.NewRedisCache(config.LoadCacheConfig(), rdb, store),
		Health:     health,
		Bookings:   handler.NewBookingHandler(svc),
		Dashboards: handler.NewDashboardHandler(store),
		Sessions:   handler.NewSessionHandler(revoker),
	})

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Str("persistence", cfg.Persistence).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = e.Shutdown(shutdownCtx)
	if cerr := svc.Close(shutdownCtx); cerr != nil {
		log.Warn().Err(cerr).Msg("pending booking events not delivered")
	}
	return err
}

func pingDB(db *sql.DB) handler.HealthCheck {
	return func(ctx context.Context) error { return db.PingContext(ctx) }
}

func pingRedis(rdb *redis.Client) handler.HealthCheck {
	return func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
}
