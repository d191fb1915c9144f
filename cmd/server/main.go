// Command server runs the marketplace HTTP API.
//
// @title                       Herfa Marketplace API
// @version                     1.0
// @description                 Clients post service requests, crafters bid on them, admins run the back office.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

//go:generate swag init -g main.go -d ./,../../internal/api/handler,../../internal/core -o ../../docs --parseDependency

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	_ "github.com/herfa/marketplace-api/docs"
	"github.com/herfa/marketplace-api/internal/api"
	"github.com/herfa/marketplace-api/internal/api/handler"
	"github.com/herfa/marketplace-api/internal/core/service"
	mongodb "github.com/herfa/marketplace-api/internal/infrastructure/db/mongo"
	redisdb "github.com/herfa/marketplace-api/internal/infrastructure/db/redis"
	"github.com/herfa/marketplace-api/internal/infrastructure/queue"
	"github.com/herfa/marketplace-api/internal/infrastructure/realtime"
	"github.com/herfa/marketplace-api/internal/pkg/config"
	"github.com/herfa/marketplace-api/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "marketplace-api",
	})
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = "dev-secret"
		log.Warn().Msg("JWT_SECRET not set, using an insecure development secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("failed to create indexes")
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer rdb.Close()

	log.Info().Str("database", cfg.Mongo.Database).Str("redis", cfg.Redis.Addr).Msg("connected to storage")

	// --- Repositories ---
	users := mongodb.NewUserRepository(db)
	requests := mongodb.NewRequestRepository(db)
	proposals := mongodb.NewProposalRepository(db)
	orders := mongodb.NewOrderRepository(db)
	notifications := mongodb.NewNotificationRepository(db)
	plans := mongodb.NewPlanRepository(db)
	subscriptions := mongodb.NewSubscriptionRepository(db)
	transactions := mongodb.NewTransactionRepository(db)
	finances := mongodb.NewFinanceRepository(db)
	settings := mongodb.NewSettingsRepository(db)
	featured := mongodb.NewFeaturedRepository(db)
	files := mongodb.NewFileStore(db)
	idem := redisdb.NewIdempotencyStore(rdb, cfg.Redis.IdempotencyTTL)

	// --- Realtime and notification delivery ---
	bus := redisdb.NewEventBus(rdb, log)
	hub := realtime.NewHub(0)
	defer hub.Close()

	notificationSvc := service.NewNotificationService(notifications, bus, log)
	dispatcher := queue.NewDispatcher(cfg.Notifications.Workers, notificationSvc, log)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	dispatcher.Start(workerCtx)

	// --- Services ---
	ledgerSvc := service.NewLedgerService(transactions, finances, log)
	settingsSvc := service.NewSettingsService(settings, log)

	router := api.NewRouter(api.Deps{
		Log:            log,
		JWTSecret:      cfg.Auth.JWTSecret,
		CORSOrigins:    cfg.CORSOrigins,
		RateLimitRPS:   cfg.HTTP.RateLimitRPS,
		MaxUploadBytes: cfg.HTTP.MaxUploadBytes,

		Auth:          service.NewAuthService(users, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, log),
		Media:         service.NewMediaService(files, cfg.HTTP.MaxUploadBytes, log),
		Requests:      service.NewRequestService(requests, proposals, users, dispatcher, idem, log),
		Proposals:     service.NewProposalService(proposals, requests, users, dispatcher, idem, log),
		Orders:        service.NewOrderService(orders, users, dispatcher, ledgerSvc, settingsSvc, idem, log),
		Notifications: notificationSvc,
		Crafters:      service.NewCrafterService(users),
		Membership:    service.NewMembershipService(plans, subscriptions, users, ledgerSvc, log),
		Featured:      service.NewFeaturedService(featured, users, log),
		Ledger:        ledgerSvc,
		Settings:      settingsSvc,
		Admin:         service.NewAdminService(users, requests, orders, finances, dispatcher, log),

		Realtime: hub,
		HealthChecks: map[string]handler.HealthCheck{
			"mongodb": func(ctx context.Context) error { return pingMongo(ctx, mongoClient) },
			"redis":   func(ctx context.Context) error { return pingRedis(ctx, rdb) },
		},
	})

	// --- Run until a signal arrives ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := router.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return bus.Run(gctx, hub)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		// Streams end first so Shutdown does not wait on open SSE connections.
		hub.Close()
		err := router.Shutdown(shutdownCtx)
		cancelWorkers()
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("server stopped")
}

func pingMongo(ctx context.Context, client *mongo.Client) error {
	return client.Ping(ctx, nil)
}

func pingRedis(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}
