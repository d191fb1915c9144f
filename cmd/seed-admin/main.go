// Command seed-admin creates the first super admin so the back office can be
// reached on a fresh database. It is safe to run repeatedly.
package main

import (
	"context"
	"errors"
	"time"

	"github.com/herfa/marketplace-api/internal/core/domain"
	"github.com/herfa/marketplace-api/internal/core/ports"
	"github.com/herfa/marketplace-api/internal/core/service"
	mongodb "github.com/herfa/marketplace-api/internal/infrastructure/db/mongo"
	"github.com/herfa/marketplace-api/internal/pkg/config"
	"github.com/herfa/marketplace-api/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: true, Service: "seed-admin"})

	if cfg.Seed.AdminEmail == "" || cfg.Seed.AdminPassword == "" {
		log.Fatal().Msg("SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("failed to create indexes")
	}

	// The token secret is irrelevant here: no token is issued.
	auth := service.NewAuthService(mongodb.NewUserRepository(db), cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, log)
	admin, err := auth.RegisterAdmin(ctx, domain.SystemActor(), ports.AdminInput{
		Email:    cfg.Seed.AdminEmail,
		Password: cfg.Seed.AdminPassword,
		Name:     cfg.Seed.AdminName,
		Role:     domain.AdminRoleSuperAdmin,
	})
	switch {
	case errors.Is(err, domain.ErrUserExists):
		log.Info().Str("email", cfg.Seed.AdminEmail).Msg("admin already exists, nothing to do")
	case err != nil:
		log.Fatal().Err(err).Msg("failed to create admin")
	default:
		log.Info().Str("id", admin.ID).Str("email", admin.Email).Msg("super admin created")
	}
}
