package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"safe-route-service/internal/adapters/repositories"
	"safe-route-service/internal/config"
	"safe-route-service/internal/platform/db"
	"safe-route-service/internal/platform/obs"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// dbtool creates the Postgres schema and loads incident seed data.
func main() {
	_ = godotenv.Load()
	obs.Init(config.Get("LOG_LEVEL", "info"), config.Get("LOG_FORMAT", "console"), os.Stdout)

	if err := run(); err != nil {
		obs.L().Error().Err(err).Msg("dbtool failed")
		os.Exit(1)
	}
}

func run() error {
	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		return errors.New("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	conn, err := db.Open(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer conn.Close()

	seedPath := config.Get("SEED_PATH", "data/seeds/incidents.json")
	return initAndSeed(ctx, conn, seedPath)
}

func initAndSeed(ctx context.Context, conn *sql.DB, seedPath string) error {
	log := obs.L()

	log.Info().Msg("initializing database schema")
	if err := repositories.InitSchema(ctx, conn); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}
	log.Info().Msg("schema ready")

	log.Info().Str("seed_path", seedPath).Msg("seeding database")
	if err := repositories.SeedFromJSON(ctx, conn, seedPath); err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	log.Info().Msg("seeding complete")

	return nil
}
