package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"carparts/internal/config"
	"carparts/internal/db"
	"carparts/internal/logger"
	"carparts/internal/model"
	"carparts/internal/repository"
	"carparts/internal/sanitize"
	"carparts/internal/service"
	"carparts/internal/session"
)

var (
	partsFile string
	skipAdmin bool
)

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Prepare the car parts database",
	Long: `Migrate the schema, create the bootstrap administrator and optionally
import catalog parts from a JSON file.

Examples:
  seed                             # migrate and ensure the admin account
  seed --parts-file parts.json     # also upsert parts by name and car model`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSeed(cmd.Context())
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Only run schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, gormDB, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()
		return migrate(gormDB, log)
	},
}

func init() {
	rootCmd.Flags().StringVar(&partsFile, "parts-file", "", "JSON file with a list of {name, car_model, price, description, image}")
	rootCmd.Flags().BoolVar(&skipAdmin, "skip-admin", false, "Do not create the bootstrap administrator")
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup() (*config.Config, *zap.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: "console", Output: "stderr"})
	if err != nil {
		return nil, nil, nil, err
	}
	gormDB, err := db.Open(cfg.Database, log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	log.Info("connected to database", zap.String("driver", cfg.Database.Driver))
	return cfg, log, gormDB, nil
}

func migrate(gormDB *gorm.DB, log *zap.Logger) error {
	if err := model.Migrate(gormDB); err != nil {
		return err
	}
	log.Info("database migrations completed")
	return nil
}

func runSeed(ctx context.Context) error {
	cfg, log, gormDB, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if err := migrate(gormDB, log); err != nil {
		return err
	}

	store := repository.NewStore(gormDB)
	sanitizer := sanitize.New(log)

	if !skipAdmin {
		// sessions are never opened here; the manager only satisfies the constructor
		sessions := session.NewManager(session.NewMemoryStore(), session.NewTokenSigner(cfg.Session.Secret), cfg.Session.TTL, session.CookieConfig{})
		created, err := service.NewAccountService(store, sessions, sanitizer, log).EnsureAdmin(ctx, cfg.Admin)
		if err != nil {
			return err
		}
		log.Info("admin account checked", zap.String("username", cfg.Admin.Username), zap.Bool("created", created))
	}

	if partsFile == "" {
		return nil
	}

	seeds, err := readSeeds(partsFile)
	if err != nil {
		return err
	}
	parts, err := service.PartsFromSeeds(seeds)
	if err != nil {
		return err
	}

	// images referenced by seed entries are expected to be in place already
	catalog := service.NewCatalogService(store, nil, nil, sanitizer, log)
	created, updated, err := catalog.SeedParts(ctx, parts)
	if err != nil {
		return fmt.Errorf("seed parts: %w", err)
	}
	log.Info("seed completed",
		zap.Int("created", created),
		zap.Int("updated", updated),
		zap.Int("total", created+updated),
	)
	return nil
}

func readSeeds(path string) ([]service.PartSeed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read parts file: %w", err)
	}
	var seeds []service.PartSeed
	if err := json.Unmarshal(raw, &seeds); err != nil {
		return nil, fmt.Errorf("parse parts file: %w", err)
	}
	return seeds, nil
}
