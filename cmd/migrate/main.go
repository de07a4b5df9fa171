package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/mnldiecast/storefront-backend/pkg/config"
	"github.com/mnldiecast/storefront-backend/pkg/db"
	"github.com/mnldiecast/storefront-backend/pkg/logger"
	"github.com/mnldiecast/storefront-backend/pkg/migrate"
)

func main() {
	cmd := flag.String("cmd", "", "goose command: up | down | status | version | up-to | down-to | create | validate")
	dir := flag.String("dir", migrate.DefaultDir, "migrations directory")
	name := flag.String("name", "", "migration name (create)")
	version := flag.String("version", "", "target version (up-to / down-to)")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "storefront-migrate", Level: zerolog.InfoLevel})
	ctx := context.Background()

	if *cmd == "" {
		logg.Error(ctx, "missing -cmd", fmt.Errorf("usage: migrate -cmd <command> [-dir] [-name] [-version]"))
		os.Exit(2)
	}

	// create and validate never touch the database.
	switch *cmd {
	case "create":
		if *name == "" {
			logg.Error(ctx, "create requires -name", fmt.Errorf("missing migration name"))
			os.Exit(2)
		}
		path, err := migrate.CreateSQLMigration(*dir, *name)
		if err != nil {
			logg.Error(ctx, "creating migration failed", err)
			os.Exit(1)
		}
		logg.Info(logg.WithField(ctx, "path", path), "migration created")
		return
	case "validate":
		if err := migrate.ValidateDir(*dir); err != nil {
			logg.Error(ctx, "migration validation failed", err)
			os.Exit(1)
		}
		logg.Info(logg.WithField(ctx, "dir", *dir), "migrations valid")
		return
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "loading config failed", err)
		os.Exit(1)
	}

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "connecting to database failed", err)
		os.Exit(1)
	}
	defer client.Close()

	sqlDB, err := client.DB().DB()
	if err != nil {
		logg.Error(ctx, "extracting sql.DB failed", err)
		os.Exit(1)
	}

	runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	switch *cmd {
	case "up", "down", "status", "version", "redo":
		err = migrate.Run(runCtx, sqlDB, *dir, *cmd)
	case "up-to", "down-to":
		if *version == "" {
			logg.Error(ctx, *cmd+" requires -version", fmt.Errorf("missing target version"))
			os.Exit(2)
		}
		err = migrate.MigrateToVersion(runCtx, sqlDB, *dir, *version)
	default:
		logg.Error(ctx, "unknown command", fmt.Errorf("unsupported -cmd %q", *cmd))
		os.Exit(2)
	}

	if err != nil {
		logg.Error(logg.WithField(ctx, "cmd", *cmd), "migration command failed", err)
		os.Exit(1)
	}
	logg.Info(logg.WithField(ctx, "cmd", *cmd), "migration command completed")
}
