package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog/log"

	"facturaia/internal/config"
	"facturaia/internal/logger"
)

const usage = "Usage: migrate [up|down|steps N|version]"

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}
	if err := run(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Setup(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		return err
	}

	source := os.Getenv("FACTURAIA_MIGRATIONS")
	if source == "" {
		source = "file://db/migrations"
	}
	m, err := migrate.New(source, cfg.DB.DSN())
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	switch args[0] {
	case "up":
		if err := ignoreNoChange(m.Up()); err != nil {
			return fmt.Errorf("migration up failed: %w", err)
		}
		log.Info().Msg("migrations applied")

	case "down":
		if err := ignoreNoChange(m.Down()); err != nil {
			return fmt.Errorf("migration down failed: %w", err)
		}
		log.Info().Msg("migrations reverted")

	case "steps":
		if len(args) < 2 {
			return errors.New("steps requires a number argument")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid steps argument: %w", err)
		}
		if err := ignoreNoChange(m.Steps(n)); err != nil {
			return fmt.Errorf("migration steps failed: %w", err)
		}
		log.Info().Int("steps", n).Msg("migration steps applied")

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			if errors.Is(err, migrate.ErrNilVersion) {
				fmt.Println("version: none")
				return nil
			}
			return fmt.Errorf("failed to get version: %w", err)
		}
		fmt.Printf("version: %d, dirty: %v\n", version, dirty)

	default:
		return fmt.Errorf("unknown command %q; %s", args[0], usage)
	}
	return nil
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}
