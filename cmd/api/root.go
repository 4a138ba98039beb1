package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lesbonsservices/booking-api/internal/pkg/config"
	"github.com/lesbonsservices/booking-api/pkg/logger"
)

const serviceName = "booking-api"

// Global flags available to all subcommands.
var envFile string

// NewRootCmd creates the root command with the serve and migrate subcommands.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "booking-api",
		Short:        "Booking marketplace authentication API",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file loaded before reading the environment")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

// bootstrap loads the optional dotenv file, reads the configuration and
// initialises the process logger.
func bootstrap(ctx context.Context) (*config.Config, zerolog.Logger, error) {
	if err := loadEnvFile(envFile); err != nil {
		return nil, zerolog.Nop(), err
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, zerolog.Nop(), err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: serviceName,
		Version: version,
	})
	return cfg, log, nil
}

// loadEnvFile is a no-op when path is empty or the file does not exist.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
