package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/slate/internal/config"
	"github.com/JonMunkholm/slate/internal/core"
	_ "github.com/JonMunkholm/slate/internal/core/profiles" // register upload profiles
	"github.com/JonMunkholm/slate/internal/logging"
	"github.com/JonMunkholm/slate/internal/store/memory"
	"github.com/JonMunkholm/slate/internal/store/postgres"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "slatectl",
		Short:         "Slate maintenance and batch tool",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(importLineupsCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(uploadsCmd())
	rootCmd.AddCommand(resetCmd())

	if err := rootCmd.Execute(); err != nil {
		msg := core.MapError(err)
		fmt.Fprintf(os.Stderr, "Error [%s]: %s\n%v\n", msg.Code, msg.Message, err)
		os.Exit(1)
	}
}

// openService loads configuration from the environment and connects to the
// configured store. The returned func releases the store.
func openService(ctx context.Context) (*core.Service, func(), error) {
	_ = godotenv.Overload()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logging.Setup(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	core.MaxFileSize = cfg.Upload.MaxFileSize
	core.UploadTimeout = cfg.Upload.Timeout

	if cfg.Store.Driver == config.DriverMemory {
		return core.NewService(memory.New(), core.ServiceOptions{}), func() {}, nil
	}

	pg, err := postgres.Open(ctx, postgres.PoolConfig{
		URL:      cfg.Database.URL,
		MaxConns: 4,
	})
	if err != nil {
		return nil, nil, err
	}
	if cfg.Store.EnsureSchema {
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}
	}
	return core.NewService(pg, core.ServiceOptions{}), pg.Close, nil
}
