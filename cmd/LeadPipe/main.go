// Command LeadPipe discovers companies in a target industry, enriches them
// with contact data from their websites, and drives a fixed three-step
// email drip sequence per lead.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/BTreeMap/LeadPipe/internal/config"
	"github.com/BTreeMap/LeadPipe/internal/store"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initializeLogger sets up structured logging at the configured level.
func initializeLogger(cfg *config.Config) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
}

// openStore constructs the store backend selected by configuration.
func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.DBDriver {
	case "postgres":
		return store.NewPostgresStore(store.WithDSN(cfg.DBDSN))
	case "sqlite3", "":
		return store.NewSQLiteStore(store.WithDSN(cfg.DBDSN))
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (want sqlite3 or postgres)", cfg.DBDriver)
	}
}
