package cli

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/runnerr0/lookback/internal/config"
	"github.com/runnerr0/lookback/internal/observability"
	"github.com/runnerr0/lookback/internal/report"
	"github.com/runnerr0/lookback/internal/server"
	"github.com/runnerr0/lookback/internal/storage"
)

// Execute implements the go-flags Commander interface for ServeCommand.
func (c *ServeCommand) Execute(args []string) error {
	return withStore(c.globals, func(cfg *config.Config, store *storage.SQLiteStore, _ *sql.DB) error {
		logger, err := newLogger(cfg, c.globals)
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return c.executeWithStore(ctx, store, cfg, logger)
	})
}

// executeWithStore serves the API over store until ctx is done.
func (c *ServeCommand) executeWithStore(ctx context.Context, store *storage.SQLiteStore, cfg *config.Config, logger *zap.Logger) error {
	sc := cfg.Server
	if c.Host != "" {
		sc.Host = c.Host
	}
	if c.Port != 0 {
		sc.Port = c.Port
	}

	metrics := observability.NewCollector("lookback")
	engine := report.NewEngine(store, logger, metrics)
	srv := server.New(sc, engine, store, metrics, logger, c.version)

	logger.Info("lookback serving",
		zap.String("version", c.version),
		zap.String("addr", srv.Addr()),
		zap.String("default_owner", sc.DefaultOwner),
	)
	return srv.ListenAndServe(ctx)
}
