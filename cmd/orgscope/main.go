// Command orgscope inspects hierarchy paths, access scopes and analytics
// from an operator shell, using the same configuration as the service.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lumigente/lumigente-backend/internal/app"
	"github.com/lumigente/lumigente-backend/internal/hierarchy/events"
	"github.com/lumigente/lumigente-backend/pkg/config"
	"github.com/lumigente/lumigente-backend/pkg/database"
	"github.com/lumigente/lumigente-backend/pkg/logger"
)

const commandName = "orgscope"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           commandName,
		Short:         "Organizational scope tooling",
		Long:          `Resolve hierarchy paths and access scopes, preview dashboards and resync cached paths.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newPathCmd(),
		newLevelCmd(),
		newScopeCmd(),
		newDashboardCmd(),
		newSyncAllCmd(),
		newTokenCmd(),
	)
	return root
}

// env is an open database with wired services
type env struct {
	cfg *config.Config
	db  *database.DB
	svc *app.Services
	log *logger.Logger
}

func (e *env) Close() {
	e.db.Close()
}

// connect loads configuration and wires services without RabbitMQ
func connect() (*env, error) {
	cfg, err := config.Load(commandName)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	// stdout carries the JSON result
	log := logger.NewWithWriter(commandName, zerolog.ConsoleWriter{Out: os.Stderr}, zerolog.InfoLevel)

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	return &env{
		cfg: cfg,
		db:  db,
		svc: app.Build(cfg, db, events.NewWithSender(nil, log), nil, log),
		log: log,
	}, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
