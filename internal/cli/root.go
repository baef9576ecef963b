package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"expenses/internal/config"
	applog "expenses/internal/log"
	"expenses/internal/services"

	"github.com/spf13/cobra"
)

// app carries state shared by every command of one invocation.
type app struct {
	in     io.Reader
	dbPath string
	cfg    *config.Config
	logger *applog.Logger
}

// Execute runs the expenses command line and exits non-zero on failure.
func Execute() {
	LoadEnvFile()
	root := NewRootCommand(os.Stdin)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCommand builds the command tree. Interactive input is read from in.
func NewRootCommand(in io.Reader) *cobra.Command {
	a := &app{in: in}

	rootCmd := &cobra.Command{
		Use:   "expenses",
		Short: "Personal expense and income ledger",
		Long: `Record expenses and income into a local SQLite ledger and view
monthly summaries. Without a subcommand an interactive menu is started.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		RunE:              a.runMenu,
	}
	rootCmd.PersistentFlags().StringVar(&a.dbPath, "db", "", "ledger database path (overrides LEDGER_DB_PATH)")

	rootCmd.AddCommand(a.reportCmd())
	rootCmd.AddCommand(a.undoCmd())
	rootCmd.AddCommand(a.adminCmd())
	return rootCmd
}

func (a *app) setup(_ *cobra.Command, _ []string) error {
	cfg, err := LoadAndValidateConfig(slog.Default(), a.dbPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = SetupLogger(cfg)
	return nil
}

// withTracker opens the ledger for the duration of fn.
func (a *app) withTracker(ctx context.Context, fn func(*services.Tracker) error) error {
	tracker, err := OpenTracker(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer tracker.Close()

	stop := HandleInterrupt(a.logger, func() { _ = tracker.Close() })
	defer stop()

	a.logger.DebugContext(ctx, "Session started",
		applog.FieldOperation, applog.OpStartup,
		applog.FieldBackend, a.cfg.DataBackend,
		applog.FieldDBPath, a.cfg.LedgerDBPath)
	return fn(tracker)
}

func (a *app) runMenu(cmd *cobra.Command, _ []string) error {
	return a.withTracker(cmd.Context(), func(t *services.Tracker) error {
		return NewMenu(t, a.in, cmd.OutOrStdout()).Run(cmd.Context())
	})
}
