// Package cli provides the Cobra-based CLI for stockctl.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"stockctl/config"
	"stockctl/domain"
	"stockctl/inventory"
	"stockctl/logging"
	"stockctl/store"
	"stockctl/util"
)

// App owns the command tree and the resources built from configuration.
type App struct {
	root    *cobra.Command
	v       *viper.Viper
	manager *inventory.Manager
	log     *slog.Logger
	in      *bufio.Reader
	closers []io.Closer
}

// Option configures an App.
type Option func(*App)

// WithManager skips configuration and uses m for every command.
func WithManager(m *inventory.Manager) Option {
	return func(a *App) { a.manager = m }
}

// WithLogger sets the logger used for failures outside the manager.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) { a.log = l }
}

// New builds the command tree.
func New(opts ...Option) *App {
	a := &App{v: config.New(), log: logging.Discard()}
	for _, opt := range opts {
		opt(a)
	}
	a.root = a.newRootCmd()
	return a
}

// Root exposes the cobra root, mainly for tests.
func (a *App) Root() *cobra.Command { return a.root }

func (a *App) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "stockctl",
		Short:         "Inventory and sales management",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})
	if err := config.RegisterFlags(root.PersistentFlags(), a.v); err != nil {
		panic(err)
	}

	root.AddCommand(
		a.initCmd(),
		a.listCmd(),
		a.addCmd(),
		a.updateCmd(),
		a.deleteCmd(),
		a.sellCmd(),
		a.dashboardCmd(),
		a.exportCmd(),
		a.exportSalesCmd(),
		a.shellCmd(),
	)
	return root
}

// setup builds logger, store and manager once; tests inject a manager instead.
func (a *App) setup(cmd *cobra.Command) error {
	if a.manager != nil {
		return nil
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}

	log, logCloser := logging.New(logging.Options{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		Console:    a.root.ErrOrStderr(),
	})
	if cmd.Name() == "shell" {
		log = log.With("session_id", util.GenerateUUID())
	}
	a.log = log
	a.closers = append(a.closers, logCloser)

	opts := cfg.StoreOptions()
	opts.Logger = log
	st, err := store.NewStore(opts)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, st)

	a.manager = inventory.New(st,
		inventory.WithDefaultVATRate(cfg.VATDefault),
		inventory.WithLogger(log),
	)
	if err := a.manager.EnsureSchema(cmd.Context()); err != nil {
		return err
	}
	log.Debug("app started", "store", cfg.Store, "db", cfg.DBPath)
	return nil
}

// input is shared by the shell and confirmation prompts so neither loses
// buffered bytes to the other.
func (a *App) input() *bufio.Reader {
	if a.in == nil {
		a.in = bufio.NewReader(a.root.InOrStdin())
	}
	return a.in
}

// Execute runs the command line in args and reports any failure on stderr.
// Flags set by an earlier call on the same App are cleared first.
func (a *App) Execute(ctx context.Context, args []string) error {
	if target, _, err := a.root.Find(args); err == nil {
		resetFlags(target)
	}
	a.root.SetArgs(args)
	err := a.root.ExecuteContext(ctx)
	if err != nil {
		a.report(err)
	}
	return err
}

// report prints err for the user. Anything outside the domain error kinds
// is also logged at error level.
func (a *App) report(err error) {
	if !domain.IsDomainError(err) && !isUsageError(err) {
		a.log.Error("unexpected error", "error", err)
	}
	fmt.Fprintf(a.root.ErrOrStderr(), "error: %v\n", err)
}

// Close releases the store and the log file.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Execute is the binary entry point.
func Execute(ctx context.Context, args []string) error {
	a := New()
	defer a.Close()
	return a.Execute(ctx, args)
}

type usageError struct{ error }

func (e usageError) Unwrap() error { return e.error }

func isUsageError(err error) bool {
	var ue usageError
	return errors.As(err, &ue)
}
