package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sakif/tasklist/internal/config"
	"github.com/sakif/tasklist/internal/service"
	"github.com/sakif/tasklist/internal/storage"
)

// CLI holds the root command and the state shared by its subcommands.
type CLI struct {
	rootCmd *cobra.Command
	out     io.Writer
	errOut  io.Writer
	getenv  func(string) string

	// Persistent flags; they override the environment when set.
	driver      string
	dbPath      string
	postgresDSN string
	logLevel    string

	cfg    config.Config
	logger *slog.Logger
}

// NewCLI builds the command tree. getenv is os.Getenv in production and a
// map lookup in tests.
func NewCLI(out, errOut io.Writer, getenv func(string) string) *CLI {
	cli := &CLI{out: out, errOut: errOut, getenv: getenv}
	cli.createRootCommand()
	cli.addCommands()
	return cli
}

func (cli *CLI) createRootCommand() {
	cli.rootCmd = &cobra.Command{
		Use:   "tasklist",
		Short: "Manage the to-do list from the command line",
		Long: `tasklist reads and edits the same item store as the web server.

Configuration sources (in order of precedence):
1. Command line flags (--driver, --db, --dsn, --log-level)
2. Environment variables (STORAGE_DRIVER, DB_PATH, POSTGRES_DSN, LOG_LEVEL)
3. Defaults (sqlite at data/tasklist.db)`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: cli.loadConfig,
	}
	cli.rootCmd.SetOut(cli.out)
	cli.rootCmd.SetErr(cli.errOut)

	flags := cli.rootCmd.PersistentFlags()
	flags.StringVar(&cli.driver, "driver", "", "Storage driver: sqlite|postgres|memory")
	flags.StringVarP(&cli.dbPath, "db", "d", "", "SQLite database file")
	flags.StringVar(&cli.postgresDSN, "dsn", "", "PostgreSQL connection string")
	flags.StringVar(&cli.logLevel, "log-level", "", "Log level: debug|info|warn|error")
}

func (cli *CLI) addCommands() {
	cli.rootCmd.AddCommand(
		cli.newListCmd(),
		cli.newAddCmd(),
		cli.newUpdateCmd(),
		cli.newDeleteCmd(),
		cli.newExportCmd(),
	)
}

// Execute runs the command line args.
func (cli *CLI) Execute(ctx context.Context, args []string) error {
	cli.rootCmd.SetArgs(args)
	return cli.rootCmd.ExecuteContext(ctx)
}

// loadConfig merges environment and flags before any subcommand runs.
func (cli *CLI) loadConfig(cmd *cobra.Command, _ []string) error {
	env := cli.getenv
	overrides := map[string]string{
		"STORAGE_DRIVER": cli.driver,
		"DB_PATH":        cli.dbPath,
		"POSTGRES_DSN":   cli.postgresDSN,
		"LOG_LEVEL":      cli.logLevel,
	}
	cfg, err := config.LoadFrom(func(key string) string {
		if v := overrides[key]; v != "" {
			return v
		}
		return env(key)
	})
	if err != nil {
		return err
	}
	// Keep stderr quiet unless asked; the server default of info would log
	// every store open.
	if cli.logLevel == "" && env("LOG_LEVEL") == "" {
		cfg.LogLevel = slog.LevelWarn
	}

	cli.cfg = cfg
	cli.logger = cfg.NewLogger(cli.errOut)
	return nil
}

// withService opens the configured store for the duration of fn.
func (cli *CLI) withService(ctx context.Context, fn func(*service.ItemService) error) error {
	store, err := storage.Open(ctx, cli.cfg.Storage, cli.logger)
	if err != nil {
		return fmt.Errorf("opening item store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			cli.logger.Error("closing item store", slog.String("error", err.Error()))
		}
	}()

	return fn(service.NewItemService(store, nil, cli.logger))
}
