package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/springjumps/springjumps/internal/config"
	"github.com/springjumps/springjumps/internal/prefs"
	"github.com/springjumps/springjumps/internal/storage"
)

var version = "dev"

var (
	noColor   bool
	dryRun    bool
	prefsPath string
)

var rootCmd = &cobra.Command{
	Use:           "springjumps",
	Short:         "Manage SpringJumps preferences",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if !cmd.Flags().Changed("no-color") {
			noColor = detectNoColor()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable coloured output")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "show what would change without saving")
	rootCmd.PersistentFlags().StringVar(&prefsPath, "prefs", "", "preferences JSON file (overrides prefs.path)")

	rootCmd.AddCommand(showCmd, setCmd, resetCmd, exportCmd, importCmd)
	rootCmd.AddCommand(shortcutCmd, historyCmd, watchCmd, serveCmd, configCmd, versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}

// app bundles what a command needs. Close must be called when done.
type app struct {
	cfg     config.Config
	backend prefs.Backend
	prefs   *prefs.Store
	history *storage.Store
}

func setupLogging(level string) {
	logLevel := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn", "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if prefsPath != "" {
		cfg.Prefs.Path = prefsPath
	}
	setupLogging(cfg.Log.Level)

	history, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}

	backend := prefs.NewPlatformBackend(cfg.Prefs.Path)
	store := prefs.Open(ctx, backend,
		prefs.WithRecorder(&storage.Recorder{Store: history, Keep: cfg.History.Keep}),
	)
	return &app{cfg: cfg, backend: backend, prefs: store, history: history}, nil
}

func (a *app) Close() {
	if err := a.history.Close(); err != nil {
		slog.Warn("closing history", "error", err)
	}
}

// commit saves pending changes, or only lists them with --dry-run.
func (a *app) commit(cmd *cobra.Command) error {
	changes := a.prefs.Changes()
	if len(changes) == 0 {
		printStep("No changes")
		return nil
	}
	respring := a.prefs.NeedsRespring()

	if dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "Pending changes (not saved):")
		printChanges(cmd.OutOrStdout(), changes)
		if respring {
			printWarning("Saving would require a respring")
		}
		return nil
	}

	if err := a.prefs.Write(cmd.Context()); err != nil {
		return err
	}
	printSuccess("Saved %d change(s)", len(changes))
	if respring {
		printWarning("Respring SpringBoard for these changes to take effect")
	}
	return nil
}

// withApp opens the app, runs fn, and closes it.
func withApp(cmd *cobra.Command, fn func(a *app) error) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
