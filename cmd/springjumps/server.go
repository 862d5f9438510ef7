package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/springjumps/springjumps/internal/api"
	"github.com/springjumps/springjumps/internal/hostview"
	"github.com/springjumps/springjumps/internal/prefs"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve preferences over a local HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error {
			return runServer(cmd.Context(), a)
		})
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print preferences every time the file changes",
	Long: `Print preferences every time the file changes.

Reads the file the way the host process does. Requires a file backend:
set --prefs or SPRINGJUMPS_PREFS_PATH on macOS.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app) error {
			fb, ok := a.backend.(*prefs.FileBackend)
			if !ok {
				return fmt.Errorf("watch needs a preferences file; set --prefs or SPRINGJUMPS_PREFS_PATH")
			}
			printStep("Watching %s", fb.Path())
			out := cmd.OutOrStdout()
			return prefs.Watch(cmd.Context(), fb.Path(), func(s prefs.Snapshot) {
				fmt.Fprintf(out, "%s\n", colorize(colorBold, time.Now().Format(time.TimeOnly)))
				printStatus(out, prefs.KeyShowPageTitles, "%s", onOff(s.ShowPageTitles))
				printStatus(out, prefs.KeyEnableJumpDock, "%s", onOff(s.JumpDockEnabled))
				printStatus(out, prefs.KeyShortcuts, "%s", prefs.FormatShortcuts(s.Shortcuts))
			})
		})
	},
}

func runServer(ctx context.Context, a *app) error {
	token := a.cfg.Server.Token
	if token == "" {
		token = uuid.NewString()
		printStep("API token: %s", token)
	}

	handler := api.NewAppHandler(api.AppDeps{
		Prefs:     a.prefs,
		History:   a.history,
		Persisted: hostview.New(a.backend),
		Token:     token,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", a.cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("springjumps listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if a.prefs.IsModified() {
		printWarning("Unsaved changes were discarded")
	}
	return err
}
