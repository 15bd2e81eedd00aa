package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jspencer/lens/internal/api"
	"github.com/jspencer/lens/internal/pipeline"
	"github.com/jspencer/lens/internal/scheduler"
	"github.com/jspencer/lens/internal/textfile"
)

var serveCmd = &cobra.Command{
	Use:   "serve <file>",
	Short: "Serve a log view over HTTP (REST + SSE)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		opts, err := buildViewOptions(cfg)
		if err != nil {
			return err
		}

		sched := scheduler.New()
		defer sched.Stop()

		raw := textfile.Open(args[0], textfile.Options{
			PollInterval:  cfg.PollInterval(),
			LevelPatterns: cfg.LevelPatterns(),
		}, sched)
		defer raw.Close()

		view := pipeline.Build(raw, opts, sched)
		defer view.Dispose()

		server := api.NewServer(api.ServerConfig{
			Host: cfg.API.Host,
			Port: cfg.API.Port,
		}, api.NewHandlers(view.Source))

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start()
		}()
		fmt.Fprintf(cmd.OutOrStdout(), "serving %s on http://%s\n", args[0], server.Addr())

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case <-stop:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(ctx)
		}
	},
}
