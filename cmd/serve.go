package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vitrio/glasses-match/internal/clip"
	"github.com/vitrio/glasses-match/internal/config"
	"github.com/vitrio/glasses-match/internal/match"
	"github.com/vitrio/glasses-match/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the matching web server",
	Long: `Start the matching web server.

The server exposes the same pipeline as the match command over HTTP:
POST /api/match with multipart "images" files returns the result document.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides SERVER_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides SERVER_HOST)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if port := mustGetInt(cmd, "port"); port != 0 {
		cfg.Server.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		cfg.Server.Host = host
	}

	matcher := match.New(cfg, clip.New(cfg.Embedding))
	server := web.NewServer(cfg, matcher)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(ctx)
	}
}
