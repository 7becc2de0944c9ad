package cmd

import (
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"adspark/internal/app"
	"adspark/internal/server"
	"adspark/pkg/config"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the AdSpark API server",
	Long: `Serve the generation pipeline over HTTP: chat, idea enhancement,
scene synthesis, and image generation endpoints for the UI.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "Listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	service, err := app.BuildService(ctx, cfg, slog.Default())
	if err != nil {
		return err
	}
	defer func() {
		if err := service.Close(); err != nil {
			slog.Warn("Failed to close service", "error", err)
		}
	}()

	return server.New(service, slog.Default()).Run(ctx)
}
