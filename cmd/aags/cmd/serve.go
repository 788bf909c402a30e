package cmd

import (
	"context"
	"log/slog"
	"time"

	"aags-annotator/cmd/aags/globals"
	"aags-annotator/internal/components/telemetry"
	"aags-annotator/internal/service"
	"aags-annotator/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	serveCmd.Flags().String("listen", "", "address to listen on (default from config)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the AAGS list and page annotation over HTTP.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		g := globals.Get(ctx)

		listen, _ := cmd.Flags().GetString("listen")
		if listen == "" {
			listen = g.Config.Listen
		}

		providers, err := telemetry.Setup(ctx, "aags", g.Config.Telemetry)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := providers.Shutdown(shutdownCtx); err != nil {
				slog.Warn("failed to flush telemetry", "err", err)
			}
		}()
		telemetry.InstrumentPerfStats(ctx, g.Tel)

		// warm the cache so the first request does not wait on the scraper
		go func() {
			if _, err := g.List.Load(ctx); err != nil {
				slog.Warn("initial aags list load failed", "err", err)
			}
		}()

		svc := service.NewService(g.List, service.Options{
			Marker:            g.Config.Marker,
			HighlightMentions: g.Config.HighlightMentions,
			Table:             g.Config.Table,
		}, g.Tel)
		return serviceutil.StartHttpServer(ctx, listen, svc.Handler())
	},
}
