package cli

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vpnda/bling-margin/pkg/server"
)

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API used by the web frontend",
		RunE: withApp(func(ctx context.Context, a *app) error {
			if !verbose {
				gin.SetMode(gin.ReleaseMode)
			}
			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.NewServer(a.syncer, a.tokens, a.db, server.Options{
				SettingsURL:   a.cfg.Server.SettingsURL,
				SecureCookies: strings.HasPrefix(a.cfg.Bling.RedirectURI, "https://"),
			})
			log.Info().Str("addr", addr).Msg("Starting HTTP server")
			return srv.Run(ctx, addr)
		}),
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	return cmd
}
