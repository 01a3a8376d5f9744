package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/jonathan/hiring-agent/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve provider and workspace webhooks",
	Long:  `Start an HTTP server that applies e-signature, background check, workspace and form webhooks as they arrive.`,
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (defaults to listen_addr from the config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, appOptions{}, func(ctx context.Context, a *app) error {
		if a.cfg.Secrets.WebhookToken == "" {
			return errors.New("WEBHOOK_TOKEN environment variable is required")
		}
		return a.server().Start(ctx)
	})
}

func (a *app) server() *server.Server {
	addr := a.cfg.ListenAddr
	if serveAddr != "" {
		addr = serveAddr
	}
	return server.New(server.Config{
		Addr:         addr,
		WebhookToken: a.cfg.Secrets.WebhookToken,
	}, a.dispatcher(), a.db, a.logger.With("component", "server"))
}
