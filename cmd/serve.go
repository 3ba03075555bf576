package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/koscakluka/ema-callbot/internal/config"
	"github.com/koscakluka/ema-callbot/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook and media stream server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.cfg.Validate(config.RequireLLM, config.RequireSpeech); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	manager, err := a.newManager(ctx)
	if err != nil {
		return err
	}

	handler := &server.Handler{
		Sessions:      manager,
		WebsocketPath: a.cfg.Server.WebsocketPath,
		PublicURL:     a.cfg.Server.PublicURL,
	}

	addr := a.cfg.Server.Addr()
	a.logger.Info("starting server",
		"addr", addr,
		"websocket_path", a.cfg.Server.WebsocketPath,
		"public_url", a.cfg.Server.PublicURL,
		"llm_provider", a.cfg.LLM.Provider,
	)
	return server.Run(ctx, addr, server.NewRouter(handler), manager)
}
