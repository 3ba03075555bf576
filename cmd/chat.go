package cmd

import (
	"github.com/google/uuid"
	"github.com/koscakluka/ema-callbot/internal/chat"
	"github.com/koscakluka/ema-callbot/internal/config"
	"github.com/spf13/cobra"
)

func newChatCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Talk to the agent in the terminal without a phone line",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.cfg.Validate(config.RequireLLM); err != nil {
				return err
			}

			dialogue, err := app.newDialogue(cmd.Context(), nil)
			if err != nil {
				return err
			}
			return chat.Run(cmd.Context(), dialogue, "CHAT-"+uuid.NewString(), app.cfg.Dialogue.HistoryLimit, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
