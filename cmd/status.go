package cmd

import (
	"fmt"

	"github.com/koscakluka/ema-callbot/internal/config"
	"github.com/spf13/cobra"
)

func newStatusCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <call-sid>",
		Short: "Show the status of a call",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.cfg.Validate(config.RequireTwilio); err != nil {
				return err
			}

			client, err := app.newTwilioClient()
			if err != nil {
				return err
			}
			status, err := client.CallStatus(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("fetch status of %s: %w", args[0], err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "call_sid: %s\nstatus: %s\nterminal: %t\n", args[0], status, status.Terminal())
			return err
		},
	}
}
