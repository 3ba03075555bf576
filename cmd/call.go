package cmd

import (
	"fmt"

	"github.com/koscakluka/ema-callbot/internal/config"
	"github.com/spf13/cobra"
)

func newCallCmd(app *app) *cobra.Command {
	var callbackURL string

	cmd := &cobra.Command{
		Use:   "call <phone-number>",
		Short: "Place an outbound call that connects to the agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			requirements := []config.Requirement{config.RequireTwilio, config.RequireCaller}
			if callbackURL == "" {
				requirements = append(requirements, config.RequirePublicURL)
			}
			if err := app.cfg.Validate(requirements...); err != nil {
				return err
			}
			if callbackURL == "" {
				callbackURL = app.cfg.Server.PublicURL + "/voice"
			}

			client, err := app.newTwilioClient()
			if err != nil {
				return err
			}
			sid, err := client.MakeCall(cmd.Context(), args[0], callbackURL)
			if err != nil {
				return fmt.Errorf("make call to %s: %w", args[0], err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "call_sid: %s\nto: %s\n", sid, args[0])
			return err
		},
	}
	cmd.Flags().StringVar(&callbackURL, "callback-url", "", "voice webhook URL (defaults to PUBLIC_URL/voice)")

	return cmd
}
