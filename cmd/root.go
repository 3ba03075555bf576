package cmd

import (
	"github.com/koscakluka/ema-callbot/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func Execute() error {
	return newRootCmd().Execute()
}

type rootFlags struct {
	dir        string
	configFile string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	app := &app{}

	rootCmd := &cobra.Command{
		Use:           "callbot",
		Short:         "Telephony sales voice agent",
		Long:          "callbot answers and places Twilio phone calls and runs a sales conversation over them, using Deepgram for speech and an LLM with tools for the dialogue.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(viper.New(), flags.dir, flags.configFile)
			if err != nil {
				return err
			}
			app.configure(cfg, cmd.ErrOrStderr())
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&flags.dir, "dir", ".", "directory holding callbot.toml and .env")
	rootCmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "explicit config file path")

	rootCmd.AddCommand(
		newVersionCmd(),
		newServeCmd(app),
		newCallCmd(app),
		newStatusCmd(app),
		newChatCmd(app),
	)

	return rootCmd
}
