package cmd

import (
	"github.com/bnema/ticketwatch/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	return newRootCmdWithApp(newApp(viper.New()))
}

func newRootCmdWithApp(app *app) *cobra.Command {
	var envFile string

	rootCmd := &cobra.Command{
		Use:           "ticketwatch",
		Short:         "Watch a GLPI helpdesk and announce new tickets in Matrix",
		Long:          "ticketwatch polls the GLPI REST API on a fixed interval and posts one Matrix message per ticket that was not present in the previous poll.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if envFile == "" {
				return nil
			}
			return config.LoadDotEnv(envFile)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default $XDG_CONFIG_HOME/ticketwatch/config.toml)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-format", "text", "log format: text or json")
	flags.StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	app.bindFlag(config.KeyConfigFile, flags.Lookup("config"))
	app.bindFlag(config.KeyLogLevel, flags.Lookup("log-level"))
	app.bindFlag(config.KeyLogFormat, flags.Lookup("log-format"))

	rootCmd.AddCommand(
		newVersionCmd(),
		newWatchCmd(app),
		newTicketsCmd(app),
		newSessionCmd(app),
		newNotifyCmd(app),
		newConfigCmd(app),
	)

	return rootCmd
}
