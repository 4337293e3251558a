package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const defaultTestMessage = "ticketwatch test message"

func newNotifyCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Send messages to the configured Matrix room",
	}

	var message string
	testCmd := &cobra.Command{
		Use:   "test",
		Short: "Send one message to verify the Matrix settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := app.load(cmd)
			if err != nil {
				return err
			}
			if err := cfg.ValidateMatrix(); err != nil {
				return err
			}
			notifier, err := app.newNotifier(cfg, logger)
			if err != nil {
				return err
			}

			if err := notifier.Send(cmd.Context(), message); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "message sent to %s\n", cfg.Matrix.RoomID)
			return err
		},
	}
	testCmd.Flags().StringVar(&message, "message", defaultTestMessage, "message body")

	cmd.AddCommand(testCmd)
	return cmd
}
