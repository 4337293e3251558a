package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSessionCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect GLPI sessions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Open and close a GLPI session to verify credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := app.load(cmd)
			if err != nil {
				return err
			}
			if err := cfg.ValidateGLPI(); err != nil {
				return err
			}
			client := app.newGLPIClient(cfg, logger)

			token, err := client.Acquire(cmd.Context())
			if err != nil {
				return err
			}
			client.Release(cmd.Context(), token)

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "GLPI session OK (%s)\n", cfg.GLPI.URL)
			return err
		},
	})

	return cmd
}
