package cmd

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/bnema/ticketwatch/internal/application"
	"github.com/bnema/ticketwatch/internal/config"
	"github.com/spf13/cobra"
)

var errInterrupted = errors.New("interrupted")

func newWatchCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll GLPI and post every new ticket to a Matrix room",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, app)
		},
	}

	cmd.Flags().Duration("interval", 0, "pause between successful polls (default 60s)")
	cmd.Flags().Duration("recovery-interval", 0, "pause after a failed poll (default 20s)")
	cmd.Flags().Int("max-errors", 0, "consecutive failed polls before giving up (default 5)")

	app.bindFlag(config.KeyPollInterval, cmd.Flags().Lookup("interval"))
	app.bindFlag(config.KeyRecoveryInterval, cmd.Flags().Lookup("recovery-interval"))
	app.bindFlag(config.KeyMaxErrors, cmd.Flags().Lookup("max-errors"))

	return cmd
}

// runWatch returns errInterrupted when stopped by a signal or cancellation.
// A loop that gives up has already logged why and exits cleanly.
func runWatch(cmd *cobra.Command, app *app) error {
	cfg, logger, err := app.load(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	notifier, err := app.newNotifier(cfg, logger)
	if err != nil {
		return err
	}
	source := app.newGLPIClient(cfg, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	monitor := application.NewMonitor(source, source, notifier, app.clock, logger, application.MonitorConfig{
		PollInterval:         cfg.Poll.Interval,
		RecoveryInterval:     cfg.Poll.RecoveryInterval,
		MaxConsecutiveErrors: cfg.Poll.MaxErrors,
		OnTransition: func(from, to application.State) {
			logger.Debug("monitor state changed", "from", from, "to", to)
		},
	})

	logger.Info("watching for new tickets",
		"glpi_url", cfg.GLPI.URL,
		"room_id", cfg.Matrix.RoomID,
		"interval", cfg.Poll.Interval,
		"max_errors", cfg.Poll.MaxErrors,
	)

	if err := monitor.Run(ctx); err == nil {
		return errInterrupted
	}
	// The monitor logged the cause when it stopped.
	return nil
}
