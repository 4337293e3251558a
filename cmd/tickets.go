package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	ticketsrender "github.com/bnema/ticketwatch/internal/adapters/render/tickets"
	"github.com/bnema/ticketwatch/internal/domain"
	"github.com/spf13/cobra"
)

type ticketOutput struct {
	ID     domain.TicketID `json:"id"`
	Name   string          `json:"name"`
	Fields map[string]any  `json:"fields,omitempty"`
}

func newTicketsCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tickets",
		Short: "List the tickets GLPI currently returns",
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

			fetch := func(ctx context.Context) ([]domain.Ticket, error) {
				token, err := client.Acquire(ctx)
				if err != nil {
					return nil, err
				}
				defer client.Release(ctx, token)

				return client.ListTickets(ctx, token)
			}

			var tickets []domain.Ticket
			if asJSON {
				tickets, err = fetch(cmd.Context())
			} else {
				tickets, err = fetchTicketsWithSpinner(cmd.Context(), cmd.ErrOrStderr(), cfg.GLPI.URL, fetch)
			}
			if err != nil {
				return err
			}

			if asJSON {
				out := make([]ticketOutput, 0, len(tickets))
				for _, ticket := range tickets {
					out = append(out, ticketOutput{ID: ticket.ID, Name: ticket.DisplayName(), Fields: ticket.Fields})
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			rendered, err := ticketsrender.Render(tickets, ticketsrender.RenderOptions{Source: cfg.GLPI.URL})
			if err != nil {
				return fmt.Errorf("render tickets: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}
