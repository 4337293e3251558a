package ports

import (
	"context"

	"github.com/bnema/ticketwatch/internal/domain"
)

// Notifier delivers one message per ticket and reports whether it was accepted.
type Notifier interface {
	Notify(ctx context.Context, ticket domain.Ticket) bool
}
