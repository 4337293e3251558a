package ports

import (
	"context"

	"github.com/bnema/ticketwatch/internal/domain"
)

// SessionManager opens and closes authenticated sessions on the ticket source.
// Release is best-effort and must be safe to call on every exit path.
type SessionManager interface {
	Acquire(ctx context.Context) (domain.SessionToken, error)
	Release(ctx context.Context, token domain.SessionToken)
}

// TicketSource returns the current ticket set. An expired session is reported
// as an error wrapping domain.ErrSessionExpired.
type TicketSource interface {
	ListTickets(ctx context.Context, token domain.SessionToken) ([]domain.Ticket, error)
}
