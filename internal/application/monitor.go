package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bnema/ticketwatch/internal/domain"
	"github.com/bnema/ticketwatch/internal/ports"
)

const (
	DefaultPollInterval         = 60 * time.Second
	DefaultRecoveryInterval     = 20 * time.Second
	DefaultMaxConsecutiveErrors = 5
)

type State string

const (
	StateAuthenticating State = "authenticating"
	StatePolling        State = "polling"
	StateNotifying      State = "notifying"
	StateSleeping       State = "sleeping"
	StateStoppedClean   State = "stopped_clean"
	StateStoppedError   State = "stopped_error"
)

func (s State) Terminal() bool {
	return s == StateStoppedClean || s == StateStoppedError
}

type MonitorConfig struct {
	PollInterval         time.Duration
	RecoveryInterval     time.Duration
	MaxConsecutiveErrors int
	// OnTransition, when set, is called on every state change.
	OnTransition func(from, to State)
}

func (c MonitorConfig) withDefaults() MonitorConfig {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.RecoveryInterval <= 0 {
		c.RecoveryInterval = DefaultRecoveryInterval
	}
	if c.MaxConsecutiveErrors <= 0 {
		c.MaxConsecutiveErrors = DefaultMaxConsecutiveErrors
	}
	return c
}

// Monitor polls the ticket source and notifies once per ticket that was not
// present in the previous successful poll. It is not safe for concurrent use;
// Run drives all state from a single goroutine.
type Monitor struct {
	sessions ports.SessionManager
	tickets  ports.TicketSource
	notifier ports.Notifier
	clock    ports.Clock
	logger   *slog.Logger
	cfg      MonitorConfig

	state    State
	token    domain.SessionToken
	seen     domain.SeenSet
	failures int
}

func NewMonitor(sessions ports.SessionManager, tickets ports.TicketSource, notifier ports.Notifier, clock ports.Clock, logger *slog.Logger, cfg MonitorConfig) *Monitor {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Monitor{
		sessions: sessions,
		tickets:  tickets,
		notifier: notifier,
		clock:    clock,
		logger:   logger,
		cfg:      cfg.withDefaults(),
		seen:     domain.NewSeenSet(),
	}
}

func (m *Monitor) State() State {
	return m.state
}

// Seen returns the ids observed by the last successful poll.
func (m *Monitor) Seen() domain.SeenSet {
	return m.seen
}

// ConsecutiveErrors returns the number of failed polls since the last success.
func (m *Monitor) ConsecutiveErrors() int {
	return m.failures
}

// Run authenticates, then polls until ctx is cancelled or a fatal condition
// is reached. It returns nil when stopped by cancellation. The session is
// released on every return path.
func (m *Monitor) Run(ctx context.Context) error {
	m.transition(StateAuthenticating)
	token, err := m.sessions.Acquire(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return m.stopClean()
		}
		return m.stopError(fmt.Errorf("open session: %w", err))
	}
	m.token = token
	defer m.releaseSession(ctx)

	for {
		if ctx.Err() != nil {
			return m.stopClean()
		}

		m.transition(StatePolling)
		tickets, err := m.tickets.ListTickets(ctx, m.token)
		switch {
		case err == nil:
			m.handleTickets(ctx, tickets)
			m.failures = 0
			if !m.sleep(ctx, m.cfg.PollInterval) {
				return m.stopClean()
			}

		case ctx.Err() != nil:
			return m.stopClean()

		case errors.Is(err, domain.ErrSessionExpired):
			m.logger.Warn("ticket source session expired, re-authenticating", "error", err)
			if err := m.reauthenticate(ctx); err != nil {
				if ctx.Err() != nil {
					return m.stopClean()
				}
				return m.stopError(fmt.Errorf("re-open session: %w", err))
			}

		default:
			m.failures++
			m.logger.Error("poll failed",
				"error", err,
				"consecutive_errors", m.failures,
				"max_errors", m.cfg.MaxConsecutiveErrors,
			)
			if m.failures >= m.cfg.MaxConsecutiveErrors {
				return m.stopError(fmt.Errorf("%w: %d in a row, last: %w", domain.ErrExhausted, m.failures, err))
			}
			if !m.sleep(ctx, m.cfg.RecoveryInterval) {
				return m.stopClean()
			}
		}
	}
}

func (m *Monitor) handleTickets(ctx context.Context, tickets []domain.Ticket) {
	diff := domain.Diff(m.seen, tickets)
	m.logger.Info("polled tickets", "tickets", len(tickets), "new", len(diff.New))

	if len(diff.New) > 0 {
		m.transition(StateNotifying)
		failed := 0
		for i, ticket := range diff.New {
			if ctx.Err() != nil {
				m.logger.Info("stopping notifications on shutdown", "pending", len(diff.New)-i)
				break
			}
			if !m.notifier.Notify(ctx, ticket) {
				failed++
			}
		}
		if failed > 0 {
			m.logger.Warn("some notifications were not delivered", "failed", failed, "new", len(diff.New))
		}
	}

	m.seen = diff.Current
}

func (m *Monitor) reauthenticate(ctx context.Context) error {
	m.sessions.Release(ctx, m.token)
	m.token = ""

	m.transition(StateAuthenticating)
	token, err := m.sessions.Acquire(ctx)
	if err != nil {
		return err
	}
	m.token = token
	return nil
}

// sleep waits for d and reports false if ctx was cancelled first.
func (m *Monitor) sleep(ctx context.Context, d time.Duration) bool {
	m.transition(StateSleeping)
	select {
	case <-ctx.Done():
		return false
	case <-m.clock.After(d):
		return true
	}
}

func (m *Monitor) releaseSession(ctx context.Context) {
	if m.token.IsZero() {
		return
	}
	m.sessions.Release(ctx, m.token)
	m.token = ""
}

func (m *Monitor) stopClean() error {
	m.transition(StateStoppedClean)
	m.logger.Info("ticket monitoring stopped")
	return nil
}

func (m *Monitor) stopError(err error) error {
	m.transition(StateStoppedError)
	m.logger.Error("ticket monitoring stopped on error", "error", err)
	return err
}

func (m *Monitor) transition(to State) {
	from := m.state
	m.state = to
	if m.cfg.OnTransition != nil && from != to {
		m.cfg.OnTransition(from, to)
	}
}
