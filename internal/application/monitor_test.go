package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/bnema/ticketwatch/internal/domain"
	portmocks "github.com/bnema/ticketwatch/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var errUpstream = fmt.Errorf("%w: status 500: boom", domain.ErrTransientFetch)

var errExpired = fmt.Errorf("%w: status 401", domain.ErrSessionExpired)

func TestMonitorNotifiesNewTicketsAndTracksLatestSet(t *testing.T) {
	t.Parallel()

	h := newHarness(t,
		poll(ticket(1, "A"), ticket(2, "B")),
		poll(ticket(2, "B")),
	)

	require.NoError(t, h.run())

	assert.ElementsMatch(t, []domain.TicketID{"1", "2"}, h.notifier.ids())
	assert.Equal(t, domain.NewSeenSet("2"), h.monitor.Seen())
	assert.Equal(t, StateStoppedClean, h.monitor.State())
	assert.Equal(t, []time.Duration{time.Minute, time.Minute}, h.clock.waits)
	assert.Equal(t, []domain.SessionToken{"token-1"}, h.sessions.released)
}

func TestMonitorEmptyFetchClearsSeenTickets(t *testing.T) {
	t.Parallel()

	h := newHarness(t,
		poll(ticket(1, "A"), ticket(2, "B")),
		poll(),
		poll(ticket(1, "A"), ticket(2, "B")),
	)

	require.NoError(t, h.run())

	assert.ElementsMatch(t, []domain.TicketID{"1", "2", "1", "2"}, h.notifier.ids())
}

func TestMonitorRenotifiesTicketThatReappears(t *testing.T) {
	t.Parallel()

	h := newHarness(t,
		poll(ticket(1, "A"), ticket(2, "B")),
		poll(ticket(2, "B")),
		poll(ticket(1, "A"), ticket(2, "B")),
	)

	require.NoError(t, h.run())

	assert.ElementsMatch(t, []domain.TicketID{"1", "2", "1"}, h.notifier.ids())
}

func TestMonitorReauthenticatesOnExpiredSessionWithoutSleeping(t *testing.T) {
	t.Parallel()

	h := newHarness(t,
		poll(ticket(1, "A")),
		failPoll(errExpired),
		poll(ticket(1, "A"), ticket(2, "B")),
	)

	require.NoError(t, h.run())

	assert.Equal(t, 2, h.sessions.acquired)
	assert.Equal(t, []domain.SessionToken{"token-1", "token-2"}, h.sessions.released)
	assert.Equal(t, []domain.SessionToken{"token-1", "token-1", "token-2", "token-2"}, h.source.tokens)
	assert.Equal(t, []time.Duration{time.Minute, time.Minute}, h.clock.waits)
	assert.Equal(t, []domain.TicketID{"1", "2"}, h.notifier.ids())
	assert.Equal(t, 0, h.monitor.ConsecutiveErrors())
}

func TestMonitorExpiredSessionDoesNotCountAsFailure(t *testing.T) {
	t.Parallel()

	results := []pollResult{failPoll(errUpstream), failPoll(errUpstream), failPoll(errUpstream), failPoll(errUpstream)}
	for i := 0; i < 10; i++ {
		results = append(results, failPoll(errExpired))
	}
	h := newHarness(t, results...)

	require.NoError(t, h.run())

	assert.Equal(t, 4, h.monitor.ConsecutiveErrors())
	assert.Equal(t, StateStoppedClean, h.monitor.State())
	assert.Equal(t, 11, h.sessions.acquired)
}

func TestMonitorStopsAfterFiveConsecutiveFailures(t *testing.T) {
	t.Parallel()

	h := newHarness(t,
		failPoll(errUpstream),
		failPoll(errUpstream),
		failPoll(errUpstream),
		failPoll(errUpstream),
		failPoll(errUpstream),
		poll(ticket(1, "never reached")),
	)

	err := h.run()
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrExhausted))
	assert.True(t, errors.Is(err, domain.ErrTransientFetch))
	assert.Equal(t, StateStoppedError, h.monitor.State())
	assert.Equal(t, 5, h.source.calls)
	assert.Empty(t, h.notifier.ids())
	assert.Equal(t, []time.Duration{20 * time.Second, 20 * time.Second, 20 * time.Second, 20 * time.Second}, h.clock.waits)
	assert.Equal(t, []domain.SessionToken{"token-1"}, h.sessions.released)
}

func TestMonitorSuccessResetsFailureCount(t *testing.T) {
	t.Parallel()

	var results []pollResult
	for round := 0; round < 3; round++ {
		for i := 0; i < 4; i++ {
			results = append(results, failPoll(errUpstream))
		}
		results = append(results, poll(ticket(round, "ticket")))
	}
	h := newHarness(t, results...)

	require.NoError(t, h.run())

	assert.Equal(t, StateStoppedClean, h.monitor.State())
	assert.Equal(t, 0, h.monitor.ConsecutiveErrors())
	assert.Equal(t, []domain.TicketID{"0", "1", "2"}, h.notifier.ids())
}

func TestMonitorFailedNotificationDoesNotStopOthers(t *testing.T) {
	t.Parallel()

	h := newHarness(t, poll(ticket(1, "A"), ticket(2, "B"), ticket(3, "C")))
	h.notifier.fail = map[domain.TicketID]bool{"1": true, "2": true}

	require.NoError(t, h.run())

	assert.ElementsMatch(t, []domain.TicketID{"1", "2", "3"}, h.notifier.ids())
	assert.Equal(t, domain.NewSeenSet("1", "2", "3"), h.monitor.Seen())
}

func TestMonitorInitialAuthFailureStopsWithoutPolling(t *testing.T) {
	t.Parallel()

	h := newHarness(t, poll(ticket(1, "A")))
	h.sessions.failOn = map[int]bool{1: true}

	err := h.run()
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAuthFailure))
	assert.Equal(t, StateStoppedError, h.monitor.State())
	assert.Equal(t, 0, h.source.calls)
	assert.Empty(t, h.sessions.released)
}

func TestMonitorReauthFailureStopsWithError(t *testing.T) {
	t.Parallel()

	h := newHarness(t, failPoll(errExpired), poll(ticket(1, "A")))
	h.sessions.failOn = map[int]bool{2: true}

	err := h.run()
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAuthFailure))
	assert.Equal(t, StateStoppedError, h.monitor.State())
	assert.Equal(t, 1, h.source.calls)
	assert.Equal(t, []domain.SessionToken{"token-1"}, h.sessions.released)
}

func TestMonitorCancelDuringSleepStopsCleanAndReleases(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	sessions := &fakeSessions{}
	source := &scriptedSource{results: []pollResult{poll(ticket(1, "A"))}, cancel: cancel}
	notifier := &recordingNotifier{}
	clock := &blockingClock{onAfter: cancel}

	monitor := NewMonitor(sessions, source, notifier, clock, discardLogger(), MonitorConfig{})

	require.NoError(t, monitor.Run(ctx))
	assert.Equal(t, StateStoppedClean, monitor.State())
	assert.Equal(t, 1, source.calls)
	assert.Equal(t, []domain.SessionToken{"token-1"}, sessions.released)
	assert.Equal(t, []time.Duration{DefaultPollInterval}, clock.waits)
}

func TestMonitorStopsNotifyingOnceCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	sessions := portmocks.NewMockSessionManager(t)
	source := portmocks.NewMockTicketSource(t)
	notifier := portmocks.NewMockNotifier(t)

	sessions.EXPECT().Acquire(mock.Anything).Return(domain.SessionToken("tok"), nil).Once()
	source.EXPECT().ListTickets(mock.Anything, domain.SessionToken("tok")).
		Return([]domain.Ticket{ticket(1, "A"), ticket(2, "B"), ticket(3, "C")}, nil).Once()
	notifier.EXPECT().Notify(mock.Anything, mock.Anything).
		Run(func(context.Context, domain.Ticket) { cancel() }).
		Return(false).Once()
	sessions.EXPECT().Release(mock.Anything, domain.SessionToken("tok")).Return().Once()

	monitor := NewMonitor(sessions, source, notifier, &blockingClock{}, discardLogger(), MonitorConfig{})

	require.NoError(t, monitor.Run(ctx))
	assert.Equal(t, StateStoppedClean, monitor.State())
}

func TestMonitorReleasesExpiredTokenBeforeReacquiring(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	sessions := portmocks.NewMockSessionManager(t)
	source := portmocks.NewMockTicketSource(t)
	notifier := portmocks.NewMockNotifier(t)

	var order []string
	sessions.EXPECT().Acquire(mock.Anything).Return(domain.SessionToken("tok-1"), nil).Once()
	source.EXPECT().ListTickets(mock.Anything, domain.SessionToken("tok-1")).Return(nil, errExpired).Once()
	sessions.EXPECT().Release(mock.Anything, domain.SessionToken("tok-1")).
		Run(func(context.Context, domain.SessionToken) { order = append(order, "release tok-1") }).
		Return().Once()
	sessions.EXPECT().Acquire(mock.Anything).
		Run(func(context.Context) { order = append(order, "acquire") }).
		Return(domain.SessionToken("tok-2"), nil).Once()
	source.EXPECT().ListTickets(mock.Anything, domain.SessionToken("tok-2")).
		Run(func(context.Context, domain.SessionToken) { cancel() }).
		Return(nil, context.Canceled).Once()
	sessions.EXPECT().Release(mock.Anything, domain.SessionToken("tok-2")).Return().Once()

	monitor := NewMonitor(sessions, source, notifier, &instantClock{}, discardLogger(), MonitorConfig{})

	require.NoError(t, monitor.Run(ctx))
	assert.Equal(t, []string{"release tok-1", "acquire"}, order)
	assert.Equal(t, 0, monitor.ConsecutiveErrors())
}

func TestMonitorCancelledBeforeAuthStopsClean(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sessions := &fakeSessions{failOn: map[int]bool{1: true}}
	monitor := NewMonitor(sessions, &scriptedSource{}, &recordingNotifier{}, &instantClock{}, discardLogger(), MonitorConfig{})

	require.NoError(t, monitor.Run(ctx))
	assert.Equal(t, StateStoppedClean, monitor.State())
}

func TestMonitorReportsTransitions(t *testing.T) {
	t.Parallel()

	var transitions []State
	h := newHarnessWithConfig(t, MonitorConfig{
		OnTransition: func(_, to State) { transitions = append(transitions, to) },
	}, poll(ticket(1, "A")), failPoll(errExpired))

	require.NoError(t, h.run())

	assert.Equal(t, []State{
		StateAuthenticating,
		StatePolling,
		StateNotifying,
		StateSleeping,
		StatePolling,
		StateAuthenticating,
		StatePolling,
		StateStoppedClean,
	}, transitions)
	assert.True(t, h.monitor.State().Terminal())
}

func TestMonitorUsesConfiguredIntervals(t *testing.T) {
	t.Parallel()

	h := newHarnessWithConfig(t, MonitorConfig{
		PollInterval:         5 * time.Second,
		RecoveryInterval:     2 * time.Second,
		MaxConsecutiveErrors: 2,
	}, poll(), failPoll(errUpstream), failPoll(errUpstream))

	err := h.run()
	require.ErrorIs(t, err, domain.ErrExhausted)
	assert.Equal(t, []time.Duration{5 * time.Second, 2 * time.Second}, h.clock.waits)
}

func TestPropertyMonitorNotifiesPerCycleDifference(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		cycles := rapid.SliceOfN(rapid.SliceOf(rapid.IntRange(0, 12)), 1, 8).Draw(rt, "cycles")

		results := make([]pollResult, 0, len(cycles))
		var want []domain.TicketID
		previous := domain.NewSeenSet()
		for _, cycle := range cycles {
			tickets := make([]domain.Ticket, 0, len(cycle))
			current := domain.NewSeenSet()
			for _, n := range cycle {
				tickets = append(tickets, ticket(n, "t"))
				id := domain.TicketID(fmt.Sprint(n))
				if !previous.Contains(id) && !current.Contains(id) {
					want = append(want, id)
				}
				current[id] = struct{}{}
			}
			previous = current
			results = append(results, poll(tickets...))
		}

		h := newHarness(t, results...)
		if err := h.run(); err != nil {
			rt.Fatalf("run: %v", err)
		}

		got := h.notifier.ids()
		if len(got) != len(want) {
			rt.Fatalf("notified %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				rt.Fatalf("notified %v, want %v", got, want)
			}
		}
		if h.monitor.Seen().Len() != previous.Len() {
			rt.Fatalf("seen %v, want %v", h.monitor.Seen(), previous)
		}
	})
}

type harness struct {
	t        *testing.T
	ctx      context.Context
	sessions *fakeSessions
	source   *scriptedSource
	notifier *recordingNotifier
	clock    *instantClock
	monitor  *Monitor
}

func newHarness(t *testing.T, results ...pollResult) *harness {
	return newHarnessWithConfig(t, MonitorConfig{}, results...)
}

func newHarnessWithConfig(t *testing.T, cfg MonitorConfig, results ...pollResult) *harness {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := &harness{
		t:        t,
		ctx:      ctx,
		sessions: &fakeSessions{},
		source:   &scriptedSource{results: results, cancel: cancel},
		notifier: &recordingNotifier{},
		clock:    &instantClock{},
	}
	h.monitor = NewMonitor(h.sessions, h.source, h.notifier, h.clock, discardLogger(), cfg)
	return h
}

func (h *harness) run() error {
	return h.monitor.Run(h.ctx)
}

type pollResult struct {
	tickets []domain.Ticket
	err     error
}

func poll(tickets ...domain.Ticket) pollResult {
	return pollResult{tickets: tickets}
}

func failPoll(err error) pollResult {
	return pollResult{err: err}
}

func ticket(id int, name string) domain.Ticket {
	return domain.Ticket{ID: domain.TicketID(fmt.Sprint(id)), Name: name}
}

type fakeSessions struct {
	acquired int
	failOn   map[int]bool
	released []domain.SessionToken
}

func (f *fakeSessions) Acquire(_ context.Context) (domain.SessionToken, error) {
	f.acquired++
	if f.failOn[f.acquired] {
		return "", fmt.Errorf("%w: status 401", domain.ErrAuthFailure)
	}
	return domain.SessionToken(fmt.Sprintf("token-%d", f.acquired)), nil
}

func (f *fakeSessions) Release(_ context.Context, token domain.SessionToken) {
	f.released = append(f.released, token)
}

// scriptedSource replays results in order and cancels the run once the
// script is exhausted.
type scriptedSource struct {
	results []pollResult
	calls   int
	tokens  []domain.SessionToken
	cancel  context.CancelFunc
}

func (s *scriptedSource) ListTickets(ctx context.Context, token domain.SessionToken) ([]domain.Ticket, error) {
	s.tokens = append(s.tokens, token)
	if s.calls >= len(s.results) {
		s.cancel()
		return nil, ctx.Err()
	}
	result := s.results[s.calls]
	s.calls++
	return result.tickets, result.err
}

type recordingNotifier struct {
	notified []domain.Ticket
	fail     map[domain.TicketID]bool
}

func (n *recordingNotifier) Notify(_ context.Context, ticket domain.Ticket) bool {
	n.notified = append(n.notified, ticket)
	return !n.fail[ticket.ID]
}

func (n *recordingNotifier) ids() []domain.TicketID {
	ids := make([]domain.TicketID, 0, len(n.notified))
	for _, ticket := range n.notified {
		ids = append(ids, ticket.ID)
	}
	return ids
}

type instantClock struct {
	waits []time.Duration
}

func (c *instantClock) Now() time.Time {
	return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
}

func (c *instantClock) After(d time.Duration) <-chan time.Time {
	c.waits = append(c.waits, d)
	ch := make(chan time.Time, 1)
	ch <- c.Now()
	return ch
}

// blockingClock never fires; it runs onAfter so a test can cancel while the
// monitor is parked in its sleep.
type blockingClock struct {
	waits   []time.Duration
	onAfter func()
}

func (c *blockingClock) Now() time.Time {
	return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
}

func (c *blockingClock) After(d time.Duration) <-chan time.Time {
	c.waits = append(c.waits, d)
	if c.onAfter != nil {
		c.onAfter()
	}
	return make(chan time.Time)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
