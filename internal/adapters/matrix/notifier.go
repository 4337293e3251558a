package matrix

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bnema/ticketwatch/internal/domain"
	"github.com/bnema/ticketwatch/internal/httputil"
	"github.com/bnema/ticketwatch/internal/ports"
	"github.com/google/uuid"
)

const DefaultSendTimeout = 10 * time.Second

const messageEventType = "m.room.message"

type Config struct {
	HomeserverURL string
	AccessToken   string
	RoomID        string
	Template      string
	SendTimeout   time.Duration
}

type textMessage struct {
	MsgType string `json:"msgtype"`
	Body    string `json:"body"`
}

// Notifier posts one m.text message per ticket to a single room.
type Notifier struct {
	cfg       Config
	formatter *MessageFormatter
	clock     ports.Clock
	logger    *slog.Logger
	// newHTTPClient returns the client for one send. The default builds a
	// fresh transport per call so no connection outlives its request.
	newHTTPClient func() *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

type Option func(*Notifier)

func WithHTTPClientFactory(factory func() *http.Client) Option {
	return func(n *Notifier) { n.newHTTPClient = factory }
}

func WithClock(clock ports.Clock) Option {
	return func(n *Notifier) { n.clock = clock }
}

func WithLogger(logger *slog.Logger) Option {
	return func(n *Notifier) { n.logger = logger }
}

func NewNotifier(cfg Config, opts ...Option) (*Notifier, error) {
	if strings.TrimSpace(cfg.HomeserverURL) == "" {
		return nil, errors.New("matrix homeserver url is required")
	}
	if _, err := url.Parse(cfg.HomeserverURL); err != nil {
		return nil, fmt.Errorf("invalid matrix homeserver url %q: %w", cfg.HomeserverURL, err)
	}
	if strings.TrimSpace(cfg.AccessToken) == "" {
		return nil, errors.New("matrix access token is required")
	}
	if strings.TrimSpace(cfg.RoomID) == "" {
		return nil, errors.New("matrix room id is required")
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = DefaultSendTimeout
	}
	cfg.HomeserverURL = strings.TrimRight(cfg.HomeserverURL, "/")

	formatter, err := NewMessageFormatter(cfg.Template)
	if err != nil {
		return nil, err
	}

	n := &Notifier{
		cfg:           cfg,
		formatter:     formatter,
		clock:         ports.SystemClock{},
		logger:        slog.Default(),
		newHTTPClient: newIsolatedHTTPClient,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Notify formats and sends the message for ticket. It reports whether the
// homeserver accepted it; failures are logged, never returned.
func (n *Notifier) Notify(ctx context.Context, ticket domain.Ticket) bool {
	message, err := n.formatter.Format(ticket)
	if err != nil {
		n.logger.Error("failed to format ticket message", "ticket_id", ticket.ID, "error", err)
		return false
	}

	if err := n.Send(ctx, message); err != nil {
		n.logger.Error("failed to send ticket notification", "ticket_id", ticket.ID, "error", err)
		return false
	}

	n.logger.Info("ticket notification sent", "ticket_id", ticket.ID, "message", message)
	return true
}

// Send delivers a single text message to the configured room. Any 2xx status
// is success.
func (n *Notifier) Send(ctx context.Context, message string) error {
	encoded, err := json.Marshal(textMessage{MsgType: "m.text", Body: message})
	if err != nil {
		return fmt.Errorf("%w: encode message: %w", domain.ErrNotifyFailure, err)
	}

	requestCtx, cancel := httputil.WithTimeout(ctx, n.cfg.SendTimeout, DefaultSendTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(requestCtx, http.MethodPut, n.sendURL(n.transactionID()), bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("%w: create request: %w", domain.ErrNotifyFailure, err)
	}
	req.Header.Set("Authorization", "Bearer "+n.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	client := n.newHTTPClient()
	defer client.CloseIdleConnections()

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrNotifyFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := httputil.ReadBody(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %w", domain.ErrNotifyFailure, err)
	}
	if httputil.IsSuccess(resp.StatusCode) {
		return nil
	}

	if matrixErr := decodeError(resp.StatusCode, body); matrixErr != nil {
		return fmt.Errorf("%w: %w", domain.ErrNotifyFailure, matrixErr)
	}
	return fmt.Errorf("%w: status %d: %s", domain.ErrNotifyFailure, resp.StatusCode, httputil.Snippet(body))
}

func (n *Notifier) sendURL(transactionID string) string {
	return fmt.Sprintf("%s/_matrix/client/v3/rooms/%s/send/%s/%s",
		n.cfg.HomeserverURL,
		url.PathEscape(n.cfg.RoomID),
		messageEventType,
		url.PathEscape(transactionID),
	)
}

// transactionID is derived from the current time and made unique per call,
// so two sends in the same millisecond are not collapsed by the homeserver.
func (n *Notifier) transactionID() string {
	return fmt.Sprintf("%d-%s", n.clock.Now().UnixMilli(), uuid.NewString())
}

func newIsolatedHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	return &http.Client{Transport: transport}
}
