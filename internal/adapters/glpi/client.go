package glpi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bnema/ticketwatch/internal/domain"
	"github.com/bnema/ticketwatch/internal/httputil"
	"github.com/bnema/ticketwatch/internal/ports"
)

const (
	DefaultAuthTimeout    = 10 * time.Second
	DefaultReleaseTimeout = 5 * time.Second
	DefaultFetchTimeout   = 20 * time.Second
)

const (
	initSessionPath = "initSession"
	killSessionPath = "killSession"
	ticketPath      = "Ticket"

	appTokenHeader     = "App-Token"
	sessionTokenHeader = "Session-Token"
)

type Credentials struct {
	Username string
	Password string
	AppToken string
}

// Client talks to the GLPI REST API. It opens and closes sessions and lists
// tickets; each method performs exactly one request.
type Client struct {
	BaseURL     string
	Credentials Credentials
	// Range is passed as GLPI's range query parameter when set, e.g. "0-999".
	Range      string
	HTTPClient *http.Client
	Logger     *slog.Logger

	AuthTimeout    time.Duration
	ReleaseTimeout time.Duration
	FetchTimeout   time.Duration
}

var (
	_ ports.SessionManager = (*Client)(nil)
	_ ports.TicketSource   = (*Client)(nil)
)

type initSessionResponse struct {
	SessionToken string `json:"session_token"`
}

// Acquire opens a session with basic auth and the application token.
func (c *Client) Acquire(ctx context.Context) (domain.SessionToken, error) {
	endpoint, err := c.endpoint(initSessionPath, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrAuthFailure, err)
	}

	requestCtx, cancel := httputil.WithTimeout(ctx, c.AuthTimeout, DefaultAuthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(requestCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("%w: create init session request: %w", domain.ErrAuthFailure, err)
	}
	c.setHeaders(req, "")
	req.SetBasicAuth(c.Credentials.Username, c.Credentials.Password)

	status, body, err := c.do(req)
	if err != nil {
		c.logger().Error("failed to initialize ticket source session", "error", err)
		return "", fmt.Errorf("%w: request init session: %w", domain.ErrAuthFailure, err)
	}
	if !httputil.IsSuccess(status) {
		c.logger().Error("failed to initialize ticket source session", "status", status, "body", httputil.Snippet(body))
		return "", fmt.Errorf("%w: status %d: %s", domain.ErrAuthFailure, status, httputil.Snippet(body))
	}

	var payload initSessionResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		c.logger().Error("failed to decode init session response", "status", status, "body", httputil.Snippet(body))
		return "", fmt.Errorf("%w: decode init session response: %w", domain.ErrAuthFailure, err)
	}
	if strings.TrimSpace(payload.SessionToken) == "" {
		c.logger().Error("init session response has no session token", "status", status)
		return "", fmt.Errorf("%w: init session response missing session_token", domain.ErrAuthFailure)
	}

	c.logger().Info("initialized ticket source session")
	return domain.SessionToken(payload.SessionToken), nil
}

// Release closes the session. It never fails from the caller's point of view:
// problems are logged and the request is not bound to ctx cancellation, so it
// can run during shutdown.
func (c *Client) Release(ctx context.Context, token domain.SessionToken) {
	if token.IsZero() {
		return
	}

	endpoint, err := c.endpoint(killSessionPath, nil)
	if err != nil {
		c.logger().Warn("failed to terminate ticket source session", "error", err)
		return
	}

	requestCtx, cancel := httputil.WithTimeout(context.WithoutCancel(ctx), c.ReleaseTimeout, DefaultReleaseTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(requestCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.logger().Warn("failed to terminate ticket source session", "error", err)
		return
	}
	c.setHeaders(req, token)

	status, body, err := c.do(req)
	if err != nil {
		c.logger().Warn("failed to terminate ticket source session", "error", err)
		return
	}
	if !httputil.IsSuccess(status) {
		c.logger().Warn("failed to terminate ticket source session", "status", status, "body", httputil.Snippet(body))
		return
	}

	c.logger().Info("terminated ticket source session")
}

// ListTickets fetches the current ticket set. A 401 is reported as
// domain.ErrSessionExpired; every other failure wraps domain.ErrTransientFetch.
func (c *Client) ListTickets(ctx context.Context, token domain.SessionToken) ([]domain.Ticket, error) {
	var query url.Values
	if r := strings.TrimSpace(c.Range); r != "" {
		query = url.Values{"range": []string{r}}
	}

	endpoint, err := c.endpoint(ticketPath, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTransientFetch, err)
	}

	requestCtx, cancel := httputil.WithTimeout(ctx, c.FetchTimeout, DefaultFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(requestCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create ticket request: %w", domain.ErrTransientFetch, err)
	}
	c.setHeaders(req, token)

	status, body, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request tickets: %w", domain.ErrTransientFetch, err)
	}
	if status == http.StatusUnauthorized {
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrSessionExpired, status, httputil.Snippet(body))
	}
	if !httputil.IsSuccess(status) {
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrTransientFetch, status, httputil.Snippet(body))
	}

	tickets, skipped, err := decodeTickets(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTransientFetch, err)
	}
	if skipped > 0 {
		c.logger().Warn("skipped unusable ticket records", "skipped", skipped, "kept", len(tickets))
	}

	c.logger().Debug("retrieved tickets", "tickets", len(tickets), "status", status)
	return tickets, nil
}

// decodeTickets accepts a bare array of ticket objects or an envelope with
// the array under "data". Records that are not objects or lack a usable id
// are skipped and counted.
func decodeTickets(body []byte) ([]domain.Ticket, int, error) {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var payload any
	if err := decoder.Decode(&payload); err != nil {
		return nil, 0, fmt.Errorf("decode ticket payload: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, 0, errors.New("ticket payload has trailing data after the JSON value")
	}

	var records []any
	switch v := payload.(type) {
	case []any:
		records = v
	case map[string]any:
		data, ok := v["data"]
		if !ok {
			return nil, 0, errors.New("ticket payload object has no data field")
		}
		if data != nil {
			list, ok := data.([]any)
			if !ok {
				return nil, 0, fmt.Errorf("ticket payload data is %T, want array", data)
			}
			records = list
		}
	default:
		return nil, 0, fmt.Errorf("ticket payload is %T, want array or object", payload)
	}

	tickets := make([]domain.Ticket, 0, len(records))
	skipped := 0
	for _, raw := range records {
		record, ok := raw.(map[string]any)
		if !ok {
			skipped++
			continue
		}
		ticket, err := domain.TicketFromRecord(record)
		if err != nil {
			skipped++
			continue
		}
		tickets = append(tickets, ticket)
	}

	return tickets, skipped, nil
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := httputil.ReadBody(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func (c *Client) setHeaders(req *http.Request, token domain.SessionToken) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(appTokenHeader, c.Credentials.AppToken)
	if !token.IsZero() {
		req.Header.Set(sessionTokenHeader, string(token))
	}
}

func (c *Client) endpoint(path string, query url.Values) (string, error) {
	if c.BaseURL == "" {
		return "", errors.New("ticket source base url is required")
	}

	parsed, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse ticket source base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("ticket source base url must use http or https")
	}
	if parsed.Host == "" {
		return "", errors.New("ticket source base url host is required")
	}

	endpoint := strings.TrimRight(c.BaseURL, "/") + "/" + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	return endpoint, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
