package glpi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bnema/ticketwatch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(server *httptest.Server) *Client {
	return &Client{
		BaseURL: server.URL + "/apirest.php",
		Credentials: Credentials{
			Username: "user",
			Password: "pass",
			AppToken: "app-token",
		},
		HTTPClient: server.Client(),
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestAcquireReturnsSessionToken(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/apirest.php/initSession", r.URL.Path)
		assert.Equal(t, "app-token", r.Header.Get("App-Token"))
		username, password, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "user", username)
		assert.Equal(t, "pass", password)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"session_token":"abc123"}`))
	}))
	t.Cleanup(server.Close)

	token, err := newTestClient(server).Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.SessionToken("abc123"), token)
}

func TestAcquireFailsOnNonSuccessStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`["ERROR_GLPI_LOGIN","Incorrect username or password"]`))
	}))
	t.Cleanup(server.Close)

	token, err := newTestClient(server).Acquire(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAuthFailure))
	assert.Contains(t, err.Error(), "status 401")
	assert.Contains(t, err.Error(), "ERROR_GLPI_LOGIN")
	assert.True(t, token.IsZero())
}

func TestAcquireFailsWithoutSessionToken(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(server.Close)

	_, err := newTestClient(server).Acquire(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAuthFailure))
}

func TestAcquireTimesOut(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(server.Close)
	t.Cleanup(func() { close(release) })

	client := newTestClient(server)
	client.AuthTimeout = 20 * time.Millisecond

	_, err := client.Acquire(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAuthFailure))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestAcquireNetworkFailureIsAuthFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := newTestClient(server)
	server.Close()

	_, err := client.Acquire(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAuthFailure))
}

func TestAcquireRejectsInvalidBaseURL(t *testing.T) {
	t.Parallel()

	client := &Client{BaseURL: "ftp://glpi.example.com"}
	_, err := client.Acquire(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAuthFailure))
	assert.Contains(t, err.Error(), "http or https")
}

func TestReleaseSendsSessionHeaders(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/apirest.php/killSession", r.URL.Path)
		assert.Equal(t, "abc123", r.Header.Get("Session-Token"))
		assert.Equal(t, "app-token", r.Header.Get("App-Token"))
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	newTestClient(server).Release(context.Background(), "abc123")
	assert.Equal(t, int32(1), calls.Load())
}

func TestReleaseRunsAfterCallerCancellation(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	newTestClient(server).Release(ctx, "abc123")
	assert.Equal(t, int32(1), calls.Load())
}

func TestReleaseSwallowsFailures(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client := newTestClient(server)
	assert.NotPanics(t, func() { client.Release(context.Background(), "abc123") })

	server.Close()
	assert.NotPanics(t, func() { client.Release(context.Background(), "abc123") })
}

func TestReleaseSkipsEmptyToken(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	t.Cleanup(server.Close)

	newTestClient(server).Release(context.Background(), "")
	assert.Equal(t, int32(0), calls.Load())
}

func TestListTicketsAcceptsBareList(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/apirest.php/Ticket", r.URL.Path)
		assert.Equal(t, "abc123", r.Header.Get("Session-Token"))
		assert.Equal(t, "app-token", r.Header.Get("App-Token"))
		_, _ = w.Write([]byte(`[{"id":1,"name":"A","status":2},{"id":"2","name":"B"}]`))
	}))
	t.Cleanup(server.Close)

	tickets, err := newTestClient(server).ListTickets(context.Background(), "abc123")
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, domain.TicketID("1"), tickets[0].ID)
	assert.Equal(t, "A", tickets[0].Name)
	assert.Equal(t, domain.TicketID("2"), tickets[1].ID)
	assert.Contains(t, tickets[0].Fields, "status")
}

func TestListTicketsAcceptsDataEnvelopeAndPartialContent(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "0-999", r.URL.Query().Get("range"))
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write([]byte(`{"totalcount":1,"data":[{"id":7}]}`))
	}))
	t.Cleanup(server.Close)

	client := newTestClient(server)
	client.Range = "0-999"

	tickets, err := client.ListTickets(context.Background(), "abc123")
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, domain.TicketID("7"), tickets[0].ID)
	assert.Equal(t, domain.NoNamePlaceholder, tickets[0].DisplayName())
}

func TestListTicketsEmptyList(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	t.Cleanup(server.Close)

	tickets, err := newTestClient(server).ListTickets(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Empty(t, tickets)
}

func TestListTicketsSkipsRecordsWithoutID(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1},{"name":"orphan"},"junk",{"id":true}]`))
	}))
	t.Cleanup(server.Close)

	tickets, err := newTestClient(server).ListTickets(context.Background(), "abc123")
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, domain.TicketID("1"), tickets[0].ID)
}

func TestListTicketsUnauthorizedIsSessionExpired(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`["ERROR_SESSION_TOKEN_INVALID","session_token seems invalid"]`))
	}))
	t.Cleanup(server.Close)

	_, err := newTestClient(server).ListTickets(context.Background(), "stale")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSessionExpired))
	assert.False(t, errors.Is(err, domain.ErrTransientFetch))
}

func TestListTicketsTransientFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "boom", wantMsg: "status 500: boom"},
		{name: "forbidden", status: http.StatusForbidden, body: "nope", wantMsg: "status 403"},
		{name: "malformed json", status: http.StatusOK, body: "{not json", wantMsg: "decode ticket payload"},
		{name: "scalar payload", status: http.StatusOK, body: `42`, wantMsg: "want array or object"},
		{name: "envelope without data", status: http.StatusOK, body: `{"items":[]}`, wantMsg: "no data field"},
		{name: "envelope data not array", status: http.StatusOK, body: `{"data":{"id":1}}`, wantMsg: "want array"},
		{name: "trailing garbage", status: http.StatusOK, body: `[{"id":1}] <html>oops</html>`, wantMsg: "trailing data"},
		{name: "two json values", status: http.StatusOK, body: `[{"id":1}][{"id":2}]`, wantMsg: "trailing data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			t.Cleanup(server.Close)

			_, err := newTestClient(server).ListTickets(context.Background(), "abc123")
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrTransientFetch))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestListTicketsHonoursCallerCancellation(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(server.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := newTestClient(server).ListTickets(ctx, "abc123")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
