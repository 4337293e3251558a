// Package httputil holds the response handling shared by the ticket source
// and chat adapters.
package httputil

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxResponseBytes bounds every response body read. Ticket listings can be
// large, so the limit is generous.
const MaxResponseBytes = 16 << 20

const maxSnippetBytes = 512

func ReadBody(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseBytes))
}

func IsSuccess(statusCode int) bool {
	return statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices
}

// Snippet returns a trimmed, length-bounded copy of body for log lines and
// error messages.
func Snippet(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= maxSnippetBytes {
		return text
	}

	cut := maxSnippetBytes
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}

// WithTimeout bounds ctx by timeout, falling back to fallback when timeout is
// not positive. An earlier caller deadline still wins.
func WithTimeout(ctx context.Context, timeout, fallback time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = fallback
	}
	return context.WithTimeout(ctx, timeout)
}
