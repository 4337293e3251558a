package matrix

import (
	"encoding/json"
	"fmt"
)

// Error is the structured error body returned by the homeserver.
type Error struct {
	Code       string `json:"errcode"`
	Message    string `json:"error"`
	StatusCode int    `json:"-"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("matrix: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// decodeError returns nil when body is not a Matrix error object.
func decodeError(statusCode int, body []byte) *Error {
	var matrixErr Error
	if err := json.Unmarshal(body, &matrixErr); err != nil || matrixErr.Code == "" {
		return nil
	}
	matrixErr.StatusCode = statusCode
	return &matrixErr
}
