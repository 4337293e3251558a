package domain

// SessionToken is the opaque credential returned by the ticket source when a
// session is opened. The zero value means no session is held.
type SessionToken string

func (t SessionToken) IsZero() bool {
	return t == ""
}

// String keeps tokens out of log lines and error messages.
func (t SessionToken) String() string {
	if t.IsZero() {
		return ""
	}
	return "[redacted]"
}
