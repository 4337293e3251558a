package domain

import "errors"

var (
	ErrAuthFailure     = errors.New("ticket source authentication failed")
	ErrSessionExpired  = errors.New("ticket source session expired")
	ErrTransientFetch  = errors.New("ticket fetch failed")
	ErrNotifyFailure   = errors.New("notification delivery failed")
	ErrExhausted       = errors.New("too many consecutive poll failures")
	ErrInvalidTicketID = errors.New("invalid ticket id")
	ErrMissingConfig   = errors.New("missing required configuration")
)
