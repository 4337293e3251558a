package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const NoNamePlaceholder = "No name"

// TicketID is the normalized string form of a ticket identifier. The ticket
// source may return ids as JSON numbers or strings; both normalize to the same
// value so 42 and "42" compare equal.
type TicketID string

type Ticket struct {
	ID     TicketID
	Name   string
	Fields map[string]any
}

// DisplayName returns the ticket name, or NoNamePlaceholder when it is blank.
func (t Ticket) DisplayName() string {
	if name := strings.TrimSpace(t.Name); name != "" {
		return name
	}
	return NoNamePlaceholder
}

// NormalizeTicketID converts a raw decoded identifier into a TicketID.
// Applying it to an already normalized id returns the same id.
func NormalizeTicketID(raw any) (TicketID, error) {
	switch v := raw.(type) {
	case TicketID:
		return NormalizeTicketID(string(v))
	case string:
		return normalizeIDString(v)
	case json.Number:
		return normalizeIDNumber(v)
	case int:
		return TicketID(strconv.FormatInt(int64(v), 10)), nil
	case int32:
		return TicketID(strconv.FormatInt(int64(v), 10)), nil
	case int64:
		return TicketID(strconv.FormatInt(v, 10)), nil
	case uint:
		return TicketID(strconv.FormatUint(uint64(v), 10)), nil
	case uint32:
		return TicketID(strconv.FormatUint(uint64(v), 10)), nil
	case uint64:
		return TicketID(strconv.FormatUint(v, 10)), nil
	case float32:
		return normalizeIDFloat(float64(v))
	case float64:
		return normalizeIDFloat(v)
	default:
		return "", fmt.Errorf("%w: unsupported type %T", ErrInvalidTicketID, raw)
	}
}

// normalizeIDString canonicalizes strings holding a plain integer. Any other
// string, including "1.5" or "1e3", is kept verbatim so it cannot collide
// with a numeric id.
func normalizeIDString(s string) (TicketID, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidTicketID)
	}
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return TicketID(strconv.FormatInt(n, 10)), nil
	}
	return TicketID(trimmed), nil
}

// normalizeIDNumber applies the float rules to JSON numbers that are not
// plain integers.
func normalizeIDNumber(n json.Number) (TicketID, error) {
	if i, err := n.Int64(); err == nil {
		return TicketID(strconv.FormatInt(i, 10)), nil
	}
	f, err := n.Float64()
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a number", ErrInvalidTicketID, n.String())
	}
	return normalizeIDFloat(f)
}

func normalizeIDFloat(f float64) (TicketID, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return "", fmt.Errorf("%w: %v is not an integer", ErrInvalidTicketID, f)
	}
	return TicketID(strconv.FormatInt(int64(f), 10)), nil
}

// TicketFromRecord builds a Ticket from one decoded ticket object. The record
// must carry an "id"; "name" is optional and must be a string when present.
func TicketFromRecord(record map[string]any) (Ticket, error) {
	rawID, ok := record["id"]
	if !ok || rawID == nil {
		return Ticket{}, fmt.Errorf("%w: record has no id", ErrInvalidTicketID)
	}

	id, err := NormalizeTicketID(rawID)
	if err != nil {
		return Ticket{}, err
	}

	name, _ := record["name"].(string)
	return Ticket{ID: id, Name: name, Fields: record}, nil
}
