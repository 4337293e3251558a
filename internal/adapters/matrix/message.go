package matrix

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/bnema/ticketwatch/internal/domain"
)

const DefaultTemplate = "🆕 New ticket created: {{.Name}} (ID: {{.ID}})"

// MessageFormatter renders the chat message for a ticket. A template that
// contains "{{" is parsed as text/template with .Name and .ID; anything else
// is a prefix placed in front of "<name> (ID: <id>)".
type MessageFormatter struct {
	tmpl   *template.Template
	prefix string
}

type messageData struct {
	ID     domain.TicketID
	Name   string
	Fields map[string]any
}

func NewMessageFormatter(text string) (*MessageFormatter, error) {
	if strings.TrimSpace(text) == "" {
		text = DefaultTemplate
	}

	if !strings.Contains(text, "{{") {
		return &MessageFormatter{prefix: strings.TrimRight(text, " ")}, nil
	}

	tmpl, err := template.New("message").Option("missingkey=zero").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse message template: %w", err)
	}
	return &MessageFormatter{tmpl: tmpl}, nil
}

func (f *MessageFormatter) Format(ticket domain.Ticket) (string, error) {
	if f.tmpl == nil {
		return fmt.Sprintf("%s %s (ID: %s)", f.prefix, ticket.DisplayName(), ticket.ID), nil
	}

	var buf bytes.Buffer
	data := messageData{ID: ticket.ID, Name: ticket.DisplayName(), Fields: ticket.Fields}
	if err := f.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render message template: %w", err)
	}
	return buf.String(), nil
}
