package tickets

import (
	"fmt"
	"strings"

	"github.com/bnema/ticketwatch/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const (
	dateField   = "date"
	statusField = "status"
	maxNameRune = 60
)

type RenderOptions struct {
	// Source is shown in the header, typically the GLPI base URL.
	Source string
}

// GLPI ticket status codes.
var statusLabels = map[string]string{
	"1": "new",
	"2": "assigned",
	"3": "planned",
	"4": "waiting",
	"5": "solved",
	"6": "closed",
}

func renderView(tickets []domain.Ticket, opts RenderOptions, s styles) string {
	header := fmt.Sprintf("tickets: %d", len(tickets))
	if opts.Source != "" {
		header += " from " + opts.Source
	}

	lines := []string{
		s.title.Render("GLPI Tickets"),
		s.header.Render(header),
	}

	if len(tickets) == 0 {
		lines = append(lines, s.empty.Render("No tickets returned."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	idWidth := len("ID")
	for _, ticket := range tickets {
		idWidth = max(idWidth, lipgloss.Width(string(ticket.ID)))
	}

	lines = append(lines, "", s.column.Render(fmt.Sprintf("%-*s  %-9s  %s", idWidth, "ID", "STATUS", "NAME")))
	for _, ticket := range tickets {
		lines = append(lines, ticketLine(ticket, idWidth, s))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func ticketLine(ticket domain.Ticket, idWidth int, s styles) string {
	parts := []string{
		s.id.Render(fmt.Sprintf("%-*s", idWidth, ticket.ID)),
		s.meta.Render(fmt.Sprintf("%-9s", statusLabel(ticket.Fields[statusField]))),
		s.name.Render(truncate(ticket.DisplayName(), maxNameRune)),
	}
	if date := fieldString(ticket.Fields[dateField]); date != "" {
		parts = append(parts, s.meta.Render("("+date+")"))
	}

	return strings.Join(parts, "  ")
}

func statusLabel(raw any) string {
	code := fieldString(raw)
	if label, ok := statusLabels[code]; ok {
		return label
	}
	if code == "" {
		return "-"
	}
	return code
}

func fieldString(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
