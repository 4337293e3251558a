package cmd

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/bnema/ticketwatch/internal/domain"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type ticketsFetchedMsg struct {
	tickets []domain.Ticket
	err     error
}

// ticketFetchModel spins while GLPI is queried and keeps the result.
type ticketFetchModel struct {
	spinner spinner.Model
	host    string
	fetch   tea.Cmd
	tickets []domain.Ticket
	err     error
	done    bool
}

func newTicketFetchModel(host string, fetch tea.Cmd) ticketFetchModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return ticketFetchModel{
		spinner: s,
		host:    host,
		fetch:   fetch,
	}
}

func (m ticketFetchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch)
}

func (m ticketFetchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case ticketsFetchedMsg:
		m.done = true
		m.tickets = msg.tickets
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m ticketFetchModel) View() string {
	if m.done {
		return ""
	}
	if m.host == "" {
		return fmt.Sprintf("%s Fetching tickets...", m.spinner.View())
	}
	return fmt.Sprintf("%s Fetching tickets from %s...", m.spinner.View(), m.host)
}

// fetchTicketsWithSpinner runs fetch behind a spinner on output. The spinner
// names the GLPI host taken from baseURL.
func fetchTicketsWithSpinner(ctx context.Context, output io.Writer, baseURL string, fetch func(context.Context) ([]domain.Ticket, error)) ([]domain.Ticket, error) {
	fetchCmd := func() tea.Msg {
		tickets, err := fetch(ctx)
		return ticketsFetchedMsg{tickets: tickets, err: err}
	}

	p := tea.NewProgram(
		newTicketFetchModel(spinnerHost(baseURL), fetchCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}

	result, ok := finalModel.(ticketFetchModel)
	if !ok {
		return nil, fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.tickets, result.err
}

func spinnerHost(baseURL string) string {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	return parsed.Host
}
