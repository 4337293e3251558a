package tickets

import (
	"cmp"
	"errors"
	"io"
	"slices"
	"strconv"

	"github.com/bnema/ticketwatch/internal/domain"
	tea "github.com/charmbracelet/bubbletea"
)

var ErrUnexpectedRenderModel = errors.New("unexpected final bubbletea model type")

type renderReadyMsg struct{}

type model struct {
	tickets []domain.Ticket
	opts    RenderOptions
	styles  styles
	output  string
}

func newModel(tickets []domain.Ticket, opts RenderOptions) model {
	return model{
		tickets: sortedByID(tickets),
		opts:    opts,
		styles:  newStyles(),
	}
}

func (m model) Init() tea.Cmd {
	return func() tea.Msg {
		return renderReadyMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case renderReadyMsg:
		m.output = renderView(m.tickets, m.opts, m.styles)
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m model) View() string {
	return m.output
}

// sortedByID orders numeric ids numerically, before any non-numeric id.
func sortedByID(tickets []domain.Ticket) []domain.Ticket {
	sorted := slices.Clone(tickets)
	slices.SortStableFunc(sorted, func(a, b domain.Ticket) int {
		an, aErr := strconv.ParseInt(string(a.ID), 10, 64)
		bn, bErr := strconv.ParseInt(string(b.ID), 10, 64)
		switch {
		case aErr == nil && bErr == nil:
			return cmp.Compare(an, bn)
		case aErr == nil:
			return -1
		case bErr == nil:
			return 1
		default:
			return cmp.Compare(a.ID, b.ID)
		}
	})
	return sorted
}

// Render lays out tickets as a table for the terminal.
func Render(tickets []domain.Ticket, opts RenderOptions) (string, error) {
	p := tea.NewProgram(
		newModel(tickets, opts),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	rendered, ok := finalModel.(model)
	if !ok {
		return "", ErrUnexpectedRenderModel
	}

	return rendered.View(), nil
}
