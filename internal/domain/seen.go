package domain

// SeenSet holds the ids observed in the previous successful poll.
type SeenSet map[TicketID]struct{}

func NewSeenSet(ids ...TicketID) SeenSet {
	set := make(SeenSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func (s SeenSet) Contains(id TicketID) bool {
	_, ok := s[id]
	return ok
}

func (s SeenSet) Len() int {
	return len(s)
}

// PollDiff is the outcome of comparing one poll against the previous one.
type PollDiff struct {
	// New holds one ticket per id absent from the previous set. When the
	// source returns the same id twice, the first record wins.
	New []Ticket
	// Current replaces the previous set wholesale, even when empty.
	Current SeenSet
}

func Diff(previous SeenSet, tickets []Ticket) PollDiff {
	current := make(SeenSet, len(tickets))
	var fresh []Ticket
	for _, ticket := range tickets {
		if current.Contains(ticket.ID) {
			continue
		}
		current[ticket.ID] = struct{}{}
		if !previous.Contains(ticket.ID) {
			fresh = append(fresh, ticket)
		}
	}

	return PollDiff{New: fresh, Current: current}
}
