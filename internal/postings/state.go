package postings

import (
	"fmt"

	"github.com/eia/publicaciones/pkg/domain"
)

// Status is the load state of one data source of the dashboard.
type Status int

const (
	Loading Status = iota
	Ready
	Error
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Error:
		return "error"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// State is an immutable snapshot of the dashboard. The current user and the
// posting list load independently; both must be ready before postings render.
type State struct {
	UserStatus Status
	ListStatus Status
	User       *domain.User
	Postings   []domain.Posting
	// Banner is a non-fatal message shown above the list.
	Banner string
	// Fatal is a blocking error that replaces the dashboard.
	Fatal string
}

// Initial is the snapshot before anything has loaded.
func Initial() State {
	return State{UserStatus: Loading, ListStatus: Loading}
}

// Ready reports whether both the user and the list have resolved.
func (s State) Ready() bool {
	return s.UserStatus == Ready && s.ListStatus != Loading
}

// Find returns the posting with id.
func (s State) Find(id domain.ID) (domain.Posting, bool) {
	for _, p := range s.Postings {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Posting{}, false
}

// Command is a state transition produced by an operation and applied by the
// dashboard with Apply.
type Command interface {
	apply(State) State
}

// Apply returns the snapshot that results from running cmds in order. s is
// never modified.
func Apply(s State, cmds ...Command) State {
	s.Postings = clonePostings(s.Postings)
	for _, c := range cmds {
		if c != nil {
			s = c.apply(s)
		}
	}
	return s
}

// ReplaceAll installs a freshly fetched list.
type ReplaceAll struct{ Postings []domain.Posting }

func (c ReplaceAll) apply(s State) State {
	s.Postings = clonePostings(c.Postings)
	s.ListStatus = Ready
	s.Banner = ""
	return s
}

// Append adds a created posting at the end of the list.
type Append struct{ Posting domain.Posting }

func (c Append) apply(s State) State {
	s.Postings = append(s.Postings, c.Posting)
	return s
}

// ReplaceByID swaps in an updated posting. The previously known owner is kept
// because update responses do not embed it.
type ReplaceByID struct{ Posting domain.Posting }

func (c ReplaceByID) apply(s State) State {
	for i, p := range s.Postings {
		if p.ID != c.Posting.ID {
			continue
		}
		updated := c.Posting
		if p.Owner != nil {
			updated.Owner = p.Owner
		}
		s.Postings[i] = updated
		return s
	}
	return s
}

// RemoveByID drops a deleted posting.
type RemoveByID struct{ ID domain.ID }

func (c RemoveByID) apply(s State) State {
	out := s.Postings[:0]
	for _, p := range s.Postings {
		if p.ID != c.ID {
			out = append(out, p)
		}
	}
	s.Postings = out
	return s
}

// SetUser records the resolved current user.
type SetUser struct{ User domain.User }

func (c SetUser) apply(s State) State {
	u := c.User
	s.User = &u
	s.UserStatus = Ready
	return s
}

// UserFailed marks the current user as unavailable; the dashboard is replaced
// by a blocking error.
type UserFailed struct{ Message string }

func (c UserFailed) apply(s State) State {
	s.UserStatus = Error
	s.User = nil
	s.Fatal = c.Message
	return s
}

// ListFailed leaves the list empty and shows a banner.
type ListFailed struct{ Message string }

func (c ListFailed) apply(s State) State {
	s.ListStatus = Error
	s.Postings = nil
	s.Banner = c.Message
	return s
}

// Reset discards everything, as on logout.
type Reset struct{}

func (Reset) apply(State) State {
	return Initial()
}

func clonePostings(in []domain.Posting) []domain.Posting {
	if in == nil {
		return nil
	}
	out := make([]domain.Posting, len(in))
	copy(out, in)
	return out
}
