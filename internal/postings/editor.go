package postings

import (
	"context"
	"fmt"
	"strconv"

	"github.com/eia/publicaciones/pkg/domain"
)

// Editor is the modal that edits one posting. Its methods return a new
// Editor; the receiver is never modified.
type Editor struct {
	ID             domain.ID
	TotalPositions string
	Zone           string
	Description    string

	Open       bool
	Submitting bool
	// Err is the inline error shown when the update was rejected.
	Err string
	// Fields holds per-field validation errors of the last submit attempt.
	Fields domain.FieldErrors
}

// NewEditor opens an editor seeded with the current values of p.
func NewEditor(p domain.Posting) Editor {
	d := domain.DraftFromPosting(p)
	return Editor{
		ID:             p.ID,
		TotalPositions: strconv.Itoa(d.TotalPositions),
		Zone:           d.Zone,
		Description:    d.Description,
		Open:           true,
	}
}

// SetTotalPositions replaces the raw total positions text.
func (e Editor) SetTotalPositions(v string) Editor {
	e.TotalPositions = v
	return e
}

func (e Editor) SetZone(v string) Editor {
	e.Zone = v
	return e
}

func (e Editor) SetDescription(v string) Editor {
	e.Description = v
	return e
}

// Close dismisses the modal without saving.
func (e Editor) Close() Editor {
	e.Open = false
	e.Submitting = false
	return e
}

// Begin validates the fields. When they are valid the editor moves to
// submitting and the parsed draft is returned with ok set.
func (e Editor) Begin() (Editor, domain.PostingDraft, bool) {
	if !e.Open || e.Submitting {
		return e, domain.PostingDraft{}, false
	}
	draft, errs := domain.ParsePostingDraft(e.TotalPositions, e.Zone, e.Description)
	if len(errs) > 0 {
		e.Fields = errs
		e.Err = ""
		return e, domain.PostingDraft{}, false
	}
	e.Fields = nil
	e.Err = ""
	e.Submitting = true
	return e, draft, true
}

// Finish applies the outcome of the update request. On success the modal
// closes and a ReplaceByID command is returned; on failure it stays open with
// an inline error.
func (e Editor) Finish(updated *domain.Posting, err error) (Editor, Command) {
	e.Submitting = false
	if err != nil {
		e.Err = MsgUpdateFailed
		return e, nil
	}
	e.Open = false
	e.Err = ""
	p := *updated
	if p.ID.IsZero() {
		p.ID = e.ID
	}
	return e, ReplaceByID{Posting: p}
}

// Submit runs Begin, the update request and Finish in one call.
func (e Editor) Submit(ctx context.Context, ctrl *Controller) (Editor, Command, error) {
	next, draft, ok := e.Begin()
	if !ok {
		if len(next.Fields) > 0 {
			return next, nil, fmt.Errorf("postings.Editor.Submit: %w: %w", ErrInvalidDraft, next.Fields)
		}
		return next, nil, nil
	}
	updated, err := ctrl.UpdatePosting(ctx, e.ID, draft)
	next, cmd := next.Finish(updated, err)
	return next, cmd, err
}
