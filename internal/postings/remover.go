package postings

import (
	"context"

	"github.com/eia/publicaciones/pkg/domain"
)

// RemoverState is the step of the delete confirmation flow.
type RemoverState int

const (
	Idle RemoverState = iota
	Confirming
	Deleting
	Alerting
)

func (s RemoverState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Confirming:
		return "confirming"
	case Deleting:
		return "deleting"
	case Alerting:
		return "alert"
	}
	return "unknown"
}

// Remover drives the deletion of one posting through confirmation. Methods
// return a new Remover.
type Remover struct {
	State RemoverState
	ID    domain.ID
	// Alert is the blocking message shown in the Alerting state.
	Alert string
}

// Enabled reports whether a delete can be requested.
func (r Remover) Enabled(hasToken bool) bool {
	return hasToken && r.State != Deleting
}

// Request asks for confirmation before deleting id. Without a session it
// goes straight to a blocking alert.
func (r Remover) Request(id domain.ID, hasToken bool) Remover {
	switch {
	case r.Enabled(hasToken):
		return Remover{State: Confirming, ID: id}
	case r.State == Deleting:
		return r
	}
	return Remover{State: Alerting, ID: id, Alert: MsgNoSession}
}

// Cancel abandons a pending confirmation.
func (r Remover) Cancel() Remover {
	if r.State != Confirming {
		return r
	}
	return Remover{}
}

// Confirm moves to deleting. ok is false when nothing was awaiting confirmation.
func (r Remover) Confirm() (Remover, bool) {
	if r.State != Confirming {
		return r, false
	}
	r.State = Deleting
	return r, true
}

// Finish applies the outcome of the delete request. Success yields a
// RemoveByID command; failure leaves the list alone and raises an alert.
func (r Remover) Finish(err error) (Remover, Command) {
	if r.State != Deleting {
		return r, nil
	}
	if err != nil {
		msg := MsgDeleteFailed
		if SessionLost(err) {
			msg = MsgNoSession
		}
		return Remover{State: Alerting, ID: r.ID, Alert: msg}, nil
	}
	return Remover{}, RemoveByID{ID: r.ID}
}

// Dismiss clears the alert.
func (r Remover) Dismiss() Remover {
	if r.State != Alerting {
		return r
	}
	return Remover{}
}

// Delete confirms and issues the request in one call.
func (r Remover) Delete(ctx context.Context, ctrl *Controller) (Remover, Command, error) {
	next, ok := r.Confirm()
	if !ok {
		return next, nil, nil
	}
	err := ctrl.DeletePosting(ctx, next.ID)
	next, cmd := next.Finish(err)
	return next, cmd, err
}
