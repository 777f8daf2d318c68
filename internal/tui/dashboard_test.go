package tui

import (
	"net/http"
	"strings"
	"testing"

	"github.com/eia/publicaciones/internal/postings"
	"github.com/eia/publicaciones/pkg/domain"
)

func TestDashboardEmptyList(t *testing.T) {
	h := newHarness(t)
	a := h.loggedIn(t)

	if !strings.Contains(a.View(), "No hay publicaciones disponibles.") {
		t.Errorf("expected empty-list message, got:\n%s", a.View())
	}
}

func TestDashboardListsOwnerAndFields(t *testing.T) {
	h := newHarness(t)
	h.srv.SeedPosting(h.user.ID, domain.PostingDraft{TotalPositions: 3, Zone: "Norte", Description: "turno\nnoche"})
	a := h.loggedIn(t)

	v := a.View()
	for _, want := range []string{"Ana Gómez", "3 puestos", "Norte", "turno noche"} {
		if !strings.Contains(v, want) {
			t.Errorf("expected %q in view", want)
		}
	}
}

func TestDashboardUnknownOwner(t *testing.T) {
	h := newHarness(t)
	h.srv.SeedPosting("999", domain.PostingDraft{TotalPositions: 1, Zone: "Sur"})
	a := h.loggedIn(t)
	if !strings.Contains(a.View(), domain.UnknownUserName) {
		t.Error("expected fallback owner name")
	}
}

func TestDashboardCursorMovement(t *testing.T) {
	h := newHarness(t)
	for _, z := range []string{"A", "B", "C"} {
		h.srv.SeedPosting(h.user.ID, domain.PostingDraft{TotalPositions: 1, Zone: z})
	}
	a := h.loggedIn(t)

	a = press(t, a, "j", "j", "j")
	if a.dash.cursor != 2 {
		t.Errorf("expected cursor clamped at 2, got %d", a.dash.cursor)
	}
	a = press(t, a, "k")
	if a.dash.cursor != 1 {
		t.Errorf("expected cursor=1, got %d", a.dash.cursor)
	}
}

func TestDashboardCreate(t *testing.T) {
	h := newHarness(t)
	a := h.loggedIn(t)

	a = press(t, a, "n")
	if a.dash.mode != dashCreate {
		t.Fatalf("expected create mode, got %d", a.dash.mode)
	}
	a = press(t, a, "5", "tab", "North", "tab", "desc", "ctrl+s")

	if a.dash.mode != dashList {
		t.Fatalf("expected list mode after create, got %d (err=%q)", a.dash.mode, a.dash.createErr)
	}
	list := a.dash.state.Postings
	if len(list) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(list))
	}
	p := list[0]
	if p.TotalPositions != 5 || p.Zone != "North" || p.Description != "desc" {
		t.Errorf("unexpected posting %+v", p)
	}
	if p.Owner == nil || p.Owner.ID != h.user.ID {
		t.Errorf("expected posting attributed to the current user, got %v", p.Owner)
	}
	if a.dash.create[postZone] != "" {
		t.Error("expected form reset")
	}
}

func TestDashboardCreateValidation(t *testing.T) {
	h := newHarness(t)
	a := press(t, h.loggedIn(t), "n", "muchos", "ctrl+s")

	if !a.dash.createErrs.Has(domain.FieldTotalPositions) || !a.dash.createErrs.Has(domain.FieldZone) {
		t.Errorf("expected total and zone errors, got %v", a.dash.createErrs)
	}
	if n := h.srv.Calls(http.MethodPost, "/publicacion"); n != 0 {
		t.Errorf("expected no create request, got %d", n)
	}
	if a.dash.create[postTotal] != "muchos" {
		t.Error("expected draft kept")
	}
}

func TestDashboardCreateFailure(t *testing.T) {
	h := newHarness(t)
	h.srv.Fail(http.MethodPost, "/publicacion", http.StatusInternalServerError)
	a := press(t, h.loggedIn(t), "n", "2", "tab", "Sur", "ctrl+s")

	if a.dash.createErr != postings.MsgCreateFailed {
		t.Errorf("expected create failure message, got %q", a.dash.createErr)
	}
	if a.dash.mode != dashCreate || a.dash.create[postZone] != "Sur" {
		t.Error("expected form to stay open with the draft")
	}
}

func TestDashboardCreateEscCancels(t *testing.T) {
	h := newHarness(t)
	a := press(t, h.loggedIn(t), "n", "esc")
	if a.dash.mode != dashList {
		t.Errorf("expected list mode, got %d", a.dash.mode)
	}
}

func TestDashboardEditZone(t *testing.T) {
	h := newHarness(t)
	h.srv.SeedPosting(h.user.ID, domain.PostingDraft{TotalPositions: 4, Zone: "North", Description: "a"})
	h.srv.SeedPosting(h.user.ID, domain.PostingDraft{TotalPositions: 1, Zone: "East", Description: "b"})
	a := h.loggedIn(t)
	before := a.dash.state.Postings[0]

	a = press(t, a, "e")
	if a.dash.mode != dashEdit || !a.dash.editor.Open {
		t.Fatal("expected editor open")
	}
	a = press(t, a, "tab", "backspace", "backspace", "backspace", "backspace", "backspace", "South", "ctrl+s")

	if a.dash.mode != dashList {
		t.Fatalf("expected editor closed, got mode %d (err=%q)", a.dash.mode, a.dash.editor.Err)
	}
	got := a.dash.state.Postings[0]
	if got.Zone != "South" || got.TotalPositions != 4 || got.Description != "a" {
		t.Errorf("unexpected posting after update %+v", got)
	}
	if got.Owner == nil || *got.Owner != *before.Owner {
		t.Errorf("expected owner preserved, got %v", got.Owner)
	}
	if a.dash.state.Postings[1].Zone != "East" {
		t.Error("other postings must not change")
	}
}

func TestDashboardEditForbidden(t *testing.T) {
	h := newHarness(t)
	luis, _ := h.srv.SeedUser("Luis", "luis@eia.edu.co", testPassword)
	h.srv.SeedPosting(luis.ID, domain.PostingDraft{TotalPositions: 1, Zone: "North"})
	a := press(t, h.loggedIn(t), "e", "ctrl+s")

	if a.dash.mode != dashEdit {
		t.Fatal("expected editor to stay open")
	}
	if a.dash.editor.Err != postings.MsgUpdateFailed {
		t.Errorf("expected ownership message, got %q", a.dash.editor.Err)
	}
	if !strings.Contains(a.View(), "otros usuarios") {
		t.Error("expected inline error in view")
	}

	a = press(t, a, "esc")
	if a.dash.mode != dashList || a.dash.editor.Open {
		t.Error("expected esc to close the editor")
	}
}

func TestDashboardDeleteCancel(t *testing.T) {
	h := newHarness(t)
	p := h.srv.SeedPosting(h.user.ID, domain.PostingDraft{TotalPositions: 1, Zone: "North"})
	a := press(t, h.loggedIn(t), "d")

	if a.dash.remover.State != postings.Confirming {
		t.Fatalf("expected confirmation, got %s", a.dash.remover.State)
	}
	if !strings.Contains(a.View(), postings.MsgConfirmDelete) {
		t.Error("expected confirmation prompt")
	}
	a = press(t, a, "n")
	if a.dash.remover.State != postings.Idle || len(a.dash.state.Postings) != 1 {
		t.Error("expected cancel to keep the posting")
	}
	if n := h.srv.Calls(http.MethodDelete, "/publicacion/"+p.ID.String()); n != 0 {
		t.Errorf("expected no delete request, got %d", n)
	}
}

func TestDashboardDeleteConfirm(t *testing.T) {
	h := newHarness(t)
	p := h.srv.SeedPosting(h.user.ID, domain.PostingDraft{TotalPositions: 1, Zone: "North"})
	a := press(t, h.loggedIn(t), "d", "y")

	if _, ok := a.dash.state.Find(p.ID); ok {
		t.Error("expected posting removed")
	}
	if a.dash.remover.State != postings.Idle {
		t.Errorf("expected idle remover, got %s", a.dash.remover.State)
	}
}

func TestDashboardDeleteInFlightHidesDelete(t *testing.T) {
	h := newHarness(t)
	h.srv.SeedPosting(h.user.ID, domain.PostingDraft{TotalPositions: 1, Zone: "North"})
	a := h.loggedIn(t)
	if !strings.Contains(a.dash.helpKeys(), "eliminar") {
		t.Fatal("expected delete key offered while idle")
	}

	a = press(t, a, "d")
	model, cmd := a.Update(keyMsg("y"))
	a = model.(App)
	if cmd == nil {
		t.Fatal("expected a delete command")
	}
	if a.dash.remover.State != postings.Deleting {
		t.Fatalf("expected deleting, got %s", a.dash.remover.State)
	}
	if strings.Contains(a.dash.helpKeys(), "eliminar") {
		t.Error("delete key must not be offered while a delete is in flight")
	}
	model, _ = a.Update(keyMsg("d"))
	if model.(App).dash.remover.State != postings.Deleting {
		t.Error("a second request must not interrupt the delete in flight")
	}
}

func TestDashboardDeleteForbiddenAlert(t *testing.T) {
	h := newHarness(t)
	luis, _ := h.srv.SeedUser("Luis", "luis@eia.edu.co", testPassword)
	h.srv.SeedPosting(luis.ID, domain.PostingDraft{TotalPositions: 1, Zone: "North"})
	a := h.loggedIn(t)
	before := append([]domain.Posting(nil), a.dash.state.Postings...)

	a = press(t, a, "d", "y")
	if a.dash.remover.State != postings.Alerting {
		t.Fatalf("expected blocking alert, got %s", a.dash.remover.State)
	}
	if !strings.Contains(a.View(), postings.MsgDeleteFailed) {
		t.Error("expected alert text in view")
	}
	if len(a.dash.state.Postings) != len(before) || a.dash.state.Postings[0].ID != before[0].ID {
		t.Error("expected list unchanged")
	}

	a = press(t, a, "j", "e")
	if a.dash.mode != dashList || a.dash.remover.State != postings.Alerting {
		t.Error("alert must block other keys")
	}
	a = press(t, a, "enter")
	if a.dash.remover.State != postings.Idle || a.view != viewDashboard {
		t.Error("expected alert dismissed on the dashboard")
	}
}

func TestDashboardListFailureShowsBanner(t *testing.T) {
	h := newHarness(t)
	h.srv.Fail(http.MethodGet, "/publicacion", http.StatusInternalServerError)
	a := h.loggedIn(t)

	v := a.View()
	if !strings.Contains(v, postings.MsgListFailed) {
		t.Error("expected banner")
	}
	if !strings.Contains(v, postings.MsgEmptyList) {
		t.Error("expected empty list under the banner")
	}
	if !h.ctrl.HasSession() {
		t.Error("list failure must keep the session")
	}

	h.srv.ClearFailures()
	h.srv.SeedPosting(h.user.ID, domain.PostingDraft{TotalPositions: 1, Zone: "North"})
	a = press(t, a, "r")
	if a.dash.state.Banner != "" || len(a.dash.state.Postings) != 1 {
		t.Error("expected reload to clear the banner")
	}
}

func TestDashboardUserFailureIsFatal(t *testing.T) {
	h := newHarness(t)
	h.srv.Fail(http.MethodGet, "/usuario", http.StatusInternalServerError)
	if err := h.store.Set(h.token, nil); err != nil {
		t.Fatal(err)
	}
	a := h.app(t)
	a = run(t, a, a.Init())

	if !strings.Contains(a.View(), postings.MsgUserFailed) {
		t.Errorf("expected full-page error, got:\n%s", a.View())
	}
	if _, ok := h.store.Token(); ok {
		t.Error("expected forced logout")
	}
	a = press(t, a, "enter")
	if a.view != viewLogin {
		t.Errorf("expected return to login, got %d", a.view)
	}
}
