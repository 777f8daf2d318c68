package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/eia/publicaciones/internal/postings"
	"github.com/eia/publicaciones/pkg/domain"
)

type dashMode int

const (
	dashList dashMode = iota
	dashCreate
	dashEdit
)

const (
	postTotal = iota
	postZone
	postDescription
	numPostFields
)

var postingFields = []formField{
	{label: "número total de puestos"},
	{label: "zona"},
	{label: "descripción"},
}

var postingFieldNames = [numPostFields]string{
	postTotal:       domain.FieldTotalPositions,
	postZone:        domain.FieldZone,
	postDescription: domain.FieldDescription,
}

type dashboardModel struct {
	ctrl   *postings.Controller
	state  postings.State
	cursor int
	mode   dashMode

	create     []string
	createFoc  int
	createErrs domain.FieldErrors
	createErr  string
	creating   bool

	editor  postings.Editor
	editFoc int

	remover postings.Remover

	statusMsg string
	width     int
	height    int
}

type userLoadedMsg struct {
	cmd postings.Command
	err error
}

type postingsLoadedMsg struct {
	cmd postings.Command
	err error
}

type postingCreatedMsg struct {
	cmd postings.Command
	err error
}

type postingUpdatedMsg struct {
	posting *domain.Posting
	err     error
}

type postingDeletedMsg struct{ err error }

type copyResultMsg struct{ err error }

// sessionLostMsg tells the app the backend rejected the token.
type sessionLostMsg struct{}

// logoutMsg asks the app to clear the session and return to login.
type logoutMsg struct{}

func newDashboardModel(ctrl *postings.Controller) dashboardModel {
	return dashboardModel{
		ctrl:   ctrl,
		state:  postings.Initial(),
		create: make([]string, numPostFields),
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(m.loadUser(), m.loadPostings())
}

func (m dashboardModel) loadUser() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		cmd, err := ctrl.LoadCurrentUser(context.Background())
		return userLoadedMsg{cmd: cmd, err: err}
	}
}

func (m dashboardModel) loadPostings() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		cmd, err := ctrl.LoadPostings(context.Background())
		return postingsLoadedMsg{cmd: cmd, err: err}
	}
}

func sessionLost() tea.Msg { return sessionLostMsg{} }

// isEditing reports whether keys should go to a text input.
func (m dashboardModel) isEditing() bool {
	return m.mode != dashList
}

func (m dashboardModel) selected() (domain.Posting, bool) {
	if m.cursor < 0 || m.cursor >= len(m.state.Postings) {
		return domain.Posting{}, false
	}
	return m.state.Postings[m.cursor], true
}

func (m dashboardModel) clampCursor() dashboardModel {
	if m.cursor >= len(m.state.Postings) {
		m.cursor = len(m.state.Postings) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	return m
}

func (m dashboardModel) Update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case userLoadedMsg:
		m.state = postings.Apply(m.state, msg.cmd)
		return m, nil

	case postingsLoadedMsg:
		m.state = postings.Apply(m.state, msg.cmd)
		m.statusMsg = ""
		m = m.clampCursor()
		// A failed user load already shows its own page with a way back to login.
		if postings.SessionLost(msg.err) && m.state.Fatal == "" {
			return m, sessionLost
		}
		return m, nil

	case postingCreatedMsg:
		m.creating = false
		if msg.err != nil {
			if postings.SessionLost(msg.err) {
				return m, sessionLost
			}
			var fe domain.FieldErrors
			if errors.As(msg.err, &fe) {
				m.createErrs = fe
			} else {
				m.createErr = postings.MsgCreateFailed
			}
			return m, nil
		}
		m.state = postings.Apply(m.state, msg.cmd)
		m.create = make([]string, numPostFields)
		m.createFoc = 0
		m.createErrs = nil
		m.createErr = ""
		m.mode = dashList
		m.cursor = len(m.state.Postings) - 1
		m.statusMsg = "publicación creada"
		return m, nil

	case postingUpdatedMsg:
		var cmd postings.Command
		m.editor, cmd = m.editor.Finish(msg.posting, msg.err)
		m.state = postings.Apply(m.state, cmd)
		if postings.SessionLost(msg.err) {
			return m, sessionLost
		}
		if !m.editor.Open {
			m.mode = dashList
			m.statusMsg = "publicación actualizada"
		}
		return m, nil

	case postingDeletedMsg:
		var cmd postings.Command
		m.remover, cmd = m.remover.Finish(msg.err)
		m.state = postings.Apply(m.state, cmd)
		m = m.clampCursor()
		if msg.err == nil {
			m.statusMsg = "publicación eliminada"
		}
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			m.statusMsg = "no se pudo copiar"
		} else {
			m.statusMsg = "copiado al portapapeles"
		}
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m dashboardModel) updateKeys(msg tea.KeyMsg) (dashboardModel, tea.Cmd) {
	key := msg.String()

	if m.state.Fatal != "" {
		if key == "enter" || key == "L" {
			return m, func() tea.Msg { return logoutMsg{} }
		}
		return m, nil
	}

	switch m.remover.State {
	case postings.Confirming:
		switch key {
		case "y", "s", "enter":
			return m.confirmDelete()
		case "n", "esc":
			m.remover = m.remover.Cancel()
		}
		return m, nil
	case postings.Deleting:
		return m, nil
	case postings.Alerting:
		if key == "enter" || key == "esc" {
			m.remover = m.remover.Dismiss()
			if !m.ctrl.HasSession() {
				return m, sessionLost
			}
		}
		return m, nil
	}

	switch m.mode {
	case dashCreate:
		return m.updateCreate(msg)
	case dashEdit:
		return m.updateEdit(msg)
	}

	m.statusMsg = ""
	switch key {
	case "j", "down":
		if m.cursor < len(m.state.Postings)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "r":
		m.statusMsg = "recargando..."
		return m, m.loadPostings()
	case "L":
		return m, func() tea.Msg { return logoutMsg{} }
	}

	if !m.state.Ready() {
		return m, nil
	}

	switch key {
	case "n":
		m.mode = dashCreate
		m.createErr = ""
	case "e":
		if p, ok := m.selected(); ok {
			m.editor = postings.NewEditor(p)
			m.editFoc = 0
			m.mode = dashEdit
		}
	case "d":
		if p, ok := m.selected(); ok {
			m.remover = m.remover.Request(p.ID, m.ctrl.HasSession())
		}
	case "c":
		if p, ok := m.selected(); ok {
			text := postings.Describe(p)
			return m, func() tea.Msg {
				err := clipboard.WriteAll(text)
				return copyResultMsg{err: err}
			}
		}
	}
	return m, nil
}

func (m dashboardModel) updateCreate(msg tea.KeyMsg) (dashboardModel, tea.Cmd) {
	if m.creating {
		return m, nil
	}
	switch msg.String() {
	case "esc":
		m.mode = dashList
	case "ctrl+s":
		return m.submitCreate()
	case "tab", "down", "enter":
		m.createFoc = (m.createFoc + 1) % numPostFields
	case "shift+tab", "up":
		m.createFoc = (m.createFoc - 1 + numPostFields) % numPostFields
	default:
		m.create[m.createFoc] = typeInto(m.create[m.createFoc], msg)
	}
	return m, nil
}

func (m dashboardModel) submitCreate() (dashboardModel, tea.Cmd) {
	m.createErr = ""
	draft, errs := domain.ParsePostingDraft(m.create[postTotal], m.create[postZone], m.create[postDescription])
	if len(errs) > 0 {
		m.createErrs = errs
		return m, nil
	}
	m.createErrs = nil
	m.creating = true
	ctrl, user := m.ctrl, m.state.User
	return m, func() tea.Msg {
		cmd, err := ctrl.CreatePosting(context.Background(), draft, user)
		return postingCreatedMsg{cmd: cmd, err: err}
	}
}

func (m dashboardModel) editValues() []string {
	return []string{m.editor.TotalPositions, m.editor.Zone, m.editor.Description}
}

func (m dashboardModel) updateEdit(msg tea.KeyMsg) (dashboardModel, tea.Cmd) {
	if m.editor.Submitting {
		return m, nil
	}
	switch msg.String() {
	case "esc":
		m.editor = m.editor.Close()
		m.mode = dashList
	case "ctrl+s":
		ed, draft, ok := m.editor.Begin()
		m.editor = ed
		if !ok {
			return m, nil
		}
		ctrl, id := m.ctrl, ed.ID
		return m, func() tea.Msg {
			p, err := ctrl.UpdatePosting(context.Background(), id, draft)
			return postingUpdatedMsg{posting: p, err: err}
		}
	case "tab", "down", "enter":
		m.editFoc = (m.editFoc + 1) % numPostFields
	case "shift+tab", "up":
		m.editFoc = (m.editFoc - 1 + numPostFields) % numPostFields
	default:
		v := typeInto(m.editValues()[m.editFoc], msg)
		switch m.editFoc {
		case postTotal:
			m.editor = m.editor.SetTotalPositions(v)
		case postZone:
			m.editor = m.editor.SetZone(v)
		case postDescription:
			m.editor = m.editor.SetDescription(v)
		}
	}
	return m, nil
}

func (m dashboardModel) confirmDelete() (dashboardModel, tea.Cmd) {
	r, ok := m.remover.Confirm()
	m.remover = r
	if !ok {
		return m, nil
	}
	ctrl, id := m.ctrl, r.ID
	return m, func() tea.Msg {
		return postingDeletedMsg{err: ctrl.DeletePosting(context.Background(), id)}
	}
}

func fieldErrs(errs domain.FieldErrors) map[int]string {
	out := make(map[int]string, numPostFields)
	for i, name := range postingFieldNames {
		out[i] = errs[name]
	}
	return out
}

func (m dashboardModel) View() string {
	if m.state.Fatal != "" {
		return "\n  " + errorStyle.Render(m.state.Fatal) + "\n\n  " +
			helpEntry("enter", "volver al inicio de sesión") + "\n"
	}
	if !m.state.Ready() {
		return "\n  " + dimStyle.Render("cargando...") + "\n"
	}

	var b strings.Builder
	u := m.state.User
	fmt.Fprintf(&b, "  %s %s  %s\n", dimStyle.Render("Bienvenido,"), selectedStyle.Render(u.DisplayName()), metaStyle.Render(u.Email))

	if m.state.Banner != "" {
		fmt.Fprintf(&b, "\n  %s\n  %s\n", bannerStyle.Render(m.state.Banner),
			helpEntry("r", "reintentar")+"  "+helpEntry("L", "volver al inicio de sesión"))
	}

	if m.mode == dashCreate {
		b.WriteString("\n" + sectionHeaderStyle.Render("  Nueva publicación") + "\n")
		b.WriteString(renderForm(postingFields, m.create, m.createFoc, fieldErrs(m.createErrs)))
		switch {
		case m.creating:
			b.WriteString("  " + dimStyle.Render("creando...") + "\n")
		case m.createErr != "":
			b.WriteString("  " + errorStyle.Render(m.createErr) + "\n")
		}
	}

	b.WriteString("\n" + sectionHeaderStyle.Render("  Publicaciones") + "\n")
	b.WriteString(m.listView())

	switch {
	case m.mode == dashEdit:
		b.WriteString("\n" + m.editorView())
	case m.remover.State == postings.Confirming || m.remover.State == postings.Deleting:
		b.WriteString("\n" + m.confirmView())
	case m.remover.State == postings.Alerting:
		b.WriteString("\n" + alertStyle.Render(m.remover.Alert+"\n\n"+helpEntry("enter", "aceptar")))
	}

	if m.statusMsg != "" {
		b.WriteString("\n  " + successStyle.Render(m.statusMsg))
	}
	return b.String()
}

func (m dashboardModel) listView() string {
	if len(m.state.Postings) == 0 {
		return "  " + dimStyle.Render(postings.MsgEmptyList) + "\n"
	}
	descWidth := m.width - 50
	if descWidth < 20 {
		descWidth = 20
	}
	var b strings.Builder
	for i, p := range m.state.Postings {
		row := fmt.Sprintf("%s · %s · %s",
			ownerStyle.Render(truncStr(p.Owner.DisplayName(), 24)),
			normalStyle.Render(fmt.Sprintf("%d puestos", p.TotalPositions)),
			zoneStyle.Render(truncStr(p.Zone, 20)))
		if p.Description != "" {
			row += " · " + dimStyle.Render(truncStr(oneLine(p.Description), descWidth))
		}
		if i == m.cursor {
			b.WriteString(selectedRowBg.Render(inputPromptStyle.Render("> ")+row) + "\n")
		} else {
			b.WriteString("  " + row + "\n")
		}
	}
	return b.String()
}

func (m dashboardModel) editorView() string {
	var b strings.Builder
	b.WriteString(selectedStyle.Render("Editar publicación") + "\n\n")
	b.WriteString(renderForm(postingFields, m.editValues(), m.editFoc, fieldErrs(m.editor.Fields)))
	switch {
	case m.editor.Submitting:
		b.WriteString("\n" + dimStyle.Render("guardando..."))
	case m.editor.Err != "":
		b.WriteString("\n" + errorStyle.Render(m.editor.Err))
	}
	return modalStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m dashboardModel) confirmView() string {
	if m.remover.State == postings.Deleting {
		return modalStyle.Render(dimStyle.Render("eliminando..."))
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		postings.MsgConfirmDelete,
		"",
		helpEntry("y", "eliminar")+"  "+helpEntry("n", "cancelar"),
	)
	return modalStyle.Render(body)
}

func (m dashboardModel) helpKeys() string {
	switch {
	case m.state.Fatal != "":
		return helpBar("enter", "volver al inicio de sesión", "q", "salir")
	case m.remover.State == postings.Confirming:
		return helpBar("y", "eliminar", "n", "cancelar")
	case m.remover.State == postings.Alerting:
		return helpBar("enter", "aceptar")
	case m.mode == dashCreate, m.mode == dashEdit:
		return helpBar("tab", "siguiente", "ctrl+s", "guardar", "esc", "cancelar")
	}
	keys := []string{"j/k", "mover", "n", "nueva", "e", "editar"}
	if m.remover.Enabled(m.ctrl.HasSession()) {
		keys = append(keys, "d", "eliminar")
	}
	keys = append(keys, "c", "copiar", "r", "recargar", "L", "salir de la cuenta", "q", "salir")
	return helpBar(keys...)
}
