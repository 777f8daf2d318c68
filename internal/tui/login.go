package tui

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/eia/publicaciones/internal/auth"
	"github.com/eia/publicaciones/pkg/domain"
)

const (
	loginEmail = iota
	loginPassword
	numLoginFields
)

var loginFields = []formField{
	{label: "correo electrónico"},
	{label: "contraseña", secret: true},
}

type loginModel struct {
	flow   *auth.Flow
	fields []string
	focus  int
	errs   domain.FieldErrors
	err    string
	notice string
	state  auth.State
}

// loggedInMsg carries the result of a login attempt.
type loggedInMsg struct {
	user *domain.User
	err  error
}

// showRegisterMsg asks the app to switch to the registration form.
type showRegisterMsg struct{}

func newLoginModel(flow *auth.Flow) loginModel {
	return loginModel{flow: flow, fields: make([]string, numLoginFields)}
}

// withEmail returns a fresh form pre-filled with email, focused on the password.
func (m loginModel) withEmail(email, notice string) loginModel {
	m = newLoginModel(m.flow)
	m.fields[loginEmail] = email
	if email != "" {
		m.focus = loginPassword
	}
	m.notice = notice
	return m
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case loggedInMsg:
		m.state = auth.Authenticated
		if msg.err != nil {
			m.state = auth.Failed
			var fe domain.FieldErrors
			if errors.As(msg.err, &fe) {
				m.errs = fe
			} else {
				m.err = auth.LoginMessage(msg.err)
			}
		}
		return m, nil

	case tea.KeyMsg:
		if m.state == auth.Submitting {
			return m, nil
		}
		switch msg.String() {
		case "ctrl+s", "enter":
			if msg.String() == "enter" && m.focus < numLoginFields-1 {
				m.focus++
				return m, nil
			}
			return m.submit()
		case "tab", "down":
			m.focus = (m.focus + 1) % numLoginFields
		case "shift+tab", "up":
			m.focus = (m.focus - 1 + numLoginFields) % numLoginFields
		case "ctrl+r":
			return m, func() tea.Msg { return showRegisterMsg{} }
		default:
			m.fields[m.focus] = typeInto(m.fields[m.focus], msg)
		}
	}
	return m, nil
}

func (m loginModel) submit() (loginModel, tea.Cmd) {
	creds := auth.Credentials{Email: m.fields[loginEmail], Password: m.fields[loginPassword]}
	m.err = ""
	m.notice = ""
	m.errs = auth.ValidateCredentials(creds)
	if len(m.errs) > 0 {
		m.state = auth.Failed
		return m, nil
	}
	m.state = auth.Submitting
	flow := m.flow
	return m, func() tea.Msg {
		user, err := flow.Login(context.Background(), creds)
		return loggedInMsg{user: user, err: err}
	}
}

func (m loginModel) View() string {
	var b strings.Builder
	b.WriteString(sectionHeaderStyle.Render("  Iniciar sesión") + "\n\n")
	errs := map[int]string{
		loginEmail:    m.errs[auth.FieldEmail],
		loginPassword: m.errs[auth.FieldPassword],
	}
	b.WriteString(renderForm(loginFields, m.fields, m.focus, errs))
	b.WriteString("\n")
	switch {
	case m.state == auth.Submitting:
		b.WriteString("  " + dimStyle.Render("iniciando sesión..."))
	case m.err != "":
		b.WriteString("  " + errorStyle.Render(m.err))
	case m.notice != "":
		b.WriteString("  " + successStyle.Render(m.notice))
	}
	return b.String()
}

func (m loginModel) helpKeys() string {
	return helpBar("tab", "siguiente", "enter", "entrar", "ctrl+r", "registrarse", "ctrl+c", "salir")
}
