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
	regFullName = iota
	regEmail
	regPassword
	regPhone
	numRegFields
)

var registerFields = []formField{
	{label: "nombre completo"},
	{label: "correo electrónico"},
	{label: "contraseña", secret: true},
	{label: "número de teléfono"},
}

// registerFieldNames maps form positions to validation field names.
var registerFieldNames = [numRegFields]string{
	regFullName: auth.FieldFullName,
	regEmail:    auth.FieldEmail,
	regPassword: auth.FieldPassword,
	regPhone:    auth.FieldPhone,
}

type registerModel struct {
	flow   *auth.Flow
	fields []string
	focus  int
	errs   domain.FieldErrors
	err    string
	state  auth.State
}

// registeredMsg carries the result of a registration. email is what the user
// typed, so login can be pre-filled.
type registeredMsg struct {
	email string
	err   error
}

// showLoginMsg asks the app to go back to the login form.
type showLoginMsg struct{}

func newRegisterModel(flow *auth.Flow) registerModel {
	return registerModel{flow: flow, fields: make([]string, numRegFields)}
}

func (m registerModel) Update(msg tea.Msg) (registerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case registeredMsg:
		m.state = auth.Authenticated
		if msg.err != nil {
			m.state = auth.Failed
			var fe domain.FieldErrors
			if errors.As(msg.err, &fe) {
				m.errs = fe
			} else {
				m.err = auth.RegisterMessage(msg.err)
			}
		}
		return m, nil

	case tea.KeyMsg:
		if m.state == auth.Submitting {
			return m, nil
		}
		switch msg.String() {
		case "ctrl+s":
			return m.submit()
		case "enter":
			if m.focus == numRegFields-1 {
				return m.submit()
			}
			m.focus++
		case "tab", "down":
			m.focus = (m.focus + 1) % numRegFields
		case "shift+tab", "up":
			m.focus = (m.focus - 1 + numRegFields) % numRegFields
		case "esc":
			return m, func() tea.Msg { return showLoginMsg{} }
		default:
			m.fields[m.focus] = typeInto(m.fields[m.focus], msg)
		}
	}
	return m, nil
}

func (m registerModel) form() auth.RegistrationForm {
	return auth.RegistrationForm{
		FullName: m.fields[regFullName],
		Email:    m.fields[regEmail],
		Password: m.fields[regPassword],
		Phone:    m.fields[regPhone],
	}
}

func (m registerModel) submit() (registerModel, tea.Cmd) {
	form := m.form()
	m.err = ""
	m.errs = auth.ValidateRegistration(form, m.flow.EmailDomain())
	if len(m.errs) > 0 {
		m.state = auth.Failed
		return m, nil
	}
	m.state = auth.Submitting
	flow := m.flow
	return m, func() tea.Msg {
		_, err := flow.Register(context.Background(), form)
		return registeredMsg{email: strings.TrimSpace(form.Email), err: err}
	}
}

func (m registerModel) View() string {
	var b strings.Builder
	b.WriteString(sectionHeaderStyle.Render("  Crear cuenta") + "  " +
		dimStyle.Render("(correo "+m.flow.EmailDomain()+")") + "\n\n")
	errs := make(map[int]string, numRegFields)
	for i, name := range registerFieldNames {
		errs[i] = m.errs[name]
	}
	b.WriteString(renderForm(registerFields, m.fields, m.focus, errs))
	b.WriteString("\n")
	switch {
	case m.state == auth.Submitting:
		b.WriteString("  " + dimStyle.Render("registrando..."))
	case m.err != "":
		b.WriteString("  " + errorStyle.Render(m.err))
	}
	return b.String()
}

func (m registerModel) helpKeys() string {
	return helpBar("tab", "siguiente", "ctrl+s", "registrarse", "esc", "volver")
}
