// Package tui is the interactive terminal client: login, registration and the
// postings dashboard, driven by a single Bubble Tea event loop.
package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/eia/publicaciones/internal/auth"
	"github.com/eia/publicaciones/internal/postings"
	"github.com/eia/publicaciones/internal/session"
)

type view int

const (
	viewLogin view = iota
	viewRegister
	viewDashboard
)

const (
	noticeRegistered = "Registro exitoso. Inicia sesión con tu nueva cuenta."
	noticeExpired    = "Tu sesión expiró. Por favor, inicia sesión nuevamente."
	noticeClosed     = "La sesión se cerró desde otra terminal."
)

// sessionWatchMsg carries the watcher channel once it is running.
type sessionWatchMsg struct {
	events <-chan struct{}
	err    error
}

// sessionChangedMsg reports that the session file changed on disk.
type sessionChangedMsg struct{}

// App is the root Bubbletea model.
type App struct {
	flow   *auth.Flow
	ctrl   *postings.Controller
	logger *slog.Logger

	watchCtx    context.Context
	sessionPath string
	events      <-chan struct{}

	view     view
	login    loginModel
	register registerModel
	dash     dashboardModel
	width    int
	height   int
}

// NewApp creates the TUI. It opens on the dashboard when a session is stored
// and on the login form otherwise.
func NewApp(flow *auth.Flow, ctrl *postings.Controller, logger *slog.Logger) App {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	a := App{
		flow:     flow,
		ctrl:     ctrl,
		logger:   logger,
		login:    newLoginModel(flow),
		register: newRegisterModel(flow),
		dash:     newDashboardModel(ctrl),
	}
	if ctrl.HasSession() {
		a.view = viewDashboard
	}
	return a
}

// WatchSession makes the app follow the session file at path until ctx ends,
// returning to login when another process removes the session.
func (a App) WatchSession(ctx context.Context, path string) App {
	a.watchCtx = ctx
	a.sessionPath = path
	return a
}

func (a App) Init() tea.Cmd {
	var cmds []tea.Cmd
	if a.view == viewDashboard {
		cmds = append(cmds, a.dash.Init())
	}
	if a.sessionPath != "" {
		cmds = append(cmds, a.startWatch())
	}
	return tea.Batch(cmds...)
}

func (a App) startWatch() tea.Cmd {
	ctx, path, logger := a.watchCtx, a.sessionPath, a.logger
	if ctx == nil {
		ctx = context.Background()
	}
	return func() tea.Msg {
		events, err := session.Watch(ctx, path, logger)
		return sessionWatchMsg{events: events, err: err}
	}
}

func waitForSession(events <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-events; !ok {
			return nil
		}
		return sessionChangedMsg{}
	}
}

// toLogin discards the dashboard and shows the login form with notice.
func (a App) toLogin(email, notice string) App {
	a.dash = newDashboardModel(a.ctrl)
	a.dash.width, a.dash.height = a.width, a.height
	a.login = a.login.withEmail(email, notice)
	a.view = viewLogin
	return a
}

func (a App) logout(notice string) App {
	cmd, err := a.ctrl.Logout()
	if err != nil {
		a.logger.Error("logout failed", "error", err)
	}
	a.dash.state = postings.Apply(a.dash.state, cmd)
	return a.toLogin("", notice)
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Chrome: header(2) + help(1) = 3 lines
		a.dash, _ = a.dash.Update(tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 3})
		return a, nil

	case sessionWatchMsg:
		if msg.err != nil {
			a.logger.Warn("session watcher unavailable", "error", msg.err)
			return a, nil
		}
		a.events = msg.events
		return a, waitForSession(a.events)

	case sessionChangedMsg:
		next := waitForSession(a.events)
		// A failed user load clears the session itself; its page owns the
		// return to login.
		if a.view == viewDashboard && a.dash.state.Fatal == "" && !a.ctrl.HasSession() {
			a.logger.Info("session removed externally")
			return a.toLogin("", noticeClosed), next
		}
		return a, next

	case loggedInMsg:
		var cmd tea.Cmd
		a.login, cmd = a.login.Update(msg)
		if msg.err != nil {
			return a, cmd
		}
		a.view = viewDashboard
		a.dash = newDashboardModel(a.ctrl)
		a.dash.width, a.dash.height = a.width, a.height-3
		return a, a.dash.Init()

	case registeredMsg:
		var cmd tea.Cmd
		a.register, cmd = a.register.Update(msg)
		if msg.err != nil {
			return a, cmd
		}
		a.register = newRegisterModel(a.flow)
		return a.toLogin(msg.email, noticeRegistered), nil

	case showRegisterMsg:
		a.register = newRegisterModel(a.flow)
		a.view = viewRegister
		return a, nil

	case showLoginMsg:
		a.view = viewLogin
		return a, nil

	case sessionLostMsg:
		return a.logout(noticeExpired), nil

	case logoutMsg:
		return a.logout(""), nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "q":
			if a.view == viewDashboard && !a.dash.isEditing() {
				return a, tea.Quit
			}
		}
	}

	var cmd tea.Cmd
	switch a.view {
	case viewLogin:
		a.login, cmd = a.login.Update(msg)
	case viewRegister:
		a.register, cmd = a.register.Update(msg)
	case viewDashboard:
		a.dash, cmd = a.dash.Update(msg)
	}
	return a, cmd
}

func (a App) View() string {
	logo := renderLogo("publicaciones")
	header := centered(logo, a.width, lipgloss.Width(logo))
	sub := dimStyle.Render("bolsa de puestos")
	header += "\n" + centered(sub, a.width, lipgloss.Width(sub))

	var body, help string
	switch a.view {
	case viewLogin:
		body = a.login.View()
		help = a.login.helpKeys()
	case viewRegister:
		body = a.register.View()
		help = a.register.helpKeys()
	case viewDashboard:
		body = a.dash.View()
		help = a.dash.helpKeys()
	}

	// Chrome budget: header(2) + help(1) = 3 lines + body
	chrome := 3
	body = strings.TrimRight(truncateToHeight(body, a.height-chrome), "\n")

	return fmt.Sprintf("%s\n%s\n%s", header, body, help)
}
