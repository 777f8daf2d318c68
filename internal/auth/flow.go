// Package auth implements login, registration and logout against the backend,
// persisting the resulting session.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/eia/publicaciones/internal/session"
	"github.com/eia/publicaciones/pkg/client"
	"github.com/eia/publicaciones/pkg/domain"
)

// State is the position of a login or registration form in its lifecycle.
type State int

const (
	Anonymous State = iota
	Submitting
	Authenticated
	Failed
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Submitting:
		return "submitting"
	case Authenticated:
		return "authenticated"
	case Failed:
		return "error"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Flow performs authentication operations. It holds no per-form state, so it
// is safe to call from concurrent commands.
type Flow struct {
	client      *client.Client
	store       session.Store
	emailDomain string
	logger      *slog.Logger
}

// NewFlow wires a flow. c must not carry a token.
func NewFlow(c *client.Client, store session.Store, emailDomain string, logger *slog.Logger) *Flow {
	return &Flow{client: c, store: store, emailDomain: emailDomain, logger: logger}
}

// EmailDomain returns the suffix required at registration.
func (f *Flow) EmailDomain() string {
	return f.emailDomain
}

// Login exchanges credentials for a token and persists the session. When the
// backend omits the profile, it is fetched with the new token.
func (f *Flow) Login(ctx context.Context, creds Credentials) (*domain.User, error) {
	if errs := ValidateCredentials(creds); len(errs) > 0 {
		return nil, errs
	}
	email := strings.TrimSpace(creds.Email)
	resp, err := f.client.Login(ctx, email, creds.Password)
	if err != nil {
		f.logger.Info("login rejected", "email", email, "error", err)
		return nil, fmt.Errorf("auth.Login: %w", err)
	}

	user := resp.User
	if user == nil {
		user, err = f.client.WithToken(resp.AccessToken).GetMe(ctx)
		if err != nil {
			return nil, fmt.Errorf("auth.Login: fetch profile: %w", err)
		}
	}
	if err := f.store.Set(resp.AccessToken, user); err != nil {
		return nil, fmt.Errorf("auth.Login: %w", err)
	}
	f.logger.Info("logged in", "email", email, "user_id", user.ID)
	return user, nil
}

// Register validates the form and creates the account. Validation failures
// are returned as domain.FieldErrors and never reach the network. Nothing is
// persisted: the caller continues to the login form.
func (f *Flow) Register(ctx context.Context, form RegistrationForm) (*client.RegisterResponse, error) {
	if errs := ValidateRegistration(form, f.emailDomain); len(errs) > 0 {
		return nil, errs
	}
	phone, _ := parsePhone(form.Phone)
	req := client.RegisterRequest{
		FullName: strings.TrimSpace(form.FullName),
		Email:    strings.TrimSpace(form.Email),
		Password: form.Password,
		Phone:    phone,
	}
	created, err := f.client.Register(ctx, req)
	if err != nil {
		f.logger.Info("registration rejected", "email", req.Email, "error", err)
		return nil, fmt.Errorf("auth.Register: %w", err)
	}
	f.logger.Info("registered", "email", req.Email)
	return created, nil
}

// Logout clears the stored session.
func (f *Flow) Logout() error {
	if err := f.store.Clear(); err != nil {
		return fmt.Errorf("auth.Logout: %w", err)
	}
	f.logger.Info("logged out")
	return nil
}

// LoginMessage turns a Login error into the text shown under the form.
func LoginMessage(err error) string {
	var fe domain.FieldErrors
	if errors.As(err, &fe) {
		return fe.Error()
	}
	var httpErr *client.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.Message != "" {
			return httpErr.Message
		}
		return "Inicio de sesión fallido"
	}
	return "Ocurrió un error inesperado"
}

// RegisterMessage turns a Register network error into the text shown under the form.
func RegisterMessage(err error) string {
	var httpErr *client.HTTPError
	if errors.As(err, &httpErr) {
		return fmt.Sprintf("Error: HTTP error! status: %d", httpErr.StatusCode)
	}
	return "Error al registrar. Por favor, intente de nuevo."
}
