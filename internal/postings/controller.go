// Package postings holds the dashboard logic: an immutable State, the
// Commands that transition it, and the Controller, Editor and Remover that
// talk to the backend and produce those commands.
package postings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/eia/publicaciones/internal/session"
	"github.com/eia/publicaciones/pkg/client"
	"github.com/eia/publicaciones/pkg/domain"
)

var (
	// ErrNoSession means no token is stored.
	ErrNoSession = errors.New("no hay sesión activa")
	// ErrSessionExpired means the backend rejected the token; the session has been cleared.
	ErrSessionExpired = errors.New("la sesión expiró")
	// ErrInvalidDraft wraps the field errors of a draft that failed validation.
	ErrInvalidDraft = errors.New("publicación inválida")
)

// User-facing messages.
const (
	MsgNoSession     = "No hay sesión activa. Por favor, inicia sesión nuevamente."
	MsgUserFailed    = "No se pudo cargar la información del usuario. Por favor, inicia sesión nuevamente."
	MsgListFailed    = "No se pudieron cargar las publicaciones. Intenta de nuevo más tarde."
	MsgCreateFailed  = "Error al crear la publicación. Por favor, intenta de nuevo."
	MsgUpdateFailed  = "Error al actualizar la publicación, no se puede actualizar publicaciones de otros usuarios"
	MsgDeleteFailed  = "No se pudo eliminar la publicacion No se puede eliminar publicaciones de otros usuarios."
	MsgConfirmDelete = "¿Estás seguro de que quieres eliminar esta publicación?"
	MsgEmptyList     = "No hay publicaciones disponibles."
)

// Controller performs the dashboard's network operations for the stored session.
type Controller struct {
	client *client.Client
	store  session.Store
	logger *slog.Logger
}

// NewController wires a controller. The token is read from store on every call.
func NewController(c *client.Client, store session.Store, logger *slog.Logger) *Controller {
	return &Controller{client: c, store: store, logger: logger}
}

// HasSession reports whether a token is stored.
func (c *Controller) HasSession() bool {
	_, ok := c.store.Token()
	return ok
}

// CachedUser returns the stored profile without touching the network.
func (c *Controller) CachedUser() (*domain.User, bool) {
	return c.store.User()
}

func (c *Controller) authed() (*client.Client, error) {
	tok, ok := c.store.Token()
	if !ok {
		return nil, ErrNoSession
	}
	return c.client.WithToken(tok), nil
}

// rejected clears the session when the backend refused the token.
func (c *Controller) rejected(op string, err error) error {
	if client.IsUnauthorized(err) {
		c.logger.Warn("token rejected, clearing session", "op", op)
		if clearErr := c.store.Clear(); clearErr != nil {
			c.logger.Error("clear session failed", "error", clearErr)
		}
		return fmt.Errorf("%s: %w: %w", op, ErrSessionExpired, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// LoadCurrentUser resolves the user from the cache or the backend. Any failure
// forces a logout: the session is cleared and a UserFailed command returned.
func (c *Controller) LoadCurrentUser(ctx context.Context) (Command, error) {
	if u, ok := c.store.User(); ok {
		return SetUser{User: *u}, nil
	}
	api, err := c.authed()
	if err != nil {
		return UserFailed{Message: MsgNoSession}, fmt.Errorf("postings.LoadCurrentUser: %w", err)
	}
	u, err := api.GetMe(ctx)
	if err == nil {
		err = c.store.SetUser(u)
	}
	if err != nil {
		c.logger.Error("load current user failed", "error", err)
		if clearErr := c.store.Clear(); clearErr != nil {
			c.logger.Error("clear session failed", "error", clearErr)
		}
		if client.IsUnauthorized(err) {
			err = fmt.Errorf("%w: %w", ErrSessionExpired, err)
		}
		return UserFailed{Message: MsgUserFailed}, fmt.Errorf("postings.LoadCurrentUser: %w", err)
	}
	return SetUser{User: *u}, nil
}

// LoadPostings fetches the whole list. Failures leave the list empty with a
// banner and keep the session, unless the token itself was rejected.
func (c *Controller) LoadPostings(ctx context.Context) (Command, error) {
	api, err := c.authed()
	if err != nil {
		return ListFailed{Message: MsgNoSession}, fmt.Errorf("postings.LoadPostings: %w", err)
	}
	list, err := api.ListPostings(ctx)
	if err != nil {
		c.logger.Error("load postings failed", "error", err)
		return ListFailed{Message: MsgListFailed}, c.rejected("postings.LoadPostings", err)
	}
	c.logger.Debug("postings loaded", "count", len(list))
	return ReplaceAll{Postings: list}, nil
}

// CreatePosting submits draft on behalf of user. On success the returned
// Append carries the server's posting decorated with user.
func (c *Controller) CreatePosting(ctx context.Context, draft domain.PostingDraft, user *domain.User) (Command, error) {
	if errs := draft.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("postings.CreatePosting: %w: %w", ErrInvalidDraft, errs)
	}
	api, err := c.authed()
	if err != nil {
		return nil, fmt.Errorf("postings.CreatePosting: %w", err)
	}
	req := client.CreatePostingRequest{
		TotalPositions: draft.TotalPositions,
		Zone:           draft.Zone,
		Description:    draft.Description,
		OwnerID:        c.ownerID(api.Token(), user),
	}
	created, err := api.CreatePosting(ctx, req)
	if err != nil {
		c.logger.Error("create posting failed", "error", err)
		return nil, c.rejected("postings.CreatePosting", err)
	}
	if user != nil {
		owner := *user
		created.Owner = &owner
	}
	c.logger.Info("posting created", "id", created.ID)
	return Append{Posting: *created}, nil
}

// ownerID prefers the profile id and falls back to the token subject.
func (c *Controller) ownerID(token string, user *domain.User) domain.ID {
	if user != nil && !user.ID.IsZero() {
		return user.ID
	}
	claims, err := session.ParseClaims(token)
	if err != nil {
		return ""
	}
	return claims.Subject
}

// UpdatePosting sends a partial update of the three editable fields.
func (c *Controller) UpdatePosting(ctx context.Context, id domain.ID, draft domain.PostingDraft) (*domain.Posting, error) {
	return c.Patch(ctx, id, client.UpdatePostingRequest{
		TotalPositions: &draft.TotalPositions,
		Zone:           &draft.Zone,
		Description:    &draft.Description,
	})
}

// Patch sends an arbitrary partial update.
func (c *Controller) Patch(ctx context.Context, id domain.ID, req client.UpdatePostingRequest) (*domain.Posting, error) {
	api, err := c.authed()
	if err != nil {
		return nil, fmt.Errorf("postings.UpdatePosting: %w", err)
	}
	updated, err := api.UpdatePosting(ctx, id, req)
	if errors.Is(err, client.ErrEmptyResponse) {
		updated, err = c.reread(ctx, api, id)
	}
	if err != nil {
		c.logger.Error("update posting failed", "id", id, "error", err)
		return nil, c.rejected("postings.UpdatePosting", err)
	}
	if updated.ID.IsZero() {
		updated.ID = id
	}
	c.logger.Info("posting updated", "id", id)
	return updated, nil
}

// reread fetches the stored version of a posting the backend updated without
// echoing it back.
func (c *Controller) reread(ctx context.Context, api *client.Client, id domain.ID) (*domain.Posting, error) {
	list, err := api.ListPostings(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == id {
			return &list[i], nil
		}
	}
	return nil, fmt.Errorf("posting %s missing after update", id)
}

// DeletePosting deletes the posting with id.
func (c *Controller) DeletePosting(ctx context.Context, id domain.ID) error {
	api, err := c.authed()
	if err != nil {
		return fmt.Errorf("postings.DeletePosting: %w", err)
	}
	if err := api.DeletePosting(ctx, id); err != nil {
		c.logger.Error("delete posting failed", "id", id, "error", err)
		return c.rejected("postings.DeletePosting", err)
	}
	c.logger.Info("posting deleted", "id", id)
	return nil
}

// Logout clears the stored session and returns the Reset command.
func (c *Controller) Logout() (Command, error) {
	if err := c.store.Clear(); err != nil {
		return Reset{}, fmt.Errorf("postings.Logout: %w", err)
	}
	c.logger.Info("logged out")
	return Reset{}, nil
}

// SessionLost reports whether err means the user must log in again.
func SessionLost(err error) bool {
	return errors.Is(err, ErrNoSession) || errors.Is(err, ErrSessionExpired)
}
