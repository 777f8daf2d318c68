package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/eia/publicaciones/pkg/domain"
)

// DefaultTimeout applies when New is given a zero timeout.
const DefaultTimeout = 30 * time.Second

// RegisterRequest is the payload for creating an account.
type RegisterRequest struct {
	FullName string `json:"nombreCompleto"`
	Email    string `json:"correoElectronico"`
	Password string `json:"contrasena"`
	Phone    int64  `json:"numero"`
}

// RegisterResponse is the created account. Some backends also return a token.
type RegisterResponse struct {
	domain.User
	Token string `json:"token,omitempty"`
}

// LoginResponse is returned by the login endpoint.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	User        *domain.User `json:"usuario,omitempty"`
}

// CreatePostingRequest is the payload for creating a posting.
type CreatePostingRequest struct {
	TotalPositions int       `json:"numeroTotalPuestos"`
	Zone           string    `json:"zona"`
	Description    string    `json:"descripcion"`
	OwnerID        domain.ID `json:"usuarioId,omitempty"`
}

// UpdatePostingRequest is a partial update; nil fields are left untouched.
type UpdatePostingRequest struct {
	TotalPositions *int    `json:"numeroTotalPuestos,omitempty"`
	Zone           *string `json:"zona,omitempty"`
	Description    *string `json:"descripcion,omitempty"`
}

// Client is the publicaciones API client.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a new API client.
func New(baseURL, token string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// WithToken returns a copy of the client that authenticates with token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// Token returns the bearer token the client sends, if any.
func (c *Client) Token() string {
	return c.token
}

// Register creates a new account. It does not authenticate.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	var created RegisterResponse
	if err := c.post(ctx, "/usuario", req, &created); err != nil && !errors.Is(err, ErrEmptyResponse) {
		return nil, fmt.Errorf("client.Register: %w", err)
	}
	return &created, nil
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	body := map[string]string{"correoElectronico": email, "contrasena": password}
	var resp LoginResponse
	if err := c.post(ctx, "/usuario/login", body, &resp); err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("client.Login: response carried no access_token")
	}
	return &resp, nil
}

// GetMe returns the authenticated user's profile.
func (c *Client) GetMe(ctx context.Context) (*domain.User, error) {
	var u domain.User
	if err := c.get(ctx, "/usuario", &u); err != nil {
		return nil, fmt.Errorf("client.GetMe: %w", err)
	}
	return &u, nil
}

// ListPostings fetches every posting visible to the session.
func (c *Client) ListPostings(ctx context.Context) ([]domain.Posting, error) {
	var postings []domain.Posting
	if err := c.get(ctx, "/publicacion", &postings); err != nil {
		return nil, fmt.Errorf("client.ListPostings: %w", err)
	}
	return postings, nil
}

// CreatePosting creates a new posting.
func (c *Client) CreatePosting(ctx context.Context, req CreatePostingRequest) (*domain.Posting, error) {
	var created domain.Posting
	if err := c.post(ctx, "/publicacion", req, &created); err != nil {
		return nil, fmt.Errorf("client.CreatePosting: %w", err)
	}
	return &created, nil
}

// UpdatePosting applies a partial update to a posting. A backend that answers
// without a body yields ErrEmptyResponse.
func (c *Client) UpdatePosting(ctx context.Context, id domain.ID, req UpdatePostingRequest) (*domain.Posting, error) {
	var updated domain.Posting
	if err := c.doRequest(ctx, http.MethodPatch, "/publicacion/"+url.PathEscape(id.String()), req, &updated); err != nil {
		return nil, fmt.Errorf("client.UpdatePosting: %w", err)
	}
	return &updated, nil
}

// DeletePosting deletes a posting by ID.
func (c *Client) DeletePosting(ctx context.Context, id domain.ID) error {
	if err := c.doRequest(ctx, http.MethodDelete, "/publicacion/"+url.PathEscape(id.String()), nil, nil); err != nil {
		return fmt.Errorf("client.DeletePosting: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.doRequest(ctx, http.MethodPost, path, body, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "method", method, "path", path, "request_id", reqID, "error", err)
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close
	c.logger.Debug("request done", "method", method, "path", path, "request_id", reqID,
		"status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode >= 400 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max error body
		if readErr != nil {
			return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
	}

	if out != nil {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		if len(bytes.TrimSpace(data)) == 0 {
			return ErrEmptyResponse
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
