// Package apitest runs an in-memory publicaciones backend for tests. It speaks
// the same REST contract as the real service, enforces posting ownership, and
// can be told to fail specific routes.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"

	"github.com/eia/publicaciones/pkg/domain"
)

var signingKey = []byte("apitest-secret")

type account struct {
	user     domain.User
	password string
}

type posting struct {
	domain.Posting
	ownerID domain.ID
}

// Server is a fake backend. The zero value is not usable; call NewServer.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	nextID   int
	accounts map[string]*account // by email
	tokens   map[string]domain.ID
	postings []posting
	failures map[string]int
	calls    map[string]int

	// OmitLoginUser makes the login response carry only the token.
	OmitLoginUser bool
	// OmitUpdateOwner strips the owner from PATCH responses, like the real backend.
	OmitUpdateOwner bool
	// EmptyUpdateBody makes successful PATCH responses carry no body.
	EmptyUpdateBody bool
}

// NewServer starts a fake backend that is closed when t finishes.
func NewServer(t testing.TB) *Server {
	s := &Server{
		accounts:        map[string]*account{},
		tokens:          map[string]domain.ID{},
		failures:        map[string]int{},
		calls:           map[string]int{},
		OmitUpdateOwner: true,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.record)
	r.Use(s.injectFailures)

	r.Post("/usuario", s.handleRegister)
	r.Post("/usuario/login", s.handleLogin)
	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.Get("/usuario", s.handleMe)
		r.Get("/publicacion", s.handleList)
		r.Post("/publicacion", s.handleCreate)
		r.Patch("/publicacion/{id}", s.handleUpdate)
		r.Delete("/publicacion/{id}", s.handleDelete)
	})

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// SeedUser registers an account and returns it with a valid token.
func (s *Server) SeedUser(fullName, email, password string) (domain.User, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.addAccountLocked(fullName, email, password)
	return u, s.issueTokenLocked(u)
}

// SeedPosting stores a posting owned by ownerID.
func (s *Server) SeedPosting(ownerID domain.ID, d domain.PostingDraft) domain.Posting {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addPostingLocked(ownerID, d)
}

// Postings returns the stored postings in insertion order, owners embedded.
func (s *Server) Postings() []domain.Posting {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked()
}

// Fail makes every request matching method and path answer with status until
// ClearFailures. A path ending in "*" matches by prefix.
func (s *Server) Fail(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = status
}

// ClearFailures removes every injected failure.
func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = map[string]int{}
}

// Calls returns how many requests hit method and path.
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+path]
}

// RevokeTokens invalidates every issued token.
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = map[string]domain.ID{}
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[r.Method+" "+r.URL.Path]++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		status := 0
		for key, code := range s.failures {
			method, path, _ := strings.Cut(key, " ")
			if method != r.Method {
				continue
			}
			if path == r.URL.Path || (strings.HasSuffix(path, "*") && strings.HasPrefix(r.URL.Path, strings.TrimSuffix(path, "*"))) {
				status = code
				break
			}
		}
		s.mu.Unlock()
		if status != 0 {
			writeError(w, status, http.StatusText(status))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		id, known := s.tokens[token]
		s.mu.Unlock()
		if !ok || !known {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		r.Header.Set("X-Apitest-User", id.String())
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName string `json:"nombreCompleto"`
		Email    string `json:"correoElectronico"`
		Password string `json:"contrasena"`
		Phone    int64  `json:"numero"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[req.Email]; exists {
		writeError(w, http.StatusConflict, "El correo ya está registrado")
		return
	}
	u := s.addAccountLocked(req.FullName, req.Email, req.Password)
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"correoElectronico"`
		Password string `json:"contrasena"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[req.Email]
	if !ok || acc.password != req.Password {
		writeError(w, http.StatusUnauthorized, "Credenciales inválidas")
		return
	}
	resp := map[string]any{"access_token": s.issueTokenLocked(acc.user)}
	if !s.OmitLoginUser {
		resp["usuario"] = acc.user
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.userLocked(domain.ID(r.Header.Get("X-Apitest-User")))
	if !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.listLocked())
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TotalPositions *int   `json:"numeroTotalPuestos"`
		Zone           string `json:"zona"`
		Description    string `json:"descripcion"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.TotalPositions == nil || *req.TotalPositions < 0 || req.Zone == "" {
		writeError(w, http.StatusBadRequest, "numeroTotalPuestos y zona son requeridos")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.addPostingLocked(domain.ID(r.Header.Get("X-Apitest-User")), domain.PostingDraft{
		TotalPositions: *req.TotalPositions,
		Zone:           req.Zone,
		Description:    req.Description,
	})
	p.Owner = nil
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TotalPositions *int    `json:"numeroTotalPuestos"`
		Zone           *string `json:"zona"`
		Description    *string `json:"descripcion"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i, status := s.ownedLocked(chi.URLParam(r, "id"), domain.ID(r.Header.Get("X-Apitest-User")))
	if status != 0 {
		writeError(w, status, http.StatusText(status))
		return
	}
	p := &s.postings[i]
	if req.TotalPositions != nil {
		p.TotalPositions = *req.TotalPositions
	}
	if req.Zone != nil {
		p.Zone = *req.Zone
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if s.EmptyUpdateBody {
		w.WriteHeader(http.StatusOK)
		return
	}
	out := p.Posting
	if s.OmitUpdateOwner {
		out.Owner = nil
	} else if u, ok := s.userLocked(p.ownerID); ok {
		out.Owner = &u
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, status := s.ownedLocked(chi.URLParam(r, "id"), domain.ID(r.Header.Get("X-Apitest-User")))
	if status != 0 {
		writeError(w, status, http.StatusText(status))
		return
	}
	s.postings = append(s.postings[:i], s.postings[i+1:]...)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) ownedLocked(id string, caller domain.ID) (int, int) {
	for i, p := range s.postings {
		if p.ID.String() != id {
			continue
		}
		if p.ownerID != caller {
			return -1, http.StatusForbidden
		}
		return i, 0
	}
	return -1, http.StatusNotFound
}

func (s *Server) addAccountLocked(fullName, email, password string) domain.User {
	s.nextID++
	u := domain.User{ID: domain.ID(strconv.Itoa(s.nextID)), FullName: fullName, Email: email}
	s.accounts[email] = &account{user: u, password: password}
	return u
}

func (s *Server) issueTokenLocked(u domain.User) string {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":               u.ID.String(),
		"correoElectronico": u.Email,
		"n":                 len(s.tokens),
	}).SignedString(signingKey)
	if err != nil {
		panic(fmt.Sprintf("apitest: sign token: %v", err))
	}
	s.tokens[tok] = u.ID
	return tok
}

func (s *Server) addPostingLocked(ownerID domain.ID, d domain.PostingDraft) domain.Posting {
	s.nextID++
	p := posting{
		Posting: domain.Posting{
			ID:             domain.ID(strconv.Itoa(s.nextID)),
			TotalPositions: d.TotalPositions,
			Zone:           d.Zone,
			Description:    d.Description,
		},
		ownerID: ownerID,
	}
	s.postings = append(s.postings, p)
	out := p.Posting
	if u, ok := s.userLocked(ownerID); ok {
		out.Owner = &u
	}
	return out
}

func (s *Server) listLocked() []domain.Posting {
	out := make([]domain.Posting, 0, len(s.postings))
	for _, p := range s.postings {
		dp := p.Posting
		if u, ok := s.userLocked(p.ownerID); ok {
			dp.Owner = &u
		}
		out = append(out, dp)
	}
	return out
}

func (s *Server) userLocked(id domain.ID) (domain.User, bool) {
	for _, acc := range s.accounts {
		if acc.user.ID == id {
			return acc.user, true
		}
	}
	return domain.User{}, false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"statusCode": status, "message": msg})
}
