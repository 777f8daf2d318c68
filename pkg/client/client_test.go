package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/eia/publicaciones/pkg/domain"
)

func TestGetMe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/usuario" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"message": "Unauthorized"}) //nolint:errcheck
			return
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID header")
		}
		json.NewEncoder(w).Encode(domain.User{ //nolint:errcheck
			ID:       "1",
			FullName: "Ana Gómez",
			Email:    "ana@eia.edu.co",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "test-token", 0, nil)
	me, err := c.GetMe(context.Background())
	if err != nil {
		t.Fatalf("GetMe() error: %v", err)
	}
	if me.FullName != "Ana Gómez" {
		t.Errorf("FullName = %q, want %q", me.FullName, "Ana Gómez")
	}
	if me.Email != "ana@eia.edu.co" {
		t.Errorf("Email = %q, want %q", me.Email, "ana@eia.edu.co")
	}
}

func TestGetMe_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "Unauthorized"}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, "bad-token", 0, nil)
	_, err := c.GetMe(context.Background())
	if err == nil {
		t.Fatal("expected error for unauthorized request")
	}
	if !IsUnauthorized(err) {
		t.Errorf("IsUnauthorized(%v) = false, want true", err)
	}
	if got := err.Error(); !strings.Contains(got, "HTTP 401") {
		t.Errorf("error = %q, want it to contain 'HTTP 401'", got)
	}
}

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/usuario/login" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("login must not send a bearer token")
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if body["correoElectronico"] != "ana@eia.edu.co" || body["contrasena"] != "Secreta#12345" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"message": "Credenciales inválidas"}) //nolint:errcheck
			return
		}
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"access_token": "jwt",
			"usuario":      map[string]any{"id": 1, "nombreCompleto": "Ana"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "", 0, nil)
	resp, err := c.Login(context.Background(), "ana@eia.edu.co", "Secreta#12345")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if resp.AccessToken != "jwt" {
		t.Errorf("AccessToken = %q, want %q", resp.AccessToken, "jwt")
	}
	if resp.User == nil || resp.User.ID != "1" {
		t.Errorf("User = %+v, want id 1", resp.User)
	}

	_, err = c.Login(context.Background(), "ana@eia.edu.co", "wrong")
	if err == nil {
		t.Fatal("expected error for bad credentials")
	}
	if got := Message(err); got != "Credenciales inválidas" {
		t.Errorf("Message() = %q, want backend message", got)
	}
}

func TestLogin_MissingToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"usuario": map[string]any{"id": 1}}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, "", 0, nil)
	if _, err := c.Login(context.Background(), "a", "b"); err == nil {
		t.Fatal("expected error when access_token is missing")
	}
}

func TestListPostings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/publicacion" {
			http.NotFound(w, r)
			return
		}
		postings := []domain.Posting{
			{ID: "1", TotalPositions: 3, Zone: "North"},
			{ID: "2", TotalPositions: 1, Zone: "South", Owner: &domain.User{FullName: "Ana"}},
		}
		json.NewEncoder(w).Encode(postings) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", 0, nil)
	postings, err := c.ListPostings(context.Background())
	if err != nil {
		t.Fatalf("ListPostings() error: %v", err)
	}
	if len(postings) != 2 {
		t.Fatalf("got %d postings, want 2", len(postings))
	}
	if postings[1].Owner == nil || postings[1].Owner.FullName != "Ana" {
		t.Errorf("postings[1].Owner = %+v", postings[1].Owner)
	}
}

func TestListPostings_Empty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode([]domain.Posting{}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", 0, nil)
	postings, err := c.ListPostings(context.Background())
	if err != nil {
		t.Fatalf("ListPostings() error: %v", err)
	}
	if len(postings) != 0 {
		t.Errorf("got %d postings, want 0", len(postings))
	}
}

func TestCreatePosting(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req CreatePostingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.OwnerID != "7" {
			t.Errorf("OwnerID = %q, want %q", req.OwnerID, "7")
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(domain.Posting{ //nolint:errcheck
			ID:             "10",
			TotalPositions: req.TotalPositions,
			Zone:           req.Zone,
			Description:    req.Description,
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", 0, nil)
	p, err := c.CreatePosting(context.Background(), CreatePostingRequest{
		TotalPositions: 5,
		Zone:           "North",
		Description:    "desc",
		OwnerID:        "7",
	})
	if err != nil {
		t.Fatalf("CreatePosting() error: %v", err)
	}
	if p.ID != "10" || p.Zone != "North" || p.TotalPositions != 5 {
		t.Errorf("posting = %+v", p)
	}
}

func TestUpdatePosting_Partial(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/publicacion/3" {
			http.NotFound(w, r)
			return
		}
		var raw map[string]any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if len(raw) != 1 || raw["zona"] != "South" {
			t.Errorf("body = %v, want only zona", raw)
		}
		json.NewEncoder(w).Encode(domain.Posting{ID: "3", TotalPositions: 2, Zone: "South"}) //nolint:errcheck
	}))
	defer srv.Close()

	zone := "South"
	c := New(srv.URL, "tok", 0, nil)
	p, err := c.UpdatePosting(context.Background(), "3", UpdatePostingRequest{Zone: &zone})
	if err != nil {
		t.Fatalf("UpdatePosting() error: %v", err)
	}
	if p.Zone != "South" {
		t.Errorf("Zone = %q, want %q", p.Zone, "South")
	}
}

func TestUpdatePosting_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	zone := "South"
	c := New(srv.URL, "tok", 0, nil)
	p, err := c.UpdatePosting(context.Background(), "9", UpdatePostingRequest{Zone: &zone})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("UpdatePosting() error = %v, want ErrEmptyResponse", err)
	}
	if p != nil {
		t.Errorf("posting = %+v, want nil", p)
	}
}

func TestDeletePosting(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.URL.Path == "/publicacion/mine" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]any{"message": []string{"not yours"}}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", 0, nil)
	if err := c.DeletePosting(context.Background(), "mine"); err != nil {
		t.Fatalf("DeletePosting() error: %v", err)
	}
	err := c.DeletePosting(context.Background(), "theirs")
	if !IsForbidden(err) {
		t.Fatalf("IsForbidden(%v) = false, want true", err)
	}
	if got := Message(err); got != "not yours" {
		t.Errorf("Message() = %q, want %q", got, "not yours")
	}
}

func TestHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "boom"}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", 0, nil)
	_, err := c.GetMe(context.Background())
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if got := err.Error(); !strings.Contains(got, "boom") {
		t.Errorf("error = %q, want it to contain 'boom'", got)
	}
}

func TestHTTPError_PlainBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", 0, nil)
	_, err := c.ListPostings(context.Background())
	if !IsStatus(err, http.StatusBadGateway) {
		t.Fatalf("IsStatus(%v, 502) = false", err)
	}
	if got := Message(err); got != "bad gateway" {
		t.Errorf("Message() = %q, want %q", got, "bad gateway")
	}
}

func TestWithToken(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(domain.User{}) //nolint:errcheck
	}))
	defer srv.Close()

	base := New(srv.URL, "", 0, nil)
	authed := base.WithToken("fresh")
	if _, err := authed.GetMe(context.Background()); err != nil {
		t.Fatalf("GetMe() error: %v", err)
	}
	if got != "Bearer fresh" {
		t.Errorf("Authorization = %q, want %q", got, "Bearer fresh")
	}
	if base.Token() != "" {
		t.Error("WithToken must not modify the original client")
	}
}

func TestDoRequest_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(5 * time.Second)              // slow server
		json.NewEncoder(w).Encode(domain.User{}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", 0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	_, err := c.GetMe(ctx)
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
}
