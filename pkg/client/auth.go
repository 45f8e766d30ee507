package client

import (
	"context"
	"net/http"
	"sync"

	"github.com/gdugdh24/spark-backend/internal/usecase/auth"
	"github.com/gdugdh24/spark-backend/internal/usecase/profile"
)

type (
	AuthResponse  = auth.AuthResponse
	ProfileUpdate = profile.UpdateProfileRequest
)

// AuthListener observes sign in, sign up and sign out. user is nil when signed out.
type AuthListener func(user *User)

// AuthStore mirrors the signed-in user and owns the client's session token.
type AuthStore struct {
	client *Client

	mu        sync.RWMutex
	user      *User
	listeners map[int]AuthListener
	nextID    int
}

func NewAuthStore(c *Client) *AuthStore {
	return &AuthStore{
		client:    c,
		listeners: make(map[int]AuthListener),
	}
}

// User returns the signed-in user or nil
func (s *AuthStore) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *AuthStore) SignedIn() bool {
	return s.User() != nil
}

// OnChange registers fn and returns a func that removes it
func (s *AuthStore) OnChange(fn AuthListener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *AuthStore) SignUp(ctx context.Context, email, password, username string) (*User, error) {
	var resp AuthResponse
	req := auth.SignUpRequest{Email: email, Password: password, Username: username}
	if err := s.client.doJSON(ctx, http.MethodPost, "/auth/signup", nil, req, &resp); err != nil {
		return nil, err
	}
	s.client.setToken(resp.Token)
	s.setUser(resp.User)
	return resp.User, nil
}

func (s *AuthStore) SignIn(ctx context.Context, email, password string) (*User, error) {
	var resp AuthResponse
	req := auth.SignInRequest{Email: email, Password: password}
	if err := s.client.doJSON(ctx, http.MethodPost, "/auth/signin", nil, req, &resp); err != nil {
		return nil, err
	}
	s.client.setToken(resp.Token)
	s.setUser(resp.User)
	return resp.User, nil
}

// SignOut drops the local session even when the server call fails.
func (s *AuthStore) SignOut(ctx context.Context) error {
	err := s.client.doJSON(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
	s.client.setToken("")
	s.setUser(nil)
	return err
}

// Refresh reloads the current user with the stored token
func (s *AuthStore) Refresh(ctx context.Context) (*User, error) {
	var user User
	if err := s.client.doJSON(ctx, http.MethodGet, "/auth/me", nil, nil, &user); err != nil {
		return nil, err
	}
	s.setUser(&user)
	return &user, nil
}

// UpdateProfile sends only the non-nil fields of update
func (s *AuthStore) UpdateProfile(ctx context.Context, update *ProfileUpdate) (*User, error) {
	var user User
	if err := s.client.doJSON(ctx, http.MethodPut, "/profile/me", nil, update, &user); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
	return &user, nil
}

func (s *AuthStore) setUser(user *User) {
	s.mu.Lock()
	s.user = user
	listeners := make([]AuthListener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(user)
	}
}
