package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdugdh24/spark-backend/internal/domain"
)

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew_RejectsScheme(t *testing.T) {
	_, err := New("ftp://example.com")
	assert.Error(t, err)
}

func TestClient_APIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/presence/7", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "User not found", "code": "not-found"})
	})
	c := newTestClient(t, mux)

	_, err := c.Presence(context.Background(), 7)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "User not found", apiErr.Message)
	assert.True(t, IsCode(err, domain.CodeNotFound))
}

func TestClient_APIErrorWithoutBody(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/presence/7", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	c := newTestClient(t, mux)

	_, err := c.Presence(context.Background(), 7)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Bad Gateway", apiErr.Message)
}

func TestAuthStore_SignUpSetsTokenAndNotifies(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/signup", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ann@example.com", req["email"])
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"token": "tok-1",
			"user":  map[string]interface{}{"id": 5, "email": "ann@example.com", "username": "ann"},
		})
	})
	mux.HandleFunc("GET /api/v1/auth/me", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]interface{}{"id": 5, "username": "ann"})
	})
	mux.HandleFunc("POST /api/v1/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	})
	c := newTestClient(t, mux)
	store := NewAuthStore(c)

	var seen []*User
	unsubscribe := store.OnChange(func(u *User) { seen = append(seen, u) })

	user, err := store.SignUp(context.Background(), "ann@example.com", "secret1", "ann")
	require.NoError(t, err)
	assert.Equal(t, 5, user.ID)
	assert.Equal(t, "tok-1", c.Token())
	assert.True(t, store.SignedIn())

	_, err = store.Refresh(context.Background())
	require.NoError(t, err)

	require.NoError(t, store.SignOut(context.Background()))
	assert.Empty(t, c.Token())
	assert.Nil(t, store.User())

	require.Len(t, seen, 3)
	assert.Nil(t, seen[2])

	unsubscribe()
	_, _ = store.SignIn(context.Background(), "ann@example.com", "x")
	assert.Len(t, seen, 3)
}

func TestAuthStore_SignInFailureKeepsSignedOut(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/signin", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid email or password", "code": "unauthenticated"})
	})
	c := newTestClient(t, mux)
	store := NewAuthStore(c)

	_, err := store.SignIn(context.Background(), "ann@example.com", "bad")
	assert.True(t, IsCode(err, domain.CodeUnauthenticated))
	assert.False(t, store.SignedIn())
	assert.Empty(t, c.Token())
}
