package client

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func profiles(ids ...int) []map[string]interface{} {
	out := make([]map[string]interface{}, len(ids))
	for i, id := range ids {
		out[i] = map[string]interface{}{"id": id, "username": "u"}
	}
	return out
}

func TestFeedStore_FetchAndFetchMore(t *testing.T) {
	var calls int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/feed", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		switch r.URL.Query().Get("cursor") {
		case "":
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"profiles": profiles(1, 2), "next_cursor": "c1", "has_more": true,
			})
		case "c1":
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"profiles": profiles(3), "next_cursor": "c2", "has_more": false,
			})
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("cursor"))
		}
	})
	store := NewFeedStore(newTestClient(t, mux))
	ctx := context.Background()

	require.NoError(t, store.Fetch(ctx))
	assert.Len(t, store.Profiles(), 2)
	assert.True(t, store.HasMore())

	require.NoError(t, store.FetchMore(ctx))
	got := store.Profiles()
	require.Len(t, got, 3)
	assert.Equal(t, 3, got[2].ID)
	assert.False(t, store.HasMore())

	// exhausted
	require.NoError(t, store.FetchMore(ctx))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	// Fetch replaces rather than appends
	require.NoError(t, store.Fetch(ctx))
	assert.Len(t, store.Profiles(), 2)
	assert.False(t, store.Loading())
}

func TestFeedStore_FetchMoreWithoutCursorIsNoop(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/feed", func(w http.ResponseWriter, r *http.Request) {
		t.Error("feed should not be requested")
	})
	store := NewFeedStore(newTestClient(t, mux))

	require.NoError(t, store.FetchMore(context.Background()))
	assert.Empty(t, store.Profiles())
}

func TestFeedStore_BlockUserRemovesLocally(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/feed", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"profiles": profiles(1, 2, 3), "has_more": false})
	})
	mux.HandleFunc("POST /api/v1/blocks/2", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"blocker_id": 9, "blocked_id": 2})
	})
	mux.HandleFunc("POST /api/v1/blocks/3", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "User not found", "code": "not-found"})
	})
	store := NewFeedStore(newTestClient(t, mux))
	ctx := context.Background()
	require.NoError(t, store.Fetch(ctx))

	require.NoError(t, store.BlockUser(ctx, 2))
	assert.Error(t, store.BlockUser(ctx, 3))

	var ids []int
	for _, p := range store.Profiles() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []int{1, 3}, ids)
}

func TestFeedStore_SwipeReportsMatch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/feed", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"profiles": profiles(4), "has_more": false})
	})
	mux.HandleFunc("POST /api/v1/swipes", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"is_match": true,
			"match":    map[string]interface{}{"id": 11, "user1_id": 1, "user2_id": 4, "status": "matched"},
		})
	})
	store := NewFeedStore(newTestClient(t, mux))
	ctx := context.Background()
	require.NoError(t, store.Fetch(ctx))

	resp, err := store.Swipe(ctx, 4, true, false)
	require.NoError(t, err)
	assert.True(t, resp.IsMatch)
	assert.Equal(t, 11, resp.Match.ID)
	assert.Empty(t, store.Profiles())
}

func TestFeedStore_FetchMoreSkipsWhileLoading(t *testing.T) {
	var more int32
	started := make(chan struct{}, 2)
	release := make(chan struct{})
	var once sync.Once
	unblock := func() { once.Do(func() { close(release) }) }
	defer unblock()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/feed", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("cursor") == "" {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"profiles": profiles(1, 2), "next_cursor": "c1", "has_more": true,
			})
			return
		}
		atomic.AddInt32(&more, 1)
		started <- struct{}{}
		<-release
		writeJSON(w, http.StatusOK, map[string]interface{}{"profiles": profiles(3), "has_more": false})
	})
	store := NewFeedStore(newTestClient(t, mux))
	ctx := context.Background()
	require.NoError(t, store.Fetch(ctx))

	done := make(chan error, 1)
	go func() { done <- store.FetchMore(ctx) }()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("first page was not requested")
	}
	assert.True(t, store.Loading())

	// second call returns at once without hitting the server
	require.NoError(t, store.FetchMore(ctx))

	unblock()
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), atomic.LoadInt32(&more))
	assert.Len(t, store.Profiles(), 3)
	assert.False(t, store.Loading())
}

func TestFeedStore_ErrorsStopPaging(t *testing.T) {
	var fail atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/feed", func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Service is currently unavailable.", "code": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"profiles": profiles(1, 2), "next_cursor": "c1", "has_more": true,
		})
	})
	store := NewFeedStore(newTestClient(t, mux))
	ctx := context.Background()

	require.NoError(t, store.Fetch(ctx))
	fail.Store(true)

	require.Error(t, store.FetchMore(ctx))
	assert.False(t, store.HasMore())
	assert.Len(t, store.Profiles(), 2)

	require.Error(t, store.Fetch(ctx))
	assert.Empty(t, store.Profiles())
	assert.False(t, store.HasMore())
	assert.False(t, store.Loading())
}
