package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/gdugdh24/spark-backend/internal/usecase/feed"
	"github.com/gdugdh24/spark-backend/internal/usecase/swipe"
)

type (
	FeedPage      = feed.FeedPage
	SwipeResponse = swipe.SwipeResponse
)

// FeedStore pages through candidate profiles.
type FeedStore struct {
	client *Client

	mu       sync.RWMutex
	profiles []*PublicProfile
	cursor   string
	hasMore  bool
	loading  bool
}

func NewFeedStore(c *Client) *FeedStore {
	return &FeedStore{client: c, hasMore: true}
}

// Profiles returns a copy of the loaded profiles
func (s *FeedStore) Profiles() []*PublicProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*PublicProfile, len(s.profiles))
	copy(out, s.profiles)
	return out
}

func (s *FeedStore) HasMore() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasMore
}

func (s *FeedStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Fetch loads the first page and replaces the list. A failed load leaves
// an empty, exhausted feed.
func (s *FeedStore) Fetch(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	page, err := s.page(ctx, "")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.profiles = []*PublicProfile{}
		s.cursor = ""
		s.hasMore = false
		return err
	}
	s.profiles = page.Profiles
	s.cursor = page.NextCursor
	s.hasMore = page.HasMore
	return nil
}

// FetchMore appends the next page. It does nothing while a load is running,
// when the feed is exhausted or when no cursor is known yet. A failed page
// stops further paging until the next Fetch.
func (s *FeedStore) FetchMore(ctx context.Context) error {
	s.mu.Lock()
	if s.loading || !s.hasMore || s.cursor == "" {
		s.mu.Unlock()
		return nil
	}
	s.loading = true
	cursor := s.cursor
	s.mu.Unlock()

	page, err := s.page(ctx, cursor)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.hasMore = false
		return err
	}
	s.profiles = append(s.profiles, page.Profiles...)
	s.cursor = page.NextCursor
	s.hasMore = page.HasMore
	return nil
}

// BlockUser blocks userID and drops them from the loaded list
func (s *FeedStore) BlockUser(ctx context.Context, userID int) error {
	if err := s.client.doJSON(ctx, http.MethodPost, fmt.Sprintf("/blocks/%d", userID), nil, nil, nil); err != nil {
		return err
	}
	s.remove(userID)
	return nil
}

// Swipe records a swipe on userID. The profile leaves the local list either way.
func (s *FeedStore) Swipe(ctx context.Context, userID int, like, super bool) (*SwipeResponse, error) {
	var resp SwipeResponse
	req := swipe.SwipeRequest{SwipedUserID: userID, IsLike: like, IsSuper: super}
	if err := s.client.doJSON(ctx, http.MethodPost, "/swipes", nil, req, &resp); err != nil {
		return nil, err
	}
	s.remove(userID)
	return &resp, nil
}

func (s *FeedStore) remove(userID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.profiles[:0]
	for _, p := range s.profiles {
		if p.ID != userID {
			kept = append(kept, p)
		}
	}
	s.profiles = kept
}

func (s *FeedStore) page(ctx context.Context, cursor string) (*FeedPage, error) {
	var query url.Values
	if cursor != "" {
		query = url.Values{"cursor": {cursor}}
	}

	var page FeedPage
	if err := s.client.doJSON(ctx, http.MethodGet, "/feed", query, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}
