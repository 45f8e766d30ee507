package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"sync"

	"github.com/gdugdh24/spark-backend/internal/usecase/video"
)

type VideoCounter = video.CounterResponse

// VideoStore keeps the last listed videos and their counters.
type VideoStore struct {
	client *Client

	mu     sync.RWMutex
	videos []*Video
}

func NewVideoStore(c *Client) *VideoStore {
	return &VideoStore{client: c}
}

func (s *VideoStore) Videos() []*Video {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Video, len(s.videos))
	copy(out, s.videos)
	return out
}

// List loads videos of userID, or the latest videos across users when userID is nil
func (s *VideoStore) List(ctx context.Context, userID *int) ([]*Video, error) {
	var query url.Values
	if userID != nil {
		query = url.Values{"user_id": {strconv.Itoa(*userID)}}
	}

	var videos []*Video
	if err := s.client.doJSON(ctx, http.MethodGet, "/videos", query, nil, &videos); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.videos = videos
	s.mu.Unlock()
	return s.Videos(), nil
}

// Upload posts a clip of duration seconds. contentType must be a video/* type.
func (s *VideoStore) Upload(ctx context.Context, name, contentType string, duration float64, r io.Reader) (*Video, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	if err := w.WriteField("duration", strconv.FormatFloat(duration, 'f', -1, 64)); err != nil {
		return nil, fmt.Errorf("failed to write form: %w", err)
	}
	if err := w.WriteField("name", name); err != nil {
		return nil, fmt.Errorf("failed to write form: %w", err)
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="video"; filename=%q`, name))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to write form: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to read video: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to write form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.client.endpoint("/videos", nil), &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var v Video
	if err := s.client.send(req, &v); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.videos = append([]*Video{&v}, s.videos...)
	s.mu.Unlock()
	return &v, nil
}

func (s *VideoStore) Like(ctx context.Context, videoID string) (*VideoCounter, error) {
	resp, err := s.counter(ctx, videoID, "like")
	if err != nil {
		return nil, err
	}
	s.update(videoID, func(v *Video) { v.Likes = resp.Count })
	return resp, nil
}

func (s *VideoStore) View(ctx context.Context, videoID string) (*VideoCounter, error) {
	resp, err := s.counter(ctx, videoID, "view")
	if err != nil {
		return nil, err
	}
	s.update(videoID, func(v *Video) { v.Views = resp.Count })
	return resp, nil
}

func (s *VideoStore) counter(ctx context.Context, videoID, action string) (*VideoCounter, error) {
	var resp VideoCounter
	path := fmt.Sprintf("/videos/%s/%s", url.PathEscape(videoID), action)
	if err := s.client.doJSON(ctx, http.MethodPost, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *VideoStore) update(videoID string, fn func(v *Video)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, v := range s.videos {
		if v.ID == videoID {
			updated := *v
			fn(&updated)
			s.videos[i] = &updated
		}
	}
}
