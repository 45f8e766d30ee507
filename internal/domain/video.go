package domain

import "time"

// Video length ceilings in seconds. Uploads are checked against VideoDurationLong.
const (
	VideoDurationShort  = 3
	VideoDurationMedium = 6
	VideoDurationLong   = 9
)

// LatestVideosLimit bounds the unfiltered video listing.
const LatestVideosLimit = 10

type Video struct {
	ID        string    `json:"id" dynamodbav:"id"`
	UserID    int       `json:"user_id" dynamodbav:"user_id"`
	URL       string    `json:"url" dynamodbav:"url"`
	Key       string    `json:"-" dynamodbav:"s3_key"`
	Thumbnail string    `json:"thumbnail" dynamodbav:"thumbnail"`
	Duration  float64   `json:"duration" dynamodbav:"duration"`
	Likes     int       `json:"likes" dynamodbav:"likes"`
	Comments  int       `json:"comments" dynamodbav:"comments"`
	Views     int       `json:"views" dynamodbav:"views"`
	Feed      string    `json:"-" dynamodbav:"feed"`
	SortKey   int64     `json:"-" dynamodbav:"created_at_ms"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
}
