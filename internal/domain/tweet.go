package domain

import (
	"time"
)

// TweetID is a unique identifier for a tweet.
type TweetID string

// String returns the string representation of the TweetID.
func (id TweetID) String() string {
	return string(id)
}

// Tweet represents a tweet as returned by the remote feed API.
type Tweet struct {
	ID             TweetID      `json:"id"`
	Text           string       `json:"text"`
	Author         Author       `json:"author"`
	ConversationID string       `json:"conversation_id,omitempty"`
	PostedAt       time.Time    `json:"posted_at"`
	Media          []Media      `json:"media,omitempty"`
	Metrics        TweetMetrics `json:"metrics"`
}

// Author represents the tweet author.
type Author struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Verified    bool   `json:"verified,omitempty"`
}

// Media represents an image or video attached to a tweet.
type Media struct {
	ID         string    `json:"id"`
	Type       MediaType `json:"type"`
	URL        string    `json:"url"`
	PreviewURL string    `json:"preview_url,omitempty"`
	Width      int       `json:"width,omitempty"`
	Height     int       `json:"height,omitempty"`
}

// MediaType represents the type of media.
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
	MediaTypeGIF   MediaType = "gif"
)

// TweetMetrics contains engagement metrics.
type TweetMetrics struct {
	Likes    int `json:"likes"`
	Retweets int `json:"retweets"`
	Replies  int `json:"replies"`
	Quotes   int `json:"quotes,omitempty"`
}

// HasMedia returns true if the tweet has any attached media.
func (t *Tweet) HasMedia() bool {
	return len(t.Media) > 0
}

// HasReplies returns true if the tweet has at least one reply.
func (t *Tweet) HasReplies() bool {
	return t.Metrics.Replies > 0
}
