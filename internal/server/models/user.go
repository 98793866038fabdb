// Package models defines the persisted entities of the StreamFi platform.
package models

import "time"

// CreatorProfile is the stream metadata blob stored on the user row
// (users.creator, jsonb). Fields are merged on update, never replaced
// wholesale.
type CreatorProfile struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Thumbnail   string   `json:"thumbnail,omitempty"`
}

// User is a platform account keyed by wallet address. Stream provisioning
// state lives on the user row: a user owns at most one provider stream,
// enforced by a partial unique index on livepeer_stream_id.
type User struct {
	ID            string            `json:"id"`
	Wallet        string            `json:"wallet"`
	Username      string            `json:"username"`
	Email         string            `json:"email,omitempty"`
	EmailVerified bool              `json:"emailVerified"`
	Avatar        string            `json:"avatar,omitempty"`
	Bio           string            `json:"bio,omitempty"`
	SocialLinks   map[string]string `json:"socialLinks,omitempty"`
	Followers     []string          `json:"followers,omitempty"`
	Following     []string          `json:"following,omitempty"`
	Creator       CreatorProfile    `json:"creator"`

	LivepeerStreamID string      `json:"livepeerStreamId,omitempty"`
	PlaybackID       string      `json:"playbackId,omitempty"`
	StreamKey        string      `json:"-"`
	StreamState      StreamState `json:"streamState"`
	CurrentViewers   int         `json:"currentViewers"`
	TotalViews       int64       `json:"totalViews"`
	StreamStartedAt  *time.Time  `json:"streamStartedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
