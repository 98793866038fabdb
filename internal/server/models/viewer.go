package models

import "time"

// StreamViewer tracks one viewer's presence in a broadcast session. The
// ClientSessionID is supplied by the player; joins are idempotent against it
// while the row is still open (LeftAt unset).
type StreamViewer struct {
	ID              string     `json:"id"`
	StreamSessionID string     `json:"streamSessionId"`
	ClientSessionID string     `json:"sessionId"`
	Wallet          string     `json:"wallet,omitempty"`
	JoinedAt        time.Time  `json:"joinedAt"`
	LeftAt          *time.Time `json:"leftAt,omitempty"`
}
