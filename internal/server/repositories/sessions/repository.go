// Package sessions persists broadcast sessions: one row per stream start,
// closed when the stream stops.
package sessions

import (
	"context"

	"github.com/streamfi/streamfi/internal/server/models"
)

type Repository interface {
	// Open inserts a new session row for the user. The schema allows at most
	// one open session per user; a second open fails with a conflict.
	Open(ctx context.Context, userID string) (*models.StreamSession, error)

	// GetOpen returns the user's un-ended session.
	GetOpen(ctx context.Context, userID string) (*models.StreamSession, error)

	// CloseOpen stamps ended_at on the user's open session. Closing when no
	// session is open is not an error; it reports closed=false.
	CloseOpen(ctx context.Context, userID string) (closed bool, err error)

	// RecordViewer folds a join into the session counters: peak_viewers via
	// GREATEST against the current count, unique_viewers bumped for
	// first-time client sessions.
	RecordViewer(ctx context.Context, sessionID string, currentViewers int, newUnique bool) error

	// IncrementMessages bumps the chat message counter.
	IncrementMessages(ctx context.Context, sessionID string) error
}
