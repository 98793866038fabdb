// Package viewers persists per-viewer presence rows inside a broadcast
// session, keyed by the player-supplied client session id.
package viewers

import (
	"context"

	"github.com/streamfi/streamfi/internal/server/models"
)

type Repository interface {
	// GetActive returns the open (not yet left) viewer row for the client
	// session within the given broadcast session.
	GetActive(ctx context.Context, streamSessionID, clientSessionID string) (*models.StreamViewer, error)

	// WasEverPresent reports whether the client session has any row (open or
	// closed) in the broadcast session; used for unique-viewer accounting.
	WasEverPresent(ctx context.Context, streamSessionID, clientSessionID string) (bool, error)

	Insert(ctx context.Context, viewer *models.StreamViewer) error

	// MarkLeft closes the open viewer row for the client session, returning
	// false when there is none (idempotent leave).
	MarkLeft(ctx context.Context, streamSessionID, clientSessionID string) (bool, error)
}
