// Package users persists platform accounts, including the stream
// provisioning columns that live on the user row.
package users

import (
	"context"
	"time"

	"github.com/streamfi/streamfi/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByWallet(ctx context.Context, wallet string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByPlaybackID(ctx context.Context, playbackID string) (*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	SetEmailVerified(ctx context.Context, email string) error

	// Stream provisioning columns.
	SetStream(ctx context.Context, wallet, streamID, playbackID, streamKey string, creator models.CreatorProfile) error
	UpdateCreator(ctx context.Context, wallet string, creator models.CreatorProfile) error
	ClearStream(ctx context.Context, wallet string) error
	SetLive(ctx context.Context, wallet string, startedAt time.Time) error
	SetIdle(ctx context.Context, wallet string) error

	// Viewer counters. Increment bumps current_viewers and total_views;
	// Decrement floors current_viewers at zero. Both return the resulting
	// current_viewers.
	IncrementViewers(ctx context.Context, wallet string) (int, error)
	DecrementViewers(ctx context.Context, wallet string) (int, error)

	// Follow graph stored as username lists on both sides. Each call is
	// idempotent and touches a single row; the service pairs them in a
	// transaction.
	AddFollowing(ctx context.Context, username, target string) error
	RemoveFollowing(ctx context.Context, username, target string) error
	AddFollower(ctx context.Context, username, follower string) error
	RemoveFollower(ctx context.Context, username, follower string) error
}
