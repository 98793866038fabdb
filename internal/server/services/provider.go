// Package services contains the server-side business logic: stream
// lifecycle, viewer accounting, playback resolution, accounts, catalog
// lookups, email verification, and media uploads.
package services

import (
	"context"

	"github.com/streamfi/streamfi/internal/server/livepeer"
)

// StreamProvider is the subset of the streaming provider API the services
// depend on. *livepeer.Client satisfies it; tests substitute fakes.
type StreamProvider interface {
	CreateStream(ctx context.Context, name string) (*livepeer.Stream, error)
	UpdateStream(ctx context.Context, id, name string, record bool) error
	DeleteStream(ctx context.Context, id string) error
	Health(ctx context.Context, id string) (*livepeer.HealthStatus, error)
	Playback(ctx context.Context, playbackID string) (*livepeer.PlaybackInfo, error)
}
