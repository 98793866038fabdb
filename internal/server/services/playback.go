package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/streamfi/streamfi/internal/common"
	"github.com/streamfi/streamfi/internal/server/livepeer"
	"github.com/streamfi/streamfi/internal/server/models"
)

const (
	minPlaybackIDLen = 10
	maxPlaybackIDLen = 50
)

// PlaybackResult is the resolved playback manifest plus any locally cached
// stream metadata. Fallback is set when the provider was unreachable and the
// sources were synthesized from the CDN URL template.
type PlaybackResult struct {
	PlaybackID string                    `json:"playbackId"`
	Live       bool                      `json:"live"`
	Sources    []livepeer.PlaybackSource `json:"sources"`
	Fallback   bool                      `json:"fallback"`
	Creator    *models.CreatorProfile    `json:"creator,omitempty"`
	Username   string                    `json:"username,omitempty"`
}

// ResolvePlayback maps a playback id to CDN playback sources. The id is
// length-validated before anything else runs; local metadata lookup is
// best-effort; a provider outage degrades to the configured URL template
// instead of failing the request.
func (s *StreamService) ResolvePlayback(ctx context.Context, playbackID string) (*PlaybackResult, error) {
	if len(playbackID) < minPlaybackIDLen || len(playbackID) > maxPlaybackIDLen {
		return nil, fmt.Errorf("%w: playback id must be %d-%d characters",
			common.ErrorValidation, minPlaybackIDLen, maxPlaybackIDLen)
	}

	result := &PlaybackResult{PlaybackID: playbackID}

	user, err := s.repomanager.Users(s.db).GetByPlaybackID(ctx, playbackID)
	switch {
	case err == nil:
		result.Creator = &user.Creator
		result.Username = user.Username
		result.Live = user.StreamState == models.StreamLive
	case errors.Is(err, common.ErrorNotFound):
		// Streams can be played back without a local account row.
	default:
		s.logger.Warn(ctx, "playback metadata lookup failed", "playback_id", playbackID, "error", err)
	}

	info, err := s.provider.Playback(ctx, playbackID)
	if err != nil {
		switch {
		case errors.Is(err, livepeer.ErrStreamNotFound):
			return nil, fmt.Errorf("%w: unknown playback id", common.ErrorNotFound)
		case errors.Is(err, livepeer.ErrUnauthorized):
			return nil, common.ErrorUnauthorized
		default:
			s.logger.Warn(ctx, "provider playback resolution failed, using CDN fallback",
				"playback_id", playbackID, "error", err)
			result.Fallback = true
			result.Sources = []livepeer.PlaybackSource{{
				Hrn:  "HLS (TS)",
				Type: "html5/application/vnd.apple.mpegurl",
				URL:  fmt.Sprintf(s.config.PlaybackCDNTemplate, playbackID),
			}}
			return result, nil
		}
	}

	result.Live = info.Live || result.Live
	result.Sources = info.Sources
	return result, nil
}
