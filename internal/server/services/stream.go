package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/streamfi/streamfi/internal/common"
	"github.com/streamfi/streamfi/internal/dbx"
	"github.com/streamfi/streamfi/internal/logging"
	sc "github.com/streamfi/streamfi/internal/server/config"
	"github.com/streamfi/streamfi/internal/server/models"
	"github.com/streamfi/streamfi/internal/server/repositories/repomanager"
)

const (
	maxTitleLen       = 100
	maxDescriptionLen = 500
)

// StreamInfo bundles the identifiers returned after provisioning. The
// stream key is the ingest secret and is only ever handed to its owner.
type StreamInfo struct {
	StreamID   string `json:"streamId"`
	PlaybackID string `json:"playbackId"`
	StreamKey  string `json:"streamKey"`
}

// StreamService drives the stream lifecycle:
// create (provision) -> start -> stop -> delete, plus metadata updates.
// State changes and their session bookkeeping run in one transaction.
type StreamService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	provider    StreamProvider
	logger      logging.Logger
	config      *sc.Config
}

func NewStreamService(db *sql.DB, m repomanager.RepositoryManager, p StreamProvider, l logging.Logger, cfg *sc.Config) *StreamService {
	return &StreamService{
		db:          db,
		repomanager: m,
		provider:    p,
		logger:      l.With("module", "stream_service"),
		config:      cfg,
	}
}

// Create provisions a provider stream for the wallet and persists its
// identifiers. The caller must not already own a stream; that is checked
// before the provider is contacted.
func (s *StreamService) Create(ctx context.Context, wallet, title, description, category string, tags []string) (*StreamInfo, error) {
	if title == "" || len(title) > maxTitleLen {
		return nil, fmt.Errorf("%w: title must be 1-%d characters", common.ErrorValidation, maxTitleLen)
	}
	if len(description) > maxDescriptionLen {
		return nil, fmt.Errorf("%w: description must be at most %d characters", common.ErrorValidation, maxDescriptionLen)
	}

	userRepo := s.repomanager.Users(s.db)

	user, err := userRepo.GetByWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if user.StreamState != models.StreamUnconfigured {
		return nil, fmt.Errorf("%w: stream already configured", common.ErrorConflict)
	}

	remote, err := s.provider.CreateStream(ctx, title)
	if err != nil {
		return nil, err
	}

	creator := models.CreatorProfile{
		Title:       title,
		Description: description,
		Category:    category,
		Tags:        tags,
	}

	if err := userRepo.SetStream(ctx, wallet, remote.ID, remote.PlaybackID, remote.StreamKey, creator); err != nil {
		// Lost a provisioning race; the guarded update matched no row.
		// Clean up the remote resource so it is not orphaned.
		if errors.Is(err, common.ErrorNotFound) {
			if delErr := s.provider.DeleteStream(ctx, remote.ID); delErr != nil {
				s.logger.Warn(ctx, "orphaned provider stream after lost race", "stream_id", remote.ID, "error", delErr)
			}
			return nil, fmt.Errorf("%w: stream already configured", common.ErrorConflict)
		}
		return nil, err
	}

	s.logger.Info(ctx, "stream provisioned", "wallet", wallet, "playback_id", remote.PlaybackID)

	return &StreamInfo{StreamID: remote.ID, PlaybackID: remote.PlaybackID, StreamKey: remote.StreamKey}, nil
}

// Start transitions idle -> live and opens a broadcast session, atomically.
// A provider health probe runs first; its failure is logged, never blocking.
func (s *StreamService) Start(ctx context.Context, wallet string) (*models.StreamSession, error) {
	userRepo := s.repomanager.Users(s.db)

	user, err := userRepo.GetByWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if user.StreamState == models.StreamUnconfigured {
		return nil, fmt.Errorf("%w: no stream configured", common.ErrorNotFound)
	}
	if !user.StreamState.CanTransition(models.StreamLive) {
		return nil, fmt.Errorf("%w: stream is already live", common.ErrorConflict)
	}

	if health, err := s.provider.Health(ctx, user.LivepeerStreamID); err != nil {
		s.logger.Warn(ctx, "provider health check failed", "wallet", wallet, "error", err)
	} else if !health.Healthy {
		s.logger.Warn(ctx, "stream starting with unhealthy ingest", "wallet", wallet, "issues", health.Issues)
	}

	var session *models.StreamSession
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).SetLive(ctx, wallet, time.Now()); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return fmt.Errorf("%w: stream is already live", common.ErrorConflict)
			}
			return err
		}
		var openErr error
		session, openErr = s.repomanager.Sessions(tx).Open(ctx, user.ID)
		return openErr
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "stream started", "wallet", wallet, "session_id", session.ID)
	return session, nil
}

// Stop transitions live -> idle and closes the open session, atomically.
func (s *StreamService) Stop(ctx context.Context, wallet string) error {
	userRepo := s.repomanager.Users(s.db)

	user, err := userRepo.GetByWallet(ctx, wallet)
	if err != nil {
		return err
	}
	if user.StreamState != models.StreamLive {
		return fmt.Errorf("%w: stream is not live", common.ErrorConflict)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).SetIdle(ctx, wallet); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return fmt.Errorf("%w: stream is not live", common.ErrorConflict)
			}
			return err
		}
		if _, err := s.repomanager.Sessions(tx).CloseOpen(ctx, user.ID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "stream stopped", "wallet", wallet)
	return nil
}

// Update merges the supplied creator fields. A title change is propagated to
// the provider best-effort; a provider failure never fails the update.
func (s *StreamService) Update(ctx context.Context, wallet string, updates models.CreatorProfile) (*models.CreatorProfile, error) {
	if len(updates.Title) > maxTitleLen {
		return nil, fmt.Errorf("%w: title must be at most %d characters", common.ErrorValidation, maxTitleLen)
	}
	if len(updates.Description) > maxDescriptionLen {
		return nil, fmt.Errorf("%w: description must be at most %d characters", common.ErrorValidation, maxDescriptionLen)
	}

	userRepo := s.repomanager.Users(s.db)

	user, err := userRepo.GetByWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}

	merged := mergeCreator(user.Creator, updates)

	if err := userRepo.UpdateCreator(ctx, wallet, merged); err != nil {
		return nil, err
	}

	if updates.Title != "" && updates.Title != user.Creator.Title && user.LivepeerStreamID != "" {
		if err := s.provider.UpdateStream(ctx, user.LivepeerStreamID, updates.Title, true); err != nil {
			s.logger.Warn(ctx, "provider stream rename failed", "wallet", wallet, "error", err)
		}
	}

	return &merged, nil
}

// Delete tears down a non-live stream: provider delete is best-effort, then
// the open session (if any) is closed and the identifiers cleared.
func (s *StreamService) Delete(ctx context.Context, wallet string) error {
	user, err := s.repomanager.Users(s.db).GetByWallet(ctx, wallet)
	if err != nil {
		return err
	}
	if user.StreamState == models.StreamUnconfigured {
		return fmt.Errorf("%w: no stream configured", common.ErrorNotFound)
	}
	if user.StreamState == models.StreamLive {
		return fmt.Errorf("%w: stream is live", common.ErrorConflict)
	}

	return s.teardown(ctx, user)
}

// ForceDelete tears down even a live stream: it first flips the stream back
// to idle and closes the session, then performs the same cleanup as Delete.
func (s *StreamService) ForceDelete(ctx context.Context, wallet string) error {
	user, err := s.repomanager.Users(s.db).GetByWallet(ctx, wallet)
	if err != nil {
		return err
	}
	if user.StreamState == models.StreamUnconfigured {
		return fmt.Errorf("%w: no stream configured", common.ErrorNotFound)
	}

	if user.StreamState == models.StreamLive {
		if err := s.Stop(ctx, wallet); err != nil && !errors.Is(err, common.ErrorConflict) {
			return err
		}
	}

	return s.teardown(ctx, user)
}

func (s *StreamService) teardown(ctx context.Context, user *models.User) error {
	if user.LivepeerStreamID != "" {
		if err := s.provider.DeleteStream(ctx, user.LivepeerStreamID); err != nil {
			s.logger.Warn(ctx, "provider stream delete failed", "wallet", user.Wallet, "stream_id", user.LivepeerStreamID, "error", err)
		}
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Sessions(tx).CloseOpen(ctx, user.ID); err != nil {
			return err
		}
		return s.repomanager.Users(tx).ClearStream(ctx, user.Wallet)
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "stream deleted", "wallet", user.Wallet)
	return nil
}

// mergeCreator overlays non-empty update fields onto the current profile.
func mergeCreator(current, updates models.CreatorProfile) models.CreatorProfile {
	merged := current
	if updates.Title != "" {
		merged.Title = updates.Title
	}
	if updates.Description != "" {
		merged.Description = updates.Description
	}
	if updates.Category != "" {
		merged.Category = updates.Category
	}
	if updates.Tags != nil {
		merged.Tags = updates.Tags
	}
	if updates.Thumbnail != "" {
		merged.Thumbnail = updates.Thumbnail
	}
	return merged
}
