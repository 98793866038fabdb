package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/streamfi/streamfi/internal/common"
	"github.com/streamfi/streamfi/internal/dbx"
	"github.com/streamfi/streamfi/internal/logging"
	"github.com/streamfi/streamfi/internal/server/models"
	"github.com/streamfi/streamfi/internal/server/repositories/repomanager"
)

// ViewerService tracks viewer presence for live streams. Join and Leave are
// idempotent per client session id, and each runs its viewer row plus
// counter updates in a single transaction.
type ViewerService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewViewerService(db *sql.DB, m repomanager.RepositoryManager, l logging.Logger) *ViewerService {
	return &ViewerService{db: db, repomanager: m, logger: l.With("module", "viewer_service")}
}

// Join records a viewer entering the stream behind playbackID. A repeated
// join with the same client session id succeeds without double counting.
// Returns the resulting live viewer count.
func (s *ViewerService) Join(ctx context.Context, playbackID, clientSessionID, wallet string) (int, error) {
	if playbackID == "" || clientSessionID == "" {
		return 0, fmt.Errorf("%w: playbackId and sessionId are required", common.ErrorValidation)
	}

	user, err := s.repomanager.Users(s.db).GetByPlaybackID(ctx, playbackID)
	if err != nil {
		return 0, err
	}
	if user.StreamState != models.StreamLive {
		return 0, fmt.Errorf("%w: stream is not live", common.ErrorConflict)
	}

	session, err := s.repomanager.Sessions(s.db).GetOpen(ctx, user.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return 0, fmt.Errorf("%w: no open broadcast session", common.ErrorConflict)
		}
		return 0, err
	}

	viewerCount := user.CurrentViewers

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		viewerRepo := s.repomanager.Viewers(tx)

		_, err := viewerRepo.GetActive(ctx, session.ID, clientSessionID)
		if err == nil {
			// Already tracked and not left: idempotent success.
			return nil
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return err
		}

		everPresent, err := viewerRepo.WasEverPresent(ctx, session.ID, clientSessionID)
		if err != nil {
			return err
		}

		if err := viewerRepo.Insert(ctx, &models.StreamViewer{
			StreamSessionID: session.ID,
			ClientSessionID: clientSessionID,
			Wallet:          wallet,
		}); err != nil {
			return err
		}

		viewerCount, err = s.repomanager.Users(tx).IncrementViewers(ctx, user.Wallet)
		if err != nil {
			return err
		}

		return s.repomanager.Sessions(tx).RecordViewer(ctx, session.ID, viewerCount, !everPresent)
	})
	if err != nil {
		return 0, err
	}

	return viewerCount, nil
}

// CountMessage folds one chat message into the open broadcast session's
// counter. Messages sent while no session is open are not accounted.
func (s *ViewerService) CountMessage(ctx context.Context, playbackID string) error {
	user, err := s.repomanager.Users(s.db).GetByPlaybackID(ctx, playbackID)
	if err != nil {
		return err
	}

	session, err := s.repomanager.Sessions(s.db).GetOpen(ctx, user.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return err
	}

	return s.repomanager.Sessions(s.db).IncrementMessages(ctx, session.ID)
}

// Leave closes the viewer row and decrements the live counter, which is
// floored at zero in SQL, so extra leaves are harmless.
func (s *ViewerService) Leave(ctx context.Context, playbackID, clientSessionID string) (int, error) {
	if playbackID == "" || clientSessionID == "" {
		return 0, fmt.Errorf("%w: playbackId and sessionId are required", common.ErrorValidation)
	}

	user, err := s.repomanager.Users(s.db).GetByPlaybackID(ctx, playbackID)
	if err != nil {
		return 0, err
	}

	session, err := s.repomanager.Sessions(s.db).GetOpen(ctx, user.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// Session already closed; nothing left to account for.
			return user.CurrentViewers, nil
		}
		return 0, err
	}

	viewerCount := user.CurrentViewers

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		closed, err := s.repomanager.Viewers(tx).MarkLeft(ctx, session.ID, clientSessionID)
		if err != nil {
			return err
		}
		if !closed {
			// Unknown or already-left session id: idempotent success.
			return nil
		}
		viewerCount, err = s.repomanager.Users(tx).DecrementViewers(ctx, user.Wallet)
		return err
	})
	if err != nil {
		return 0, err
	}

	return viewerCount, nil
}
