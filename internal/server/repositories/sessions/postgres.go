package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/streamfi/streamfi/internal/common"
	"github.com/streamfi/streamfi/internal/dbx"
	"github.com/streamfi/streamfi/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Open(ctx context.Context, userID string) (*models.StreamSession, error) {
	query :=
		`INSERT INTO stream_sessions (user_id)
		 VALUES ($1)
		 RETURNING id, started_at
		 `

	s := &models.StreamSession{UserID: userID}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&s.ID, &s.StartedAt)
	if err != nil {
		if strings.Contains(err.Error(), "23505") {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) GetOpen(ctx context.Context, userID string) (*models.StreamSession, error) {
	query :=
		`SELECT id, user_id, started_at, ended_at, peak_viewers, unique_viewers,
		        messages, avg_bitrate, resolution
		 FROM stream_sessions
		 WHERE user_id = $1 AND ended_at IS NULL
		 `

	s := &models.StreamSession{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&s.ID, &s.UserID, &s.StartedAt, &s.EndedAt,
		&s.PeakViewers, &s.UniqueViewers, &s.Messages, &s.AvgBitrate, &s.Resolution)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) CloseOpen(ctx context.Context, userID string) (bool, error) {
	query :=
		`UPDATE stream_sessions SET ended_at = now()
		 WHERE user_id = $1 AND ended_at IS NULL
		 `

	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) RecordViewer(ctx context.Context, sessionID string, currentViewers int, newUnique bool) error {
	query :=
		`UPDATE stream_sessions
		 SET peak_viewers = GREATEST(peak_viewers, $2),
		     unique_viewers = unique_viewers + $3
		 WHERE id = $1
		 `

	uniqueDelta := 0
	if newUnique {
		uniqueDelta = 1
	}
	_, err := r.db.ExecContext(ctx, query, sessionID, currentViewers, uniqueDelta)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) IncrementMessages(ctx context.Context, sessionID string) error {
	query := `UPDATE stream_sessions SET messages = messages + 1 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, sessionID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
