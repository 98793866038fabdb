package viewers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

func (r *PostgresRepository) GetActive(ctx context.Context, streamSessionID, clientSessionID string) (*models.StreamViewer, error) {
	query :=
		`SELECT id, stream_session_id, client_session_id, COALESCE(wallet, ''), joined_at, left_at
		 FROM stream_viewers
		 WHERE stream_session_id = $1 AND client_session_id = $2 AND left_at IS NULL
		 `

	v := &models.StreamViewer{}
	err := r.db.QueryRowContext(ctx, query, streamSessionID, clientSessionID).Scan(
		&v.ID, &v.StreamSessionID, &v.ClientSessionID, &v.Wallet, &v.JoinedAt, &v.LeftAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return v, nil
}

func (r *PostgresRepository) WasEverPresent(ctx context.Context, streamSessionID, clientSessionID string) (bool, error) {
	query :=
		`SELECT EXISTS (
		   SELECT 1 FROM stream_viewers
		   WHERE stream_session_id = $1 AND client_session_id = $2
		 )`

	var present bool
	if err := r.db.QueryRowContext(ctx, query, streamSessionID, clientSessionID).Scan(&present); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return present, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, viewer *models.StreamViewer) error {
	query :=
		`INSERT INTO stream_viewers (stream_session_id, client_session_id, wallet)
		 VALUES ($1, $2, NULLIF($3, ''))
		 RETURNING id, joined_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		viewer.StreamSessionID, viewer.ClientSessionID, viewer.Wallet).
		Scan(&viewer.ID, &viewer.JoinedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) MarkLeft(ctx context.Context, streamSessionID, clientSessionID string) (bool, error) {
	query :=
		`UPDATE stream_viewers SET left_at = now()
		 WHERE stream_session_id = $1 AND client_session_id = $2 AND left_at IS NULL
		 `

	res, err := r.db.ExecContext(ctx, query, streamSessionID, clientSessionID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}
