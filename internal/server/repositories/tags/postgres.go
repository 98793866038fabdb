package tags

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

func (r *PostgresRepository) Create(ctx context.Context, tag *models.Tag) (*models.Tag, error) {
	query :=
		`INSERT INTO tags (name, visible)
		 VALUES ($1, $2)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query, tag.Name, tag.Visible).
		Scan(&tag.ID, &tag.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "23505") {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return tag, nil
}

func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*models.Tag, error) {
	query := `SELECT id, name, visible, created_at FROM tags WHERE lower(name) = lower($1)`

	t := &models.Tag{}
	err := r.db.QueryRowContext(ctx, query, name).Scan(&t.ID, &t.Name, &t.Visible, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) List(ctx context.Context, visibleOnly bool) ([]*models.Tag, error) {
	query := `SELECT id, name, visible, created_at FROM tags`
	if visibleOnly {
		query += ` WHERE visible`
	}
	query += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Tag
	for rows.Next() {
		t := &models.Tag{}
		if err := rows.Scan(&t.ID, &t.Name, &t.Visible, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, tag *models.Tag) error {
	query := `UPDATE tags SET name = $2, visible = $3 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, tag.ID, tag.Name, tag.Visible)
	if err != nil {
		if strings.Contains(err.Error(), "23505") {
			return common.ErrorConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
