package categories

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

func (r *PostgresRepository) Create(ctx context.Context, category *models.Category) (*models.Category, error) {
	query :=
		`INSERT INTO stream_categories (title, description)
		 VALUES ($1, $2)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query, category.Title, category.Description).
		Scan(&category.ID, &category.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "23505") {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return category, nil
}

func (r *PostgresRepository) GetByTitle(ctx context.Context, title string) (*models.Category, error) {
	query :=
		`SELECT id, title, description, created_at FROM stream_categories
		 WHERE lower(title) = lower($1)
		 `

	c := &models.Category{}
	err := r.db.QueryRowContext(ctx, query, title).
		Scan(&c.ID, &c.Title, &c.Description, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Category, error) {
	query := `SELECT id, title, description, created_at FROM stream_categories ORDER BY title`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Category
	for rows.Next() {
		c := &models.Category{}
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, category *models.Category) error {
	query :=
		`UPDATE stream_categories SET title = $2, description = $3
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, category.ID, category.Title, category.Description)
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
	res, err := r.db.ExecContext(ctx, `DELETE FROM stream_categories WHERE id = $1`, id)
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
