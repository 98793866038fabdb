package verificationtokens

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

func (r *PostgresRepository) Replace(ctx context.Context, token *models.VerificationToken) error {
	query :=
		`INSERT INTO verification_tokens (email, token, expires_at)
		 VALUES (lower($1), $2, $3)
		 ON CONFLICT (email)
		 DO UPDATE SET token = EXCLUDED.token, expires_at = EXCLUDED.expires_at,
		               created_at = now()
		 `

	_, err := r.db.ExecContext(ctx, query, token.Email, token.Token, token.ExpiresAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Find(ctx context.Context, email, token string) (*models.VerificationToken, error) {
	query :=
		`SELECT email, token, expires_at, created_at FROM verification_tokens
		 WHERE email = lower($1) AND token = $2
		 `

	t := &models.VerificationToken{}
	err := r.db.QueryRowContext(ctx, query, email, token).
		Scan(&t.Email, &t.Token, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) DeleteByEmail(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM verification_tokens WHERE email = lower($1)`, email)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
