package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

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

const userColumns = `id, wallet, username, COALESCE(email, ''), email_verified,
	COALESCE(avatar, ''), COALESCE(bio, ''), sociallinks, followers, following, creator,
	COALESCE(livepeer_stream_id, ''), COALESCE(playback_id, ''), COALESCE(stream_key, ''),
	stream_state, current_viewers, total_views, stream_started_at, created_at, updated_at`

// isUniqueViolation matches the Postgres 23505 error raised for duplicate
// wallets and usernames. The pgx stdlib driver surfaces the SQLSTATE in the
// error text; matching the code (not free text) keeps this stable.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var socials, followers, following, creator []byte
	err := row.Scan(&u.ID, &u.Wallet, &u.Username, &u.Email, &u.EmailVerified,
		&u.Avatar, &u.Bio, &socials, &followers, &following, &creator,
		&u.LivepeerStreamID, &u.PlaybackID, &u.StreamKey,
		&u.StreamState, &u.CurrentViewers, &u.TotalViews, &u.StreamStartedAt,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if err := json.Unmarshal(socials, &u.SocialLinks); err != nil {
		return nil, fmt.Errorf("sociallinks decode error: %w", err)
	}
	if err := json.Unmarshal(followers, &u.Followers); err != nil {
		return nil, fmt.Errorf("followers decode error: %w", err)
	}
	if err := json.Unmarshal(following, &u.Following); err != nil {
		return nil, fmt.Errorf("following decode error: %w", err)
	}
	if err := json.Unmarshal(creator, &u.Creator); err != nil {
		return nil, fmt.Errorf("creator decode error: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	socials, err := json.Marshal(user.SocialLinks)
	if err != nil {
		return nil, fmt.Errorf("sociallinks encode error: %w", err)
	}

	query :=
		`INSERT INTO users (wallet, username, email, avatar, bio, sociallinks)
		 VALUES (lower($1), $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6)
		 RETURNING id, stream_state, created_at, updated_at
		 `

	err = r.db.QueryRowContext(ctx, query,
		user.Wallet, user.Username, user.Email, user.Avatar, user.Bio, socials).
		Scan(&user.ID, &user.StreamState, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	user.Wallet = strings.ToLower(user.Wallet)

	return user, nil
}

func (r *PostgresRepository) GetByWallet(ctx context.Context, wallet string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(wallet) = lower($1)`
	return scanUser(r.db.QueryRowContext(ctx, query, wallet))
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(username) = lower($1)`
	return scanUser(r.db.QueryRowContext(ctx, query, username))
}

func (r *PostgresRepository) GetByPlaybackID(ctx context.Context, playbackID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE playback_id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, playbackID))
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	socials, err := json.Marshal(user.SocialLinks)
	if err != nil {
		return fmt.Errorf("sociallinks encode error: %w", err)
	}

	query :=
		`UPDATE users
		 SET username = $2, email = NULLIF($3, ''), avatar = NULLIF($4, ''),
		     bio = NULLIF($5, ''), sociallinks = $6, updated_at = now()
		 WHERE lower(wallet) = lower($1)
		 `

	res, err := r.db.ExecContext(ctx, query,
		user.Wallet, user.Username, user.Email, user.Avatar, user.Bio, socials)
	if err != nil {
		if isUniqueViolation(err) {
			return common.ErrorConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res)
}

func (r *PostgresRepository) SetEmailVerified(ctx context.Context, email string) error {
	query := `UPDATE users SET email_verified = TRUE, updated_at = now() WHERE lower(email) = lower($1)`
	res, err := r.db.ExecContext(ctx, query, email)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res)
}

func (r *PostgresRepository) SetStream(ctx context.Context, wallet, streamID, playbackID, streamKey string, creator models.CreatorProfile) error {
	blob, err := json.Marshal(creator)
	if err != nil {
		return fmt.Errorf("creator encode error: %w", err)
	}

	query :=
		`UPDATE users
		 SET livepeer_stream_id = $2, playback_id = $3, stream_key = $4,
		     creator = creator || $5, stream_state = 'idle', updated_at = now()
		 WHERE lower(wallet) = lower($1) AND stream_state = 'unconfigured'
		 `

	res, err := r.db.ExecContext(ctx, query, wallet, streamID, playbackID, streamKey, blob)
	if err != nil {
		if isUniqueViolation(err) {
			return common.ErrorConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res)
}

func (r *PostgresRepository) UpdateCreator(ctx context.Context, wallet string, creator models.CreatorProfile) error {
	blob, err := json.Marshal(creator)
	if err != nil {
		return fmt.Errorf("creator encode error: %w", err)
	}

	query :=
		`UPDATE users SET creator = creator || $2, updated_at = now()
		 WHERE lower(wallet) = lower($1)
		 `

	res, err := r.db.ExecContext(ctx, query, wallet, blob)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res)
}

func (r *PostgresRepository) ClearStream(ctx context.Context, wallet string) error {
	query :=
		`UPDATE users
		 SET livepeer_stream_id = NULL, playback_id = NULL, stream_key = NULL,
		     stream_state = 'unconfigured', current_viewers = 0,
		     stream_started_at = NULL, updated_at = now()
		 WHERE lower(wallet) = lower($1)
		 `

	res, err := r.db.ExecContext(ctx, query, wallet)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res)
}

func (r *PostgresRepository) SetLive(ctx context.Context, wallet string, startedAt time.Time) error {
	query :=
		`UPDATE users
		 SET stream_state = 'live', current_viewers = 0, stream_started_at = $2,
		     updated_at = now()
		 WHERE lower(wallet) = lower($1) AND stream_state = 'idle'
		 `

	res, err := r.db.ExecContext(ctx, query, wallet, startedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res)
}

func (r *PostgresRepository) SetIdle(ctx context.Context, wallet string) error {
	query :=
		`UPDATE users
		 SET stream_state = 'idle', current_viewers = 0, updated_at = now()
		 WHERE lower(wallet) = lower($1) AND stream_state = 'live'
		 `

	res, err := r.db.ExecContext(ctx, query, wallet)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res)
}

func (r *PostgresRepository) IncrementViewers(ctx context.Context, wallet string) (int, error) {
	query :=
		`UPDATE users
		 SET current_viewers = current_viewers + 1, total_views = total_views + 1,
		     updated_at = now()
		 WHERE lower(wallet) = lower($1)
		 RETURNING current_viewers
		 `

	var viewers int
	if err := r.db.QueryRowContext(ctx, query, wallet).Scan(&viewers); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return viewers, nil
}

func (r *PostgresRepository) DecrementViewers(ctx context.Context, wallet string) (int, error) {
	query :=
		`UPDATE users
		 SET current_viewers = GREATEST(current_viewers - 1, 0), updated_at = now()
		 WHERE lower(wallet) = lower($1)
		 RETURNING current_viewers
		 `

	var viewers int
	if err := r.db.QueryRowContext(ctx, query, wallet).Scan(&viewers); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return viewers, nil
}

func (r *PostgresRepository) AddFollowing(ctx context.Context, username, target string) error {
	query :=
		`UPDATE users SET following = following || to_jsonb($2::text), updated_at = now()
		 WHERE lower(username) = lower($1) AND NOT following @> to_jsonb($2::text)
		 `
	_, err := r.db.ExecContext(ctx, query, username, target)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) RemoveFollowing(ctx context.Context, username, target string) error {
	query :=
		`UPDATE users SET following = following - $2, updated_at = now()
		 WHERE lower(username) = lower($1)
		 `
	_, err := r.db.ExecContext(ctx, query, username, target)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) AddFollower(ctx context.Context, username, follower string) error {
	query :=
		`UPDATE users SET followers = followers || to_jsonb($2::text), updated_at = now()
		 WHERE lower(username) = lower($1) AND NOT followers @> to_jsonb($2::text)
		 `
	_, err := r.db.ExecContext(ctx, query, username, follower)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) RemoveFollower(ctx context.Context, username, follower string) error {
	query :=
		`UPDATE users SET followers = followers - $2, updated_at = now()
		 WHERE lower(username) = lower($1)
		 `
	_, err := r.db.ExecContext(ctx, query, username, follower)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// requireRow converts a zero-row update into ErrorNotFound. Guarded updates
// (stream_state predicates) also land here, which the services translate to
// conflicts after re-reading the row.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
