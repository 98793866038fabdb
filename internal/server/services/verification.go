package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/streamfi/streamfi/internal/common"
	"github.com/streamfi/streamfi/internal/logging"
	sc "github.com/streamfi/streamfi/internal/server/config"
	"github.com/streamfi/streamfi/internal/server/models"
	"github.com/streamfi/streamfi/internal/server/repositories/repomanager"
)

const verificationCodeDigits = 6

// VerificationService manages one-time email verification codes. Codes are
// replaced on re-request and expire after the configured TTL; delivery is
// handled outside this service.
type VerificationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	ttl         time.Duration
}

func NewVerificationService(db *sql.DB, m repomanager.RepositoryManager, l logging.Logger, cfg *sc.Config) *VerificationService {
	return &VerificationService{
		db:          db,
		repomanager: m,
		logger:      l.With("module", "verification_service"),
		ttl:         cfg.VerificationTokenTTL,
	}
}

// Request mints a fresh code for the email, superseding any earlier one.
func (s *VerificationService) Request(ctx context.Context, email string) (*models.VerificationToken, error) {
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: invalid email", common.ErrorValidation)
	}

	code, err := common.MakeRandDigits(verificationCodeDigits)
	if err != nil {
		return nil, common.ErrorInternal
	}

	token := &models.VerificationToken{
		Email:     strings.ToLower(email),
		Token:     code,
		ExpiresAt: time.Now().Add(s.ttl),
	}

	if err := s.repomanager.VerificationTokens(s.db).Replace(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// Confirm consumes the code: unknown codes and expired codes both fail, and
// a consumed code cannot be replayed. On success the matching account's
// email is marked verified.
func (s *VerificationService) Confirm(ctx context.Context, email, code string) error {
	repo := s.repomanager.VerificationTokens(s.db)

	token, err := repo.Find(ctx, email, code)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidToken
		}
		return err
	}
	if token.Expired(time.Now()) {
		// Expired codes are purged on sight so re-requests start clean.
		if err := repo.DeleteByEmail(ctx, email); err != nil {
			s.logger.Warn(ctx, "expired token cleanup failed", "email", email, "error", err)
		}
		return common.ErrTokenExpired
	}

	if err := repo.DeleteByEmail(ctx, email); err != nil {
		return err
	}

	if err := s.repomanager.Users(s.db).SetEmailVerified(ctx, email); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// No account with this email yet; verification still succeeds.
			return nil
		}
		return err
	}
	return nil
}
