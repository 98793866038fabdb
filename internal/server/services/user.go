package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/streamfi/streamfi/internal/common"
	"github.com/streamfi/streamfi/internal/dbx"
	"github.com/streamfi/streamfi/internal/server/auth"
	sc "github.com/streamfi/streamfi/internal/server/config"
	"github.com/streamfi/streamfi/internal/server/models"
	"github.com/streamfi/streamfi/internal/server/repositories/repomanager"
)

// UserService provides account operations: registration, profile updates,
// the follow graph, and session token issuance for the dashboard routes.
type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *sc.Config) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
	}
}

func validWallet(wallet string) bool {
	return strings.HasPrefix(wallet, "0x") && len(wallet) >= 6 && len(wallet) <= 100
}

// Register creates a new account for the wallet.
func (s *UserService) Register(ctx context.Context, user *models.User) (*models.User, error) {
	if !validWallet(user.Wallet) {
		return nil, fmt.Errorf("%w: invalid wallet address", common.ErrorValidation)
	}
	if user.Username == "" || len(user.Username) > 50 {
		return nil, fmt.Errorf("%w: username must be 1-50 characters", common.ErrorValidation)
	}

	created, err := s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *UserService) GetByWallet(ctx context.Context, wallet string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByWallet(ctx, wallet)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByUsername(ctx, username)
}

// UpdateProfile overlays non-empty fields onto the stored profile.
func (s *UserService) UpdateProfile(ctx context.Context, wallet string, updates *models.User) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}

	if updates.Username != "" {
		if len(updates.Username) > 50 {
			return nil, fmt.Errorf("%w: username must be 1-50 characters", common.ErrorValidation)
		}
		user.Username = updates.Username
	}
	if updates.Email != "" {
		if !strings.Contains(updates.Email, "@") {
			return nil, fmt.Errorf("%w: invalid email", common.ErrorValidation)
		}
		if !strings.EqualFold(updates.Email, user.Email) {
			user.EmailVerified = false
		}
		user.Email = updates.Email
	}
	if updates.Avatar != "" {
		user.Avatar = updates.Avatar
	}
	if updates.Bio != "" {
		user.Bio = updates.Bio
	}
	if updates.SocialLinks != nil {
		user.SocialLinks = updates.SocialLinks
	}

	if err := repo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Follow links the wallet's account to the target username. Both sides of
// the graph are updated in one transaction; repeating the call is a no-op.
func (s *UserService) Follow(ctx context.Context, wallet, targetUsername string) error {
	repo := s.repomanager.Users(s.db)

	follower, err := repo.GetByWallet(ctx, wallet)
	if err != nil {
		return err
	}
	target, err := repo.GetByUsername(ctx, targetUsername)
	if err != nil {
		return err
	}
	if strings.EqualFold(follower.Username, target.Username) {
		return fmt.Errorf("%w: cannot follow yourself", common.ErrorValidation)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		txRepo := s.repomanager.Users(tx)
		if err := txRepo.AddFollowing(ctx, follower.Username, target.Username); err != nil {
			return err
		}
		return txRepo.AddFollower(ctx, target.Username, follower.Username)
	})
}

// Unfollow removes the link created by Follow. Unfollowing someone not
// followed is a no-op.
func (s *UserService) Unfollow(ctx context.Context, wallet, targetUsername string) error {
	repo := s.repomanager.Users(s.db)

	follower, err := repo.GetByWallet(ctx, wallet)
	if err != nil {
		return err
	}
	target, err := repo.GetByUsername(ctx, targetUsername)
	if err != nil {
		return err
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		txRepo := s.repomanager.Users(tx)
		if err := txRepo.RemoveFollowing(ctx, follower.Username, target.Username); err != nil {
			return err
		}
		return txRepo.RemoveFollower(ctx, target.Username, follower.Username)
	})
}

// IssueSession mints a session token for an existing wallet. Wallet
// ownership is asserted upstream by the wallet-connect flow; the API trusts
// the address it is given.
func (s *UserService) IssueSession(ctx context.Context, wallet string) (string, error) {
	user, err := s.repomanager.Users(s.db).GetByWallet(ctx, wallet)
	if err != nil {
		return "", err
	}
	return auth.GenerateToken(user.Wallet, s.jwtSecret, s.accessTokenValidityDuration)
}
