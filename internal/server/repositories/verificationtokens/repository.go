// Package verificationtokens persists one-time email verification codes.
package verificationtokens

import (
	"context"

	"github.com/streamfi/streamfi/internal/server/models"
)

type Repository interface {
	// Replace upserts the token for an email, discarding any previous one.
	Replace(ctx context.Context, token *models.VerificationToken) error

	// Find returns the token row for the email/code pair.
	Find(ctx context.Context, email, token string) (*models.VerificationToken, error)

	DeleteByEmail(ctx context.Context, email string) error
}
