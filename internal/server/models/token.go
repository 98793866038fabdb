package models

import "time"

// VerificationToken is a one-time email verification code. Re-requesting
// replaces the previous token for the same address; a successful check
// deletes it.
type VerificationToken struct {
	Email     string    `json:"email"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Expired reports whether the token is past its validity window at now.
func (t *VerificationToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
