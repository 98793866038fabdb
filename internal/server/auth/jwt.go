// Package auth issues and validates the HS256 session tokens used by the
// dashboard and settings endpoints.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/streamfi/streamfi/internal/common"
)

// Claims carries the registered claims plus the authenticated wallet address.
type Claims struct {
	jwt.RegisteredClaims
	Wallet string `json:"wallet"`
}

func GenerateToken(wallet string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Wallet: wallet,
	})

	return token.SignedString(secretKey)
}

// GetWalletFromToken parses and validates a session token, returning the
// wallet it was issued to.
func GetWalletFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, common.ErrInvalidToken
		}
		return secretKey, nil
	})
	if err != nil {
		return "", err
	}

	if !token.Valid || claims.Wallet == "" {
		return "", common.ErrInvalidToken
	}

	return claims.Wallet, nil
}
