package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/streamfi/streamfi/internal/server/auth"
)

// walletKey is the gin context key the auth middleware stores the
// authenticated wallet under.
const walletKey = "wallet"

// WalletAuth validates the Bearer session token and injects the wallet it
// was issued to into the request context.
func WalletAuth(secretKey []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorEnvelope{Error: "authorization header required"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorEnvelope{Error: "invalid authorization format"})
			return
		}

		wallet, err := auth.GetWalletFromToken(parts[1], secretKey)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorEnvelope{Error: "invalid or expired token"})
			return
		}

		c.Set(walletKey, wallet)
		c.Next()
	}
}
