package http

import (
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/phanstudios/what-the-burn/service"
)

// ContextAddressKey is the gin context key holding the authenticated
// wallet address.
const ContextAddressKey = "walletAddress"

// AuthMiddleware validates the bearer credential and injects the wallet
// address into the request context. Both the "Bearer" and the legacy
// "Token" schemes are accepted.
func AuthMiddleware(auth *service.LedgerAuth) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")

		var credential string
		switch {
		case strings.HasPrefix(header, "Bearer "):
			credential = header[len("Bearer "):]
		case strings.HasPrefix(header, "Token "):
			credential = header[len("Token "):]
		default:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header"})
			return
		}

		address, err := auth.ValidateCredential(credential)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired credential"})
			return
		}

		c.Set(ContextAddressKey, address)
		c.Next()
	}
}

// AdminMiddleware restricts an endpoint to the configured operator
// addresses. It must run after AuthMiddleware.
func AdminMiddleware(admins []common.Address) gin.HandlerFunc {
	allowed := make(map[common.Address]bool, len(admins))
	for _, a := range admins {
		allowed[a] = true
	}
	return func(c *gin.Context) {
		address := common.HexToAddress(c.GetString(ContextAddressKey))
		if !allowed[address] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Operator access required"})
			return
		}
		c.Next()
	}
}
