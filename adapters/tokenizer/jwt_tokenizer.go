package tokenizer

import (
	"crypto/ecdsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/phanstudios/what-the-burn/ports"
)

// AudienceSession scopes credentials to the ledger session use.
const AudienceSession = "whatburn:session"

// DefaultCredentialTTL is the lifetime of an issued credential.
const DefaultCredentialTTL = 6 * time.Hour

// JWTTokenizer mints and verifies ES256 session credentials.
type JWTTokenizer struct {
	signKey *ecdsa.PrivateKey
	ttl     time.Duration
}

// NewJWTTokenizer creates a tokenizer around the service signing key.
func NewJWTTokenizer(signKey *ecdsa.PrivateKey) *JWTTokenizer {
	return &JWTTokenizer{signKey: signKey, ttl: DefaultCredentialTTL}
}

var _ ports.Tokenizer = (*JWTTokenizer)(nil)

// Issue mints a credential bound to the wallet address.
func (t *JWTTokenizer) Issue(address string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   address,
		ID:        uuid.New().String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		Audience:  jwt.ClaimStrings{AudienceSession},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	signed, err := token.SignedString(t.signKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign credential: %w", err)
	}
	return signed, nil
}

// Verify checks a credential and returns the bound address.
func (t *JWTTokenizer) Verify(credential string) (string, error) {
	token, err := jwt.ParseWithClaims(credential, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return &t.signKey.PublicKey, nil
	}, jwt.WithAudience(AudienceSession), jwt.WithExpirationRequired())

	if err != nil {
		return "", fmt.Errorf("failed to parse credential: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid credential")
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return "", fmt.Errorf("invalid claims type")
	}
	return claims.Subject, nil
}
