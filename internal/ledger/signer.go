package ledger

import (
	"crypto/ecdsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Signer is the identity used to authorize ledger writes. The gateway
// verifies the ES256 signature against the registered admin key.
type Signer struct {
	key     *ecdsa.PrivateKey
	subject string
	ttl     time.Duration
}

func NewSigner(key *ecdsa.PrivateKey, subject string) *Signer {
	return &Signer{
		key:     key,
		subject: subject,
		ttl:     2 * time.Minute,
	}
}

// Token mints a short-lived bearer token for a single gateway call.
func (s *Signer) Token() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    "inventory-api",
		Subject:   s.subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign gateway token: %w", err)
	}
	return signed, nil
}
