package upbit

// auth.go — Upbit exchange API authentication.
//
// Every signed request carries a JWT bearer token: HS256 over claims holding
// the access key, a fresh UUID nonce, and — when the request has parameters —
// the SHA512 hex digest of the url-encoded query string.

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type signer struct {
	accessKey string
	secretKey []byte
}

func newSigner(accessKey, secretKey string) *signer {
	return &signer{accessKey: accessKey, secretKey: []byte(secretKey)}
}

// token builds the bearer token for one request. query is the url-encoded
// parameter string ("" for parameterless requests like /v1/accounts).
func (s *signer) token(query string) (string, error) {
	if s.accessKey == "" || len(s.secretKey) == 0 {
		return "", fmt.Errorf("upbit: missing access credentials")
	}

	claims := jwt.MapClaims{
		"access_key": s.accessKey,
		"nonce":      uuid.New().String(),
	}
	if query != "" {
		sum := sha512.Sum512([]byte(query))
		claims["query_hash"] = hex.EncodeToString(sum[:])
		claims["query_hash_alg"] = "SHA512"
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("upbit: sign token: %w", err)
	}
	return signed, nil
}
