// Package sealer issues and opens opaque bearer tokens. Tokens are
// AES-GCM sealed JSON claims, so they carry identity without a server-side
// session store and cannot be forged or read by the client.
package sealer

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"time"
)

const (
	PurposeAccess      = "access"
	PurposeVerifyEmail = "verify-email"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Claims is the payload sealed inside a token.
type Claims struct {
	Subject   string    `json:"sub"`
	Role      string    `json:"role"`
	Purpose   string    `json:"pur"`
	ExpiresAt time.Time `json:"exp"`
}

type Sealer struct {
	aead cipher.AEAD
}

// New builds a Sealer from a 32-byte AES-256 key.
func New(key []byte) (*Sealer, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &Sealer{aead: aead}, nil
}

// Seal encrypts the claims into an opaque URL-safe token.
func (s *Sealer) Seal(claims Claims) (string, error) {
	plaintext, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ct := s.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(ct), nil
}

// Open decrypts a token and validates its purpose and expiry.
func (s *Sealer) Open(token string, purpose string) (Claims, error) {
	var claims Claims

	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return claims, ErrInvalidToken
	}

	nonceSize := s.aead.NonceSize()
	if len(data) < nonceSize {
		return claims, ErrInvalidToken
	}

	nonce := data[:nonceSize]
	ciphertext := data[nonceSize:]

	pt, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return claims, ErrInvalidToken
	}

	if err := json.Unmarshal(pt, &claims); err != nil {
		return claims, ErrInvalidToken
	}

	if claims.Purpose != purpose {
		return claims, ErrInvalidToken
	}

	if time.Now().After(claims.ExpiresAt) {
		return claims, ErrExpiredToken
	}

	return claims, nil
}
