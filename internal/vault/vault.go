// Package vault seals provider credentials into signed, expiring envelopes so
// they are never stored in plaintext. A seal is an HS256 JWT carrying the
// payload and an expiry; verification failure and expiry are indistinguishable
// to callers, which keeps the blast radius of a leaked ciphertext bounded.
package vault

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidOrExpiredSeal = errors.New("invalid or expired seal")

type Vault struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func New(secret string, ttl time.Duration) *Vault {
	return &Vault{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

type sealClaims struct {
	Token string `json:"token"`
	jwt.RegisteredClaims
}

// Seal wraps payload in a signed envelope that expires after the vault's TTL.
// Pure transform: no I/O, no stored state.
func (v *Vault) Seal(payload string) (string, error) {
	now := v.now()
	claims := sealClaims{
		Token: payload,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

// Open verifies the signature and expiry of a sealed envelope and returns the
// payload. Any failure maps to ErrInvalidOrExpiredSeal.
func (v *Vault) Open(sealed string) (string, error) {
	var claims sealClaims
	token, err := jwt.ParseWithClaims(sealed, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidOrExpiredSeal
		}
		return v.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return v.now() }))
	if err != nil || !token.Valid {
		return "", ErrInvalidOrExpiredSeal
	}
	return claims.Token, nil
}
