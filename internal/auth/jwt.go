// Package auth issues and checks the bearer tokens of the HTTP API.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nvaprinting/stockroom/internal/model"
)

// Issuer is the iss claim of every token.
const Issuer = "stockroom"

// TokenExpiry is the default token lifetime.
const TokenExpiry = 48 * time.Hour

// ErrUnknownRole is returned for tokens carrying a role the service does not
// know.
var ErrUnknownRole = errors.New("unknown role")

// Claims is the token payload. Username becomes the acting user of every
// ledger operation made with the token.
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Tokens signs and validates HS256 tokens with one secret.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option configures Tokens.
type Option func(*Tokens)

// WithExpiry sets the token lifetime.
func WithExpiry(ttl time.Duration) Option { return func(t *Tokens) { t.ttl = ttl } }

// WithClock sets the time source for issuing and validating.
func WithClock(now func() time.Time) Option { return func(t *Tokens) { t.now = now } }

func NewTokens(secret string, opts ...Option) *Tokens {
	t := &Tokens{secret: []byte(secret), ttl: TokenExpiry, now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Issue creates a token for user with a unique JTI.
func (t *Tokens) Issue(user model.User) (string, time.Time, error) {
	if !model.ValidRole(user.Role) {
		return "", time.Time{}, fmt.Errorf("issuing token for %s: %w", user.Username, ErrUnknownRole)
	}

	jti, err := generateJTI()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generating JTI: %w", err)
	}

	now := t.now()
	expires := now.Add(t.ttl)
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    Issuer,
			Subject:   user.Username,
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}
	return signed, expires, nil
}

// Validate parses and validates a token, returning its claims.
func (t *Tokens) Validate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if !model.ValidRole(claims.Role) {
		return nil, fmt.Errorf("token role %q: %w", claims.Role, ErrUnknownRole)
	}
	return claims, nil
}

// generateJTI creates a random token ID.
func generateJTI() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
