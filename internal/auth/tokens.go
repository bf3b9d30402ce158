package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/libraryhub/libraryhub/internal/user"
)

const (
	// SessionTTL is the lifetime of issued tokens. Email-verification tokens
	// inherit it; there is no separate override.
	SessionTTL = 24 * time.Hour

	// PurposeEmailVerification marks tokens that may only be redeemed by the
	// verify-email operation. Session tokens carry no purpose claim.
	PurposeEmailVerification = "email_verification"
)

// Claims is the signed claim set carried by every issued token.
type Claims struct {
	Purpose string `json:"purpose,omitempty"`
	UserID  int64  `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and validates bearer tokens with a process-wide HS256
// secret loaded once at startup.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer creates a token issuer for the given signing secret.
func NewTokenIssuer(secret []byte) *TokenIssuer {
	return &TokenIssuer{secret: secret, ttl: SessionTTL}
}

// IssueSession signs a session token whose subject is the user's username.
func (t *TokenIssuer) IssueSession(u user.User) (string, error) {
	return t.issue(Claims{
		RegisteredClaims: t.registered(u.Username),
	})
}

// IssueEmailVerification signs a single-function token redeemable only by
// the verify-email operation.
func (t *TokenIssuer) IssueEmailVerification(u user.User) (string, error) {
	return t.issue(Claims{
		Purpose:          PurposeEmailVerification,
		UserID:           u.ID,
		RegisteredClaims: t.registered(u.Username),
	})
}

func (t *TokenIssuer) registered(subject string) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}
}

func (t *TokenIssuer) issue(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate checks the signature and expiry of a token and returns its
// claims. It never consults the user store; callers must re-resolve the
// subject into a live account so tokens of deleted users are rejected.
func (t *TokenIssuer) Validate(tokenStr string) (Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.secret, nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
	)
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}
