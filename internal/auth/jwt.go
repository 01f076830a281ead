// Package auth issues and checks the session tokens for the habit API and
// talks to the identity providers.
//
// SESSION FLOW:
//  1. The user signs in, either through GitHub (/auth/github/login →
//     /auth/github/callback) or with email and password (/auth/login).
//  2. The server issues a signed JWT whose subject is the internal user id.
//  3. Browsers get it in the HttpOnly "token" cookie; the CLI sends it as
//     "Authorization: Bearer <jwt>".
//  4. RequireAuth validates it on every /api request and puts the user id
//     in the request context. Nothing about the session is stored server side.
//
// TOKEN LAYOUT:
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header:  {"alg":"HS256","typ":"JWT"}
//	- Payload: {"iss":"habit-tracker","sub":"<userID>","iat":…,"exp":…}
//	- Signature: HMAC-SHA256 with JWT_SECRET
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// Issuer is stamped into every token and required on the way back in.
	Issuer = "habit-tracker"

	// DefaultSessionTTL is how long a sign-in lasts. There is no refresh
	// token; the user signs in again after it runs out.
	DefaultSessionTTL = 7 * 24 * time.Hour
)

var (
	ErrTokenExpired = errors.New("auth: token expired")
	ErrTokenInvalid = errors.New("auth: invalid token")
)

// TokenService signs and verifies session tokens with one HMAC secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService rejects secrets shorter than 16 characters.
// Generate one with: openssl rand -hex 32
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{
		secret: []byte(secret),
		ttl:    DefaultSessionTTL,
		now:    time.Now,
	}, nil
}

// TTL is the lifetime Generate uses. Handlers match the cookie's Max-Age
// to it.
func (s *TokenService) TTL() time.Duration { return s.ttl }

type claims struct {
	jwt.RegisteredClaims
}

// Generate signs a session token for userID with the default lifetime.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, s.ttl)
}

// GenerateWithDuration signs a token that expires after d. A negative d
// yields a token that is already expired, which the tests rely on.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("auth: cannot issue a token without a subject")
	}
	now := s.now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    Issuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies signature, algorithm, issuer and expiry, and returns
// the user id from the subject claim. Only HS256 is accepted, so a token
// claiming "alg":"none" never gets through.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("%w: unexpected claims", ErrTokenInvalid)
	}
	if c.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", ErrTokenInvalid)
	}
	return c.Subject, nil
}
