// Package auth verifies the bearer tokens issued by the platform's
// identity provider. The relay never issues session tokens itself; it only
// checks them against the shared signing secret.
package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type ContextKey string

const UserIDKey ContextKey = "userId"

var (
	// ErrMissingToken is returned when no credential was presented at all.
	ErrMissingToken = errors.New("internal/auth: missing token")

	// ErrInvalidToken is returned for malformed, expired, or wrongly signed
	// tokens. The wrapped reason is for server-side logs only and must never
	// be sent to the peer.
	ErrInvalidToken = errors.New("internal/auth: invalid token")
)

// MakeJWT mints a signed token for the given user. Kept for the loadtest
// client and for tests; the server itself only verifies.
func MakeJWT(userID, tokenSecret string, expiresIn time.Duration) (string, error) {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    os.Getenv("JWT_ISS"),
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
	})

	return token.SignedString([]byte(tokenSecret))
}

// Verify validates a bearer credential against the shared signing secret and
// returns the stable user identity carried in the subject claim. It holds no
// shared state and is safe to call on every connection attempt concurrently.
func Verify(tokenString, tokenSecret string) (string, error) {
	if tokenString == "" {
		return "", ErrMissingToken
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (any, error) { return []byte(tokenSecret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return "", ErrInvalidToken
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("%w: subject claim is missing", ErrInvalidToken)
	}

	return claims.Subject, nil
}

// GetUserFromContext returns the user ID stored by the auth middleware.
func GetUserFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(UserIDKey).(string)
	if !ok || userID == "" {
		return "", errors.New("internal/auth: no user ID in request context")
	}

	return userID, nil
}
