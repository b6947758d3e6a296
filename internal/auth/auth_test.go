package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestVerify(t *testing.T) {
	t.Run("Valid_token", func(t *testing.T) {
		userID := uuid.NewString()
		tokenSecret := "validtokensecret"
		tokenString, err := MakeJWT(userID, tokenSecret, 15*time.Second)
		if err != nil {
			t.Fatalf("MakeJWT() error = %+v", err)
		}

		gotUserID, err := Verify(tokenString, tokenSecret)
		if err != nil {
			t.Fatalf("Verify() error = %+v", err)
		}
		if gotUserID != userID {
			t.Errorf("want = %s, got = %s", userID, gotUserID)
		}
	})

	t.Run("Missing_token", func(t *testing.T) {
		_, err := Verify("", "validtokensecret")
		if !errors.Is(err, ErrMissingToken) {
			t.Fatalf("Verify() error = %+v, want ErrMissingToken", err)
		}
	})

	t.Run("Incorrect_secret", func(t *testing.T) {
		tokenString, err := MakeJWT(uuid.NewString(), "validtokensecret", 15*time.Second)
		if err != nil {
			t.Fatalf("MakeJWT() error = %+v", err)
		}

		_, err = Verify(tokenString, "fakesecret")
		if !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("Verify() error = %+v, want ErrInvalidToken", err)
		}
	})

	t.Run("Expired_token", func(t *testing.T) {
		tokenSecret := "validtokensecret"
		tokenString, err := MakeJWT(uuid.NewString(), tokenSecret, -1*time.Second)
		if err != nil {
			t.Fatalf("MakeJWT() error = %+v", err)
		}

		_, err = Verify(tokenString, tokenSecret)
		if !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("Verify() error = %+v, want ErrInvalidToken", err)
		}
	})

	t.Run("Corrupt_token", func(t *testing.T) {
		_, err := Verify("corrupttoken", "validtokensecret")
		if !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("Verify() error = %+v, want ErrInvalidToken", err)
		}
	})

	t.Run("Wrong_signing_method", func(t *testing.T) {
		tokenSecret := "validtokensecret"
		now := time.Now().UTC()
		token := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(15 * time.Second)),
		})
		tokenString, err := token.SignedString([]byte(tokenSecret))
		if err != nil {
			t.Fatalf("SignedString() error = %+v", err)
		}

		_, err = Verify(tokenString, tokenSecret)
		if !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("Verify() error = %+v, want ErrInvalidToken", err)
		}
	})

	t.Run("Missing_subject", func(t *testing.T) {
		tokenSecret := "validtokensecret"
		now := time.Now().UTC()
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(15 * time.Second)),
		})
		tokenString, err := token.SignedString([]byte(tokenSecret))
		if err != nil {
			t.Fatalf("SignedString() error = %+v", err)
		}

		_, err = Verify(tokenString, tokenSecret)
		if !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("Verify() error = %+v, want ErrInvalidToken", err)
		}
	})
}

func TestGetUserFromContext(t *testing.T) {
	t.Run("valid_user", func(t *testing.T) {
		wantUserID := uuid.NewString()
		ctx := context.WithValue(context.Background(), UserIDKey, wantUserID)
		gotUserID, err := GetUserFromContext(ctx)
		if err != nil {
			t.Fatalf("GetUserFromContext(): expected userID but got error = %+v", err)
		}
		if gotUserID != wantUserID {
			t.Errorf("want %s but got %s", wantUserID, gotUserID)
		}
	})

	t.Run("empty_context_value", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), UserIDKey, "")
		_, err := GetUserFromContext(ctx)
		if err == nil {
			t.Fatal("GetUserFromContext(): expected error but got none")
		}
	})

	t.Run("no_context", func(t *testing.T) {
		_, err := GetUserFromContext(context.Background())
		if err == nil {
			t.Fatal("GetUserFromContext(): expected error but got none")
		}
	})
}
