// Package auth provides password hashing and the JWT access/refresh token
// pair used by the HTTP API.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

const (
	issuer = "maya"

	// AccessTokenAudience marks short-lived tokens accepted by the API
	// middleware; RefreshTokenAudience marks tokens accepted only by the
	// refresh endpoint.
	AccessTokenAudience  = "maya.access"
	RefreshTokenAudience = "maya.refresh"

	AccessTokenDuration  = 15 * time.Minute
	RefreshTokenDuration = 7 * 24 * time.Hour
)

// Claims is the payload carried by both token kinds. Subject holds the user
// ID, Email is informational.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// HashPassword returns the bcrypt hash for a password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "failed to hash password")
	}
	return string(hash), nil
}

// VerifyPassword reports whether a password matches its stored hash.
func VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateAccessToken issues a short-lived token for API requests.
func GenerateAccessToken(userID string, email string, secret []byte, now time.Time) (string, error) {
	return generateToken(userID, email, AccessTokenAudience, now.Add(AccessTokenDuration), secret)
}

// GenerateRefreshToken issues a long-lived token for the refresh endpoint.
func GenerateRefreshToken(userID string, email string, secret []byte, now time.Time) (string, error) {
	return generateToken(userID, email, RefreshTokenAudience, now.Add(RefreshTokenDuration), secret)
}

func generateToken(userID, email, audience string, expiresAt time.Time, secret []byte) (string, error) {
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			Audience:  jwt.ClaimStrings{audience},
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token")
	}
	return token, nil
}

// Authenticate parses and validates a token, requiring the given audience.
func Authenticate(tokenString, audience string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, errors.Wrap(err, "invalid token")
	}
	return claims, nil
}
