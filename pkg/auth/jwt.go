package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"dukaan/config"
	"dukaan/pkg/apperr"
)

// TokenTTL is how long a session token stays valid. Expiry is the only
// invalidation path; there is no revocation list.
const TokenTTL = 7 * 24 * time.Hour

// Claims holds the typed JWT payload binding a user to a role.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func secret() []byte {
	return []byte(config.JWTSecret())
}

// GenerateToken creates a signed, time-limited JWT for the given user.
func GenerateToken(userID, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret())
}

// ValidateToken parses and validates a JWT string, returning the embedded
// claims. Bad signature, malformed token and expiry all collapse to the same
// authentication error.
func ValidateToken(t string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(t, &Claims{}, func(tok *jwt.Token) (interface{}, error) {
		return secret(), nil
	})
	if err != nil {
		return nil, apperr.WrapKind(apperr.KindAuthentication, "invalid or expired token", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, apperr.Authentication("invalid or expired token")
	}

	return claims, nil
}
