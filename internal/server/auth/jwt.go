// Package auth issues and validates the stateless session tokens that
// authenticate API requests. Tokens are self-contained HS256 JWTs carrying
// only the account id and an absolute expiry; there is no revocation list,
// so a token stays valid until it expires.
package auth

import (
	"errors"
	"time"

	"github.com/dayli-app/api/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// GenerateToken mints a session token for the account, expiring after
// validityDuration on the issuer's clock.
func GenerateToken(accountID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   accountID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetAccountIDFromToken validates signature and expiry and returns the
// subject. Expired tokens yield common.ErrTokenExpired; every other problem
// (bad signature, malformed payload, missing subject) yields
// common.ErrInvalidToken. Callers map both to the same unauthenticated
// response.
func GetAccountIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return "", common.ErrInvalidToken
	}

	return claims.Subject, nil
}
