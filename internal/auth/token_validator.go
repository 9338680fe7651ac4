// Package auth validates the access tokens issued by the CMS
package auth

import (
	"fmt"
	"math"
	"strconv"

	"github.com/eduportal/progress-service/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// TokenValidator handles JWT access token validation
type TokenValidator struct {
	secret string
}

// NewTokenValidator creates a validator for tokens signed with "secret"
func NewTokenValidator(secret string) *TokenValidator {
	return &TokenValidator{secret: secret}
}

// ValidateAccessToken validates an access token and returns the identity it was issued for
//
// The identity carries the raw token so it can be forwarded to the CMS.
func (tv *TokenValidator) ValidateAccessToken(tokenString string) (models.Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(tv.secret), nil
	})
	if err != nil {
		return models.Identity{}, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return models.Identity{}, fmt.Errorf("token is invalid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.Identity{}, fmt.Errorf("invalid token claims")
	}

	userID, err := userIDFromClaims(claims)
	if err != nil {
		return models.Identity{}, err
	}
	if err := models.ValidateUserID(userID); err != nil {
		return models.Identity{}, err
	}

	return models.Identity{UserID: userID, Token: tokenString}, nil
}

// userIDFromClaims reads the "id" claim, which the CMS encodes as a number or a string
func userIDFromClaims(claims jwt.MapClaims) (string, error) {
	switch id := claims["id"].(type) {
	case float64:
		// JWT claims decode numbers as float64
		if id != math.Trunc(id) {
			return "", fmt.Errorf("id claim is not an integer: %v", id)
		}
		return strconv.FormatFloat(id, 'f', -1, 64), nil
	case string:
		return id, nil
	default:
		return "", fmt.Errorf("id not found in token")
	}
}
