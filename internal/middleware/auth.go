// Package middleware provides authentication, logging and rate-limiting
// middleware for the application.
package middleware

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// TokenVerifier resolves a bearer credential to a user identity. The
// credential issuer lives elsewhere; this backend only verifies.
type TokenVerifier interface {
	Verify(token string) (uint, error)
}

// JWTVerifier verifies HMAC-signed JWTs carrying the user ID in the subject claim.
type JWTVerifier struct {
	Secret string
}

// Verify parses and validates the token and returns the user ID from its subject.
func (v *JWTVerifier) Verify(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(v.Secret), nil
	})
	if err != nil || !token.Valid {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "Invalid subject claim")
	}

	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "Invalid user ID in token")
	}

	return uint(userID), nil
}

// BearerToken extracts the credential from the Authorization header, falling
// back to the `token` query parameter for websocket upgrade requests where
// custom headers are not available.
func BearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	return c.Query("token")
}
