package middleware

import (
	"errors"
	"strings"

	"haul-dispatch/internal/pkg/jwt"
	"haul-dispatch/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

const (
	CtxAccountIDKey = "account_id"
	CtxRoleKey      = "role"
)

type AuthMiddleware struct {
	jwt jwt.Service
}

func NewAuthMiddleware(jwtSvc jwt.Service) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwtSvc}
}

func (m *AuthMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		token, ok := bearerTokenFromHeader(c.Get("Authorization"))
		if !ok {
			return NewAppError(fiber.StatusUnauthorized, response.CodeUnauthorized, "Unauthorized", nil, nil)
		}

		claims, err := m.jwt.ValidateToken(token)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return NewAppError(fiber.StatusUnauthorized, response.CodeUnauthorized, "Token expired", nil, err)
			}
			return NewAppError(fiber.StatusUnauthorized, response.CodeUnauthorized, "Invalid token", nil, err)
		}

		if claims.TokenType != jwt.TokenTypeAccess || m.jwt.IsRefreshToken(claims) {
			return NewAppError(fiber.StatusUnauthorized, response.CodeUnauthorized, "Invalid token", nil, nil)
		}

		c.Locals(CtxAccountIDKey, claims.AccountID)
		c.Locals(CtxRoleKey, claims.Role)

		return c.Next()
	}
}

// RequireRole gates a route group to one dispatch role. Runs after
// Middleware has stashed the claims.
func (m *AuthMiddleware) RequireRole(role string) fiber.Handler {
	return func(c fiber.Ctx) error {
		got, _ := c.Locals(CtxRoleKey).(string)
		if got != role {
			return NewAppError(fiber.StatusForbidden, response.CodeForbidden, "Forbidden", nil, nil)
		}
		return c.Next()
	}
}

func bearerTokenFromHeader(authHeader string) (string, bool) {
	authHeader = strings.TrimSpace(authHeader)
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}

	return token, true
}
