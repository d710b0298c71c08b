package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/vibast-solutions/ms-go-posts/app/dto"
	"github.com/vibast-solutions/ms-go-posts/app/entity"
	"github.com/vibast-solutions/ms-go-posts/app/service"
	"github.com/vibast-solutions/ms-go-posts/app/types"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type accessTokenAuthenticator interface {
	AuthenticateAccessToken(ctx context.Context, accessToken string) (*entity.User, error)
}

type AuthMiddleware struct {
	authService accessTokenAuthenticator
}

func NewAuthMiddleware(authService accessTokenAuthenticator) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// RequireAuth resolves the caller from the accessToken cookie, falling back to
// an Authorization bearer header, and stores the user under "user" and "user_id".
func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenString := accessTokenFromRequest(c)
		if tokenString == "" {
			logrus.Debug("Missing access token")
			return unauthorized(c, "unauthorized request")
		}

		user, err := m.authService.AuthenticateAccessToken(c.Request().Context(), tokenString)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidToken):
				return unauthorized(c, "invalid access token: "+err.Error())
			case errors.Is(err, service.ErrUserNotFound):
				logrus.Debug("Access token references a missing user")
				return unauthorized(c, "invalid access token")
			}
			logrus.WithError(err).Error("Failed to authenticate access token")
			return c.JSON(http.StatusInternalServerError, dto.NewEnvelope(http.StatusInternalServerError, nil, "internal server error"))
		}

		c.Set("user", user)
		c.Set("user_id", user.ID)

		return next(c)
	}
}

func accessTokenFromRequest(c echo.Context) string {
	if cookie, err := c.Cookie(types.AccessTokenCookie); err == nil && strings.TrimSpace(cookie.Value) != "" {
		return strings.TrimSpace(cookie.Value)
	}

	parts := strings.Fields(c.Request().Header.Get("Authorization"))
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return parts[1]
}

func unauthorized(c echo.Context, message string) error {
	return c.JSON(http.StatusUnauthorized, dto.NewEnvelope(http.StatusUnauthorized, nil, message))
}
