package controller

import (
	"net/http"
	"time"

	"github.com/vibast-solutions/ms-go-posts/app/dto"

	"github.com/labstack/echo/v4"
)

const internalErrorMessage = "internal server error"

func respond(ctx echo.Context, statusCode int, data any, message string) error {
	return ctx.JSON(statusCode, dto.NewEnvelope(statusCode, data, message))
}

func respondError(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, dto.NewEnvelope(statusCode, nil, message))
}

func respondInternalError(ctx echo.Context) error {
	return respondError(ctx, http.StatusInternalServerError, internalErrorMessage)
}

// cookieWriter sets and clears the session cookies. SameSite=None is only
// accepted by browsers on Secure cookies, so insecure (local) mode uses Lax.
type cookieWriter struct {
	secure bool
}

func (w cookieWriter) set(ctx echo.Context, name, value string, expiresAt time.Time) {
	ctx.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   w.secure,
		SameSite: w.sameSite(),
	})
}

func (w cookieWriter) clear(ctx echo.Context, name string) {
	ctx.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   w.secure,
		SameSite: w.sameSite(),
	})
}

func (w cookieWriter) sameSite() http.SameSite {
	if w.secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}
