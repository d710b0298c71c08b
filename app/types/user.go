package types

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
)

type RegisterRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func NewRegisterRequestFromContext(ctx echo.Context) (*RegisterRequest, error) {
	var body RegisterRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *RegisterRequest) Validate() error {
	if isBlank(r.FullName) || isBlank(r.Email) || isBlank(r.Password) {
		return errors.New("fullName, email and password are required")
	}
	if !strings.Contains(r.Email, "@") {
		return errors.New("invalid email address")
	}
	if tooLong(r.FullName) || tooLong(r.Email) {
		return fmt.Errorf("fullName and email must be at most %d characters", MaxFieldLength)
	}

	return nil
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func NewLoginRequestFromContext(ctx echo.Context) (*LoginRequest, error) {
	var body LoginRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *LoginRequest) Validate() error {
	if isBlank(r.Email) || isBlank(r.Password) {
		return errors.New("email and password are required")
	}
	if !strings.Contains(r.Email, "@") {
		return errors.New("invalid email address")
	}

	return nil
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// NewRefreshTokenRequestFromContext prefers the refreshToken cookie and only
// reads the body when the cookie is absent.
func NewRefreshTokenRequestFromContext(ctx echo.Context, cookieName string) (*RefreshTokenRequest, error) {
	if cookie, err := ctx.Cookie(cookieName); err == nil && strings.TrimSpace(cookie.Value) != "" {
		return &RefreshTokenRequest{RefreshToken: cookie.Value}, nil
	}

	var body RefreshTokenRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *RefreshTokenRequest) Validate() error {
	if isBlank(r.RefreshToken) {
		return errors.New("refresh token is required")
	}

	return nil
}

// MaxFieldLength matches the VARCHAR(255) columns that store names, emails and titles.
const MaxFieldLength = 255

func isBlank(value string) bool {
	return strings.TrimSpace(value) == ""
}

func tooLong(value string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(value)) > MaxFieldLength
}
