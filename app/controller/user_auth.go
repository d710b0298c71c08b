package controller

import (
	"errors"
	"net/http"

	"github.com/vibast-solutions/ms-go-posts/app/dto"
	"github.com/vibast-solutions/ms-go-posts/app/entity"
	"github.com/vibast-solutions/ms-go-posts/app/metrics"
	"github.com/vibast-solutions/ms-go-posts/app/service"
	"github.com/vibast-solutions/ms-go-posts/app/types"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type UserAuthController struct {
	userAuthService service.UserAuthService
	cookies         cookieWriter
}

func NewUserAuthController(userAuthService service.UserAuthService, secureCookies bool) *UserAuthController {
	return &UserAuthController{
		userAuthService: userAuthService,
		cookies:         cookieWriter{secure: secureCookies},
	}
}

func (c *UserAuthController) Register(ctx echo.Context) error {
	req, err := types.NewRegisterRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind register request")
		return respondError(ctx, http.StatusBadRequest, "invalid request body")
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Register validation failed")
		return respondError(ctx, http.StatusBadRequest, err.Error())
	}

	logrus.WithField("email", req.Email).Info("Register request received")
	user, err := c.userAuthService.Register(ctx.Request().Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			logrus.WithField("email", req.Email).Warn("Register failed: user already exists")
			metrics.AuthEventsTotal.WithLabelValues("register", metrics.OutcomeFailure).Inc()
			return respondError(ctx, http.StatusConflict, "user already exists")
		}
		if errors.Is(err, service.ErrWeakPassword) {
			logrus.WithField("email", req.Email).Warn("Register failed: weak password")
			metrics.AuthEventsTotal.WithLabelValues("register", metrics.OutcomeFailure).Inc()
			return respondError(ctx, http.StatusBadRequest, err.Error())
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Register failed")
		metrics.AuthEventsTotal.WithLabelValues("register", metrics.OutcomeError).Inc()
		return respondInternalError(ctx)
	}

	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("User registered")
	metrics.AuthEventsTotal.WithLabelValues("register", metrics.OutcomeSuccess).Inc()

	return respond(ctx, http.StatusCreated, dto.NewUserResponse(user), "user registered successfully")
}

func (c *UserAuthController) Login(ctx echo.Context) error {
	req, err := types.NewLoginRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind login request")
		return respondError(ctx, http.StatusBadRequest, "invalid request body")
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Login validation failed")
		return respondError(ctx, http.StatusBadRequest, err.Error())
	}

	logrus.WithField("email", req.Email).Info("Login request received")
	result, err := c.userAuthService.Login(ctx.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLoginThrottled):
			logrus.WithField("email", req.Email).Warn("Login throttled")
			metrics.LoginThrottledTotal.Inc()
			return respondError(ctx, http.StatusTooManyRequests, err.Error())
		case errors.Is(err, service.ErrUserNotFound):
			logrus.WithField("email", req.Email).Warn("Login failed: user does not exist")
			metrics.AuthEventsTotal.WithLabelValues("login", metrics.OutcomeFailure).Inc()
			return respondError(ctx, http.StatusNotFound, "user does not exist")
		case errors.Is(err, service.ErrInvalidCredentials):
			logrus.WithField("email", req.Email).Warn("Login failed: invalid credentials")
			metrics.AuthEventsTotal.WithLabelValues("login", metrics.OutcomeFailure).Inc()
			return respondError(ctx, http.StatusUnauthorized, "invalid user credentials")
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Login failed")
		metrics.AuthEventsTotal.WithLabelValues("login", metrics.OutcomeError).Inc()
		return respondInternalError(ctx)
	}

	c.setSessionCookies(ctx, result)

	logrus.WithField("user_id", result.User.ID).Info("Login successful")
	metrics.AuthEventsTotal.WithLabelValues("login", metrics.OutcomeSuccess).Inc()

	return respond(ctx, http.StatusOK, &dto.LoginResponse{
		User:         dto.NewUserResponse(result.User),
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	}, "user logged in successfully")
}

func (c *UserAuthController) Logout(ctx echo.Context) error {
	userID, ok := ctx.Get("user_id").(uint64)
	if !ok {
		logrus.Warn("Logout failed: missing user_id in context")
		return respondError(ctx, http.StatusUnauthorized, "user not authenticated")
	}

	logrus.WithField("user_id", userID).Info("Logout request received")
	if err := c.userAuthService.Logout(ctx.Request().Context(), userID); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Logout failed")
		metrics.AuthEventsTotal.WithLabelValues("logout", metrics.OutcomeError).Inc()
		return respondInternalError(ctx)
	}

	c.cookies.clear(ctx, types.AccessTokenCookie)
	c.cookies.clear(ctx, types.RefreshTokenCookie)

	logrus.WithField("user_id", userID).Info("Logout successful")
	metrics.AuthEventsTotal.WithLabelValues("logout", metrics.OutcomeSuccess).Inc()

	return respond(ctx, http.StatusOK, struct{}{}, "user logged out successfully")
}

func (c *UserAuthController) RefreshToken(ctx echo.Context) error {
	req, err := types.NewRefreshTokenRequestFromContext(ctx, types.RefreshTokenCookie)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind refresh token request")
		return respondError(ctx, http.StatusUnauthorized, "unauthorized request")
	}

	if err = req.Validate(); err != nil {
		logrus.Debug("Refresh token missing")
		return respondError(ctx, http.StatusUnauthorized, "unauthorized request")
	}

	result, err := c.userAuthService.RefreshSession(ctx.Request().Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRefreshTokenReused):
			logrus.Warn("Refresh failed: token superseded or revoked")
			metrics.AuthEventsTotal.WithLabelValues("refresh", metrics.OutcomeFailure).Inc()
			return respondError(ctx, http.StatusUnauthorized, err.Error())
		case errors.Is(err, service.ErrInvalidToken):
			metrics.AuthEventsTotal.WithLabelValues("refresh", metrics.OutcomeFailure).Inc()
			return respondError(ctx, http.StatusUnauthorized, "invalid refresh token")
		}
		logrus.WithError(err).Error("Refresh failed")
		metrics.AuthEventsTotal.WithLabelValues("refresh", metrics.OutcomeError).Inc()
		return respondInternalError(ctx)
	}

	c.setSessionCookies(ctx, result)

	logrus.WithField("user_id", result.User.ID).Info("Session refreshed")
	metrics.AuthEventsTotal.WithLabelValues("refresh", metrics.OutcomeSuccess).Inc()

	return respond(ctx, http.StatusOK, &dto.TokensResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	}, "access token refreshed")
}

func (c *UserAuthController) CurrentUser(ctx echo.Context) error {
	user, ok := ctx.Get("user").(*entity.User)
	if !ok {
		return respondError(ctx, http.StatusUnauthorized, "user not authenticated")
	}

	return respond(ctx, http.StatusOK, dto.NewUserResponse(user), "current user fetched successfully")
}

func (c *UserAuthController) setSessionCookies(ctx echo.Context, result *dto.SessionResult) {
	c.cookies.set(ctx, types.AccessTokenCookie, result.AccessToken, result.AccessTokenExpiresAt)
	c.cookies.set(ctx, types.RefreshTokenCookie, result.RefreshToken, result.RefreshTokenExpiresAt)
}
