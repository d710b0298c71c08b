package router

import (
	"errors"
	"net/http"

	"github.com/vibast-solutions/ms-go-posts/app/controller"
	"github.com/vibast-solutions/ms-go-posts/app/dto"
	"github.com/vibast-solutions/ms-go-posts/app/middleware"
	"github.com/vibast-solutions/ms-go-posts/config"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type Handlers struct {
	Users *controller.UserAuthController
	Posts *controller.PostController
	Auth  *middleware.AuthMiddleware
}

func New(cfg config.HTTPConfig, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = envelopeErrorHandler

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowCredentials: true,
	}))
	if cfg.BodyLimit != "" {
		e.Use(echomiddleware.BodyLimit(cfg.BodyLimit))
	}
	if cfg.RequestTimeout > 0 {
		e.Use(echomiddleware.ContextTimeout(cfg.RequestTimeout))
	}

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")

	user := api.Group("/user")
	user.POST("/register", h.Users.Register)
	user.POST("/login", h.Users.Login)
	user.POST("/refresh-token", h.Users.RefreshToken)
	user.POST("/logout", h.Users.Logout, h.Auth.RequireAuth)
	user.GET("/current-user", h.Users.CurrentUser, h.Auth.RequireAuth)

	post := api.Group("/post", h.Auth.RequireAuth)
	post.POST("/add-post", h.Posts.Create)
	post.GET("/get-user-posts", h.Posts.List)
	post.PUT("/update-post", h.Posts.Update)
	post.DELETE("/delete-post", h.Posts.Delete)

	return e
}

// envelopeErrorHandler renders framework errors (404, 405, body limit,
// timeout, recovered panics) in the same envelope as handler responses.
func envelopeErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "internal server error"

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		code = httpErr.Code
		if text, ok := httpErr.Message.(string); ok {
			message = text
		} else {
			message = http.StatusText(code)
		}
	} else {
		logrus.WithError(err).Error("Unhandled request error")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, dto.NewEnvelope(code, nil, message))
	}
	if err != nil {
		logrus.WithError(err).Warn("Failed to write error response")
	}
}
