package router

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	"makeitreel/internal/auth"
	"makeitreel/internal/config"
	apperrors "makeitreel/internal/errors"
	"makeitreel/internal/handler"
)

// Handlers groups the HTTP handlers served under /api.
type Handlers struct {
	Auth  *handler.AuthHandler
	User  *handler.UserHandler
	OAuth *handler.OAuthHandler
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	logger *slog.Logger,
	tokens *auth.TokenService,
	h Handlers,
) {
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))
	e.Use(middleware.Recover())

	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/login", h.Auth.Login)
	api.POST("/signup", h.Auth.Signup)
	api.POST("/send-verification", h.Auth.SendVerification, sendVerificationLimiter(cfg.VerificationSendRate))
	api.POST("/verify-email", h.Auth.VerifyEmail)
	api.POST("/logout", h.Auth.Logout)
	api.GET("/oauth/google", h.OAuth.GoogleLogin)
	api.GET("/oauth/callback", h.OAuth.GoogleCallback)

	// Secured routes (bearer header or session cookie)
	secured := api.Group("", SessionMiddleware(tokens))

	secured.GET("/verify", h.User.Verify)
	secured.GET("/me", h.User.Verify)
	secured.POST("/change-password", h.Auth.ChangePassword)
}

// SessionMiddleware verifies the session token and stores its claims under
// handler.ClaimsContextKey.
func SessionMiddleware(tokens *auth.TokenService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  handler.ClaimsContextKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ,cookie:" + handler.SessionCookieName,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			claims, ok := tokens.Verify(token)
			if !ok {
				return nil, apperrors.ErrInvalidToken
			}
			return claims, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			var tokenErr *echojwt.TokenError
			if errors.As(err, &tokenErr) {
				return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
					Error: apperrors.ErrInvalidToken.Message,
					Code:  apperrors.ErrInvalidToken.Code,
				})
			}
			return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
				Error: "No token provided",
				Code:  "NO_TOKEN",
			})
		},
	})
}

// sendVerificationLimiter throttles code emails per client IP. A rate of
// zero or less disables it.
func sendVerificationLimiter(perSecond float64) echo.MiddlewareFunc {
	if perSecond <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(perSecond),
		Burst:     3,
		ExpiresIn: 10 * time.Minute,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, apperrors.ErrorResponse{
				Error: "Unable to identify client",
				Code:  "FORBIDDEN",
			})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, apperrors.ErrorResponse{
				Error: "Too many verification requests. Please try again later.",
				Code:  "RATE_LIMITED",
			})
		},
	})
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURIPath:   true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("path", v.URIPath),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote_ip", v.RemoteIP),
				slog.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			logger.LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	})
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
