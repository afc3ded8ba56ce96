package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"makeitreel/internal/auth"
	apperrors "makeitreel/internal/errors"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "token"

// CookieConfig controls session cookie attributes.
type CookieConfig struct {
	Secure bool
}

func (cc CookieConfig) set(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(auth.SessionTokenExpiry / time.Second),
	})
}

func (cc CookieConfig) clear(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// ClaimsContextKey is where the JWT middleware stores verified claims.
const ClaimsContextKey = "user"

func claimsFrom(c echo.Context) (*auth.Claims, error) {
	claims, ok := c.Get(ClaimsContextKey).(*auth.Claims)
	if !ok || claims == nil {
		return nil, errorResponse(apperrors.ErrInvalidToken)
	}
	return claims, nil
}

// errorResponse converts a domain error into an echo HTTP error carrying
// the JSON error body.
func errorResponse(err error) *echo.HTTPError {
	httpErr := apperrors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse()).SetInternal(err)
}

func badRequest(message string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
		Error: message,
		Code:  "VALIDATION_ERROR",
	})
}

// validationMessage prefers a field specific message when the failing rule
// has one.
func validationMessage(err error, messages map[string]string, fallback string) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
				return msg
			}
		}
	}
	return fallback
}
