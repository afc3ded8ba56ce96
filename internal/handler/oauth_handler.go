package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"makeitreel/internal/auth"
	"makeitreel/internal/oauth"
	"makeitreel/internal/service"
)

// OAuthHandler runs the browser redirect flow with the identity provider.
// Failures never produce JSON; they redirect back to the sign-in page.
type OAuthHandler struct {
	provider    oauth.Provider
	states      auth.StateStore
	authService service.AuthService
	cookies     CookieConfig
	appURL      string
	logger      *slog.Logger
}

// NewOAuthHandler creates the OAuth handler. appURL is the public origin the
// browser is sent back to.
func NewOAuthHandler(
	provider oauth.Provider,
	states auth.StateStore,
	authService service.AuthService,
	cookies CookieConfig,
	appURL string,
	logger *slog.Logger,
) *OAuthHandler {
	return &OAuthHandler{
		provider:    provider,
		states:      states,
		authService: authService,
		cookies:     cookies,
		appURL:      strings.TrimRight(appURL, "/"),
		logger:      logger,
	}
}

// GoogleLogin godoc
// @Summary Start Google sign in
// @Tags oauth
// @Success 302
// @Router /oauth/google [get]
func (h *OAuthHandler) GoogleLogin(c echo.Context) error {
	ctx := c.Request().Context()
	state, err := h.states.NewState(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "create oauth state", "error", err)
		return h.fail(c, "oauth_error")
	}
	return c.Redirect(http.StatusFound, h.provider.AuthCodeURL(state))
}

// GoogleCallback godoc
// @Summary Google redirect target
// @Description Redirects to the app with the user encoded in the `user` query parameter, or to /auth?error=... on failure.
// @Tags oauth
// @Param code query string false "Authorization code"
// @Param state query string false "State issued by /oauth/google"
// @Success 302
// @Router /oauth/callback [get]
func (h *OAuthHandler) GoogleCallback(c echo.Context) error {
	ctx := c.Request().Context()

	code := c.QueryParam("code")
	if code == "" {
		return h.fail(c, "no_code")
	}

	ok, err := h.states.ConsumeState(ctx, c.QueryParam("state"))
	if err != nil || !ok {
		h.logger.WarnContext(ctx, "oauth state rejected", "error", err)
		return h.fail(c, "invalid_state")
	}

	profile, err := h.provider.Exchange(ctx, code)
	if err != nil {
		h.logger.ErrorContext(ctx, "oauth exchange failed", "error", err)
		return h.fail(c, "oauth_error")
	}

	result, err := h.authService.OAuthLogin(ctx, profile)
	if err != nil {
		h.logger.ErrorContext(ctx, "oauth login failed", "email", profile.Email, "error", err)
		return h.fail(c, "oauth_error")
	}

	payload, err := json.Marshal(result.User.View())
	if err != nil {
		return h.fail(c, "oauth_error")
	}

	h.cookies.set(c, result.Token)
	return c.Redirect(http.StatusFound, h.appURL+"/?user="+url.QueryEscape(string(payload)))
}

func (h *OAuthHandler) fail(c echo.Context, reason string) error {
	return c.Redirect(http.StatusFound, h.appURL+"/auth?error="+url.QueryEscape(reason))
}
