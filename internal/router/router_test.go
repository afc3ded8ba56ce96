package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"makeitreel/internal/auth"
	"makeitreel/internal/config"
	apperrors "makeitreel/internal/errors"
	"makeitreel/internal/handler"
	"makeitreel/internal/logger"
	"makeitreel/internal/model"
	"makeitreel/internal/oauth"
	"makeitreel/internal/service"
)

type stubUsers struct{}

func (stubUsers) GetUserView(ctx context.Context, claims *auth.Claims) (*model.UserView, error) {
	if claims.UserID != 7 {
		return nil, apperrors.ErrUserNotFound
	}
	return &model.UserView{ID: 7, Email: "ann@example.com", Name: "Ann", Provider: model.ProviderEmail}, nil
}

func (stubUsers) Invalidate(ctx context.Context, id uint) {}

type stubAuth struct {
	service.AuthService
	sent int
}

func (s *stubAuth) SendVerification(ctx context.Context, email string) error {
	s.sent++
	return nil
}

type stubStates struct{}

func (stubStates) NewState(ctx context.Context) (string, error) { return "s", nil }
func (stubStates) ConsumeState(ctx context.Context, state string) (bool, error) { return false, nil }

func newTestServer(t *testing.T, sendRate float64) (*echo.Echo, *auth.TokenService, *stubAuth) {
	t.Helper()
	cfg := &config.Config{VerificationSendRate: sendRate}
	tokens := auth.NewTokenService("router-secret")
	authSvc := &stubAuth{}
	cookies := handler.CookieConfig{}
	provider := oauth.NewGoogleProvider(oauth.GoogleConfig{ClientID: "id", ClientSecret: "secret", RedirectURL: "http://localhost/api/oauth/callback"})

	e := echo.New()
	Register(e, cfg, logger.Discard(), tokens, Handlers{
		Auth:  handler.NewAuthHandler(authSvc, cookies),
		User:  handler.NewUserHandler(stubUsers{}),
		OAuth: handler.NewOAuthHandler(provider, stubStates{}, authSvc, cookies, "http://localhost", logger.Discard()),
	})
	return e, tokens, authSvc
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	e, _, _ := newTestServer(t, 0)

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestSessionMiddleware(t *testing.T) {
	e, tokens, _ := newTestServer(t, 0)
	token, err := tokens.Issue(&model.User{ID: 7, Email: "ann@example.com"})
	require.NoError(t, err)
	stranger, err := tokens.Issue(&model.User{ID: 99, Email: "gone@example.com"})
	require.NoError(t, err)

	tests := []struct {
		name           string
		path           string
		prepare        func(r *http.Request)
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "bearer header",
			path:           "/api/verify",
			prepare:        func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Bearer "+token) },
			expectedStatus: http.StatusOK,
		},
		{
			name:           "session cookie",
			path:           "/api/me",
			prepare:        func(r *http.Request) { r.AddCookie(&http.Cookie{Name: handler.SessionCookieName, Value: token}) },
			expectedStatus: http.StatusOK,
		},
		{
			name:           "no credential",
			path:           "/api/verify",
			prepare:        func(r *http.Request) {},
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "NO_TOKEN",
		},
		{
			name:           "tampered token",
			path:           "/api/verify",
			prepare:        func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Bearer "+token+"x") },
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "INVALID_TOKEN",
		},
		{
			name:           "valid token for deleted user",
			path:           "/api/verify",
			prepare:        func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Bearer "+stranger) },
			expectedStatus: http.StatusNotFound,
			expectedCode:   "USER_NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			tt.prepare(req)

			rec := serve(e, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedCode != "" {
				var body apperrors.ErrorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tt.expectedCode, body.Code)
				return
			}
			var body handler.SessionResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "ann@example.com", body.User.Email)
		})
	}
}

func TestSendVerificationRateLimit(t *testing.T) {
	e, _, authSvc := newTestServer(t, 0.01)

	var last int
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/send-verification",
			strings.NewReader(`{"email":"a@b.com","password":"p","name":"n"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		last = serve(e, req).Code
	}

	assert.Equal(t, http.StatusTooManyRequests, last)
	assert.Equal(t, 3, authSvc.sent)
}

func TestGoogleLoginRedirectsToProvider(t *testing.T) {
	e, _, _ := newTestServer(t, 0)

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/api/oauth/google", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	location := rec.Header().Get(echo.HeaderLocation)
	assert.Contains(t, location, "accounts.google.com")
	assert.Contains(t, location, "state=s")
}

func TestOAuthCallbackRejectsUnknownState(t *testing.T) {
	e, _, _ := newTestServer(t, 0)

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/api/oauth/callback?code=abc&state=zzz", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "http://localhost/auth?error=invalid_state", rec.Header().Get(echo.HeaderLocation))
}
