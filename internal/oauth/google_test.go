package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	apperrors "makeitreel/internal/errors"
)

func newFakeGoogle(t *testing.T, userinfoStatus int, verified bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-123","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(userinfoStatus)
		_ = json.NewEncoder(w).Encode(Profile{ID: "g-1", Email: "Ann@Gmail.com", VerifiedEmail: verified, Name: "Ann", Picture: "https://img/ann.png"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestProvider(srv *httptest.Server) *GoogleProvider {
	return NewGoogleProvider(GoogleConfig{ClientID: "cid", ClientSecret: "secret", RedirectURL: "http://localhost/cb"}).
		WithEndpoints(oauth2.Endpoint{
			AuthURL:   srv.URL + "/auth",
			TokenURL:  srv.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		}, srv.URL+"/userinfo")
}

func TestGoogleProvider_Exchange(t *testing.T) {
	srv := newFakeGoogle(t, http.StatusOK, true)

	profile, err := newTestProvider(srv).Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.True(t, profile.VerifiedEmail)
	assert.Equal(t, "g-1", profile.ID)
	assert.Equal(t, "Ann@Gmail.com", profile.Email)
	assert.Equal(t, "https://img/ann.png", profile.Picture)
}

func TestGoogleProvider_ExchangeFailures(t *testing.T) {
	tests := []struct {
		name           string
		code           string
		userinfoStatus int
		verified       bool
	}{
		{"token exchange rejected", "bad-code", http.StatusOK, true},
		{"userinfo error", "good-code", http.StatusInternalServerError, true},
		{"unverified email", "good-code", http.StatusOK, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newFakeGoogle(t, tt.userinfoStatus, tt.verified)

			profile, err := newTestProvider(srv).Exchange(context.Background(), tt.code)
			assert.ErrorIs(t, err, apperrors.ErrUpstream)
			assert.Nil(t, profile)
		})
	}
}

func TestGoogleProvider_NetworkError(t *testing.T) {
	srv := newFakeGoogle(t, http.StatusOK, true)
	provider := newTestProvider(srv)
	srv.Close()

	_, err := provider.Exchange(context.Background(), "good-code")
	assert.ErrorIs(t, err, apperrors.ErrUpstream)
}

func TestGoogleProvider_AuthCodeURL(t *testing.T) {
	p := NewGoogleProvider(GoogleConfig{ClientID: "cid", RedirectURL: "http://localhost/cb"})

	u, err := url.Parse(p.AuthCodeURL("state-1"))
	require.NoError(t, err)
	assert.Equal(t, "accounts.google.com", u.Host)
	assert.Equal(t, "state-1", u.Query().Get("state"))
	assert.Equal(t, "cid", u.Query().Get("client_id"))
}
