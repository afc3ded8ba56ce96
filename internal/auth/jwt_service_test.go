package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"makeitreel/internal/model"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTokenService_RoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret")
	user := &model.User{ID: 42, Email: "ann@example.com"}

	token, err := svc.Issue(user)
	require.NoError(t, err)

	claims, ok := svc.Verify(token)
	require.True(t, ok)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "ann@example.com", claims.Email)
	assert.False(t, claims.ViaOAuth())
}

func TestTokenService_RecordsOrigin(t *testing.T) {
	svc := NewTokenService("test-secret")

	token, err := svc.IssueFor(&model.User{ID: 42, Email: "ann@example.com"}, model.ProviderGoogle)
	require.NoError(t, err)

	claims, ok := svc.Verify(token)
	require.True(t, ok)
	assert.Equal(t, model.ProviderGoogle, claims.Origin)
	assert.True(t, claims.ViaOAuth())
}

func TestTokenService_Expiry(t *testing.T) {
	issuedAt := time.Now()
	svc := NewTokenService("test-secret")
	svc.now = fixedClock(issuedAt)

	token, err := svc.Issue(&model.User{ID: 1, Email: "a@b.com"})
	require.NoError(t, err)

	svc.now = fixedClock(issuedAt.Add(SessionTokenExpiry - time.Minute))
	_, ok := svc.Verify(token)
	assert.True(t, ok, "valid just before 7 days")

	svc.now = fixedClock(issuedAt.Add(SessionTokenExpiry + time.Second))
	_, ok = svc.Verify(token)
	assert.False(t, ok, "invalid after 7 days")
}

func TestTokenService_DifferentSecret(t *testing.T) {
	token, err := NewTokenService("secret-a").Issue(&model.User{ID: 1, Email: "a@b.com"})
	require.NoError(t, err)

	_, ok := NewTokenService("secret-b").Verify(token)
	assert.False(t, ok)
}

func TestTokenService_Malformed(t *testing.T) {
	svc := NewTokenService("test-secret")

	for _, input := range []string{"", "not-a-jwt", "a.b.c"} {
		claims, ok := svc.Verify(input)
		assert.False(t, ok, input)
		assert.Nil(t, claims, input)
	}
}

func TestTokenService_RejectsNoneAlgorithm(t *testing.T) {
	claims := &Claims{
		UserID: 1,
		Email:  "a@b.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, ok := NewTokenService("test-secret").Verify(unsigned)
	assert.False(t, ok)
}

func TestTokenService_UniquePerIssue(t *testing.T) {
	svc := NewTokenService("test-secret")
	user := &model.User{ID: 1, Email: "a@b.com"}

	svc.now = fixedClock(time.Unix(1_700_000_000, 0))
	first, err := svc.Issue(user)
	require.NoError(t, err)

	svc.now = fixedClock(time.Unix(1_700_000_001, 0))
	second, err := svc.Issue(user)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
