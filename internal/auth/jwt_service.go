package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"makeitreel/internal/model"
)

// SessionTokenExpiry is the lifetime of an issued session token.
const SessionTokenExpiry = 7 * 24 * time.Hour

// Claims represents JWT claims. Origin is the sign-in method; tokens
// without one are password sessions.
type Claims struct {
	UserID uint   `json:"userId"`
	Email  string `json:"email"`
	Origin string `json:"origin,omitempty"`
	jwt.RegisteredClaims
}

// ViaOAuth reports whether the session was opened through a provider.
func (c *Claims) ViaOAuth() bool {
	return c.Origin == model.ProviderGoogle
}

// TokenService issues and verifies stateless session tokens.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

// NewTokenService creates a token service signing with the given secret.
func NewTokenService(secret string) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// Issue signs a password session token carrying the user's id and email.
func (s *TokenService) Issue(user *model.User) (string, error) {
	return s.IssueFor(user, model.ProviderEmail)
}

// IssueFor signs a token recording origin as the sign-in method.
func (s *TokenService) IssueFor(user *model.User, origin string) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Origin: origin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify returns the claims of a valid token. A bad signature, malformed
// input or an expired token all yield ok=false.
func (s *TokenService) Verify(tokenString string) (claims *Claims, ok bool) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, false
	}
	return claims, true
}

func (s *TokenService) parse(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("empty token")
	}

	// Expiry is checked below against the service clock.
	parser := jwt.Parser{SkipClaimsValidation: true}
	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.ExpiresAt == nil || !s.now().Before(claims.ExpiresAt.Time) {
		return nil, errors.New("token expired")
	}
	return claims, nil
}
