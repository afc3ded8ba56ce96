// Package session is a client for the account API that tracks who is signed
// in. A Client starts in StateLoading, moves to StateAuthenticated or
// StateAnonymous once Init has asked the server, and changes again on
// Login, Signup and Logout.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// State is the lifecycle phase of a session.
type State int

const (
	StateLoading State = iota
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Subscription mirrors the server's subscription view.
type Subscription struct {
	Plan         string     `json:"plan"`
	Status       string     `json:"status"`
	BillingCycle string     `json:"billingCycle"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
}

// User mirrors the server's sanitized user view.
type User struct {
	ID           uint          `json:"id"`
	Email        string        `json:"email"`
	Name         string        `json:"name"`
	Image        string        `json:"image,omitempty"`
	Provider     string        `json:"provider"`
	Subscription *Subscription `json:"subscription,omitempty"`
}

// APIError is a non-2xx response. Message is the server's error text,
// unchanged.
type APIError struct {
	Status       int
	Message      string
	Code         string
	AttemptsLeft *int
}

func (e *APIError) Error() string {
	return e.Message
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken starts the client with a previously stored session token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// Client holds the current session. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	state State
	user  *User
	token string
}

// New creates a client for the API mounted at baseURL, e.g.
// "https://makeitreel.com/api".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		state:   StateLoading,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Init asks the server who the stored token belongs to. Any failure,
// including having no token, leaves the client anonymous without an error.
func (c *Client) Init(ctx context.Context) State {
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()

	var user *User
	if token != "" {
		var resp struct {
			User *User `json:"user"`
		}
		if err := c.do(ctx, http.MethodGet, "/verify", token, nil, &resp); err == nil {
			user = resp.User
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if user != nil {
		c.user, c.state = user, StateAuthenticated
	} else {
		c.user, c.token, c.state = nil, "", StateAnonymous
	}
	return c.state
}

// Login signs in with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	return c.signIn(ctx, "/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

// Signup creates an account and signs it in.
func (c *Client) Signup(ctx context.Context, email, password, name string) (*User, error) {
	return c.signIn(ctx, "/signup", map[string]string{
		"email":    email,
		"password": password,
		"name":     name,
	})
}

// Logout forgets the local session. The server is not contacted, so the
// token itself stays valid until it expires.
func (c *Client) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user, c.token, c.state = nil, "", StateAnonymous
}

// CurrentUser returns the signed in user, or nil.
func (c *Client) CurrentUser() *User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

// IsAuthenticated reports whether a user is signed in.
func (c *Client) IsAuthenticated() bool {
	return c.State() == StateAuthenticated
}

// State returns the current lifecycle phase.
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Token returns the session token for persisting between runs.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

type signInResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	User    *User  `json:"user"`
}

func (c *Client) signIn(ctx context.Context, path string, body any) (*User, error) {
	var resp signInResponse
	if err := c.do(ctx, http.MethodPost, path, "", body, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil || resp.Token == "" {
		return nil, fmt.Errorf("session: malformed response from %s", path)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.user, c.token, c.state = resp.User, resp.Token, StateAuthenticated
	return resp.User, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("session: encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("session: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("session: %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("session: read response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return decodeAPIError(res.StatusCode, data)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("session: decode response: %w", err)
	}
	return nil
}

func decodeAPIError(status int, data []byte) *APIError {
	var body struct {
		Error        string `json:"error"`
		Message      string `json:"message"`
		Code         string `json:"code"`
		AttemptsLeft *int   `json:"attemptsLeft"`
	}
	apiErr := &APIError{Status: status}
	if err := json.Unmarshal(data, &body); err == nil {
		apiErr.Message = body.Error
		if apiErr.Message == "" {
			apiErr.Message = body.Message
		}
		apiErr.Code = body.Code
		apiErr.AttemptsLeft = body.AttemptsLeft
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}
