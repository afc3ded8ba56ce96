package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"makeitreel/internal/model"
	"makeitreel/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
	cookies     CookieConfig
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService, cookies CookieConfig) *AuthHandler {
	return &AuthHandler{authService: authService, cookies: cookies}
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SignupRequest represents a user registration request.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required"`
}

// SendVerificationRequest starts a verified signup.
type SendVerificationRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required"`
}

// VerifyEmailRequest completes a verified signup.
type VerifyEmailRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Code     string `json:"code" validate:"required"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required"`
}

// ChangePasswordRequest represents a password change by a signed in user.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

// AuthResponse is returned by every endpoint that signs a user in. The
// token is also set as the session cookie.
type AuthResponse struct {
	Success bool            `json:"success"`
	Token   string          `json:"token"`
	User    *model.UserView `json:"user"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Login godoc
// @Summary Login with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest("Email and password are required")
	}

	result, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return errorResponse(err)
	}
	return h.signedIn(c, http.StatusOK, result)
}

// Signup godoc
// @Summary Create an account and sign in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SignupRequest true "Signup data"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest("Email, password, and name are required")
	}

	result, err := h.authService.Signup(c.Request().Context(), req.Email, req.Password, req.Name)
	if err != nil {
		return errorResponse(err)
	}
	return h.signedIn(c, http.StatusOK, result)
}

// SendVerification godoc
// @Summary Email a signup verification code
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SendVerificationRequest true "Signup data"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /send-verification [post]
func (h *AuthHandler) SendVerification(c echo.Context) error {
	var req SendVerificationRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest("All fields are required")
	}

	if err := h.authService.SendVerification(c.Request().Context(), req.Email); err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{
		Success: true,
		Message: "Verification code sent to your email",
	})
}

// VerifyEmail godoc
// @Summary Confirm a verification code and create the account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body VerifyEmailRequest true "Code and signup data"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /verify-email [post]
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	var req VerifyEmailRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest("All fields are required")
	}

	result, err := h.authService.VerifyEmail(c.Request().Context(), req.Email, req.Code, req.Password, req.Name)
	if err != nil {
		return errorResponse(err)
	}
	return h.signedIn(c, http.StatusOK, result)
}

// Logout godoc
// @Summary Clear the session cookie
// @Description Tokens are stateless and stay valid until they expire.
// @Tags auth
// @Produce json
// @Success 200 {object} MessageResponse
// @Router /logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	h.cookies.clear(c)
	return c.JSON(http.StatusOK, MessageResponse{Success: true})
}

// ChangePassword godoc
// @Summary Change the password of the signed in user
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ChangePasswordRequest true "Passwords"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /change-password [post]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	claims, err := claimsFrom(c)
	if err != nil {
		return err
	}

	var req ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(validationMessage(err, map[string]string{
			"NewPassword.min": "New password must be at least 8 characters long",
		}, "Current password and new password are required"))
	}

	if err := h.authService.ChangePassword(c.Request().Context(), claims.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{
		Success: true,
		Message: "Password changed successfully",
	})
}

func (h *AuthHandler) signedIn(c echo.Context, status int, result *service.AuthResult) error {
	h.cookies.set(c, result.Token)
	return c.JSON(status, AuthResponse{
		Success: true,
		Token:   result.Token,
		User:    result.User.View(),
	})
}
