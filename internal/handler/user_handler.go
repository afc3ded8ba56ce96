package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"makeitreel/internal/model"
	"makeitreel/internal/service"
)

// UserHandler serves the session check.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// SessionResponse wraps the current user.
type SessionResponse struct {
	User *model.UserView `json:"user"`
}

// Verify godoc
// @Summary Resolve the session token to the current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SessionResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /verify [get]
func (h *UserHandler) Verify(c echo.Context) error {
	claims, err := claimsFrom(c)
	if err != nil {
		return err
	}
	view, err := h.svc.GetUserView(c.Request().Context(), claims)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, SessionResponse{User: view})
}
