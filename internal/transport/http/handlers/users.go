package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arklim/console-auth/internal/transport/http/middleware"
	"github.com/arklim/console-auth/internal/usecase"
)

// UserHandler exposes account management endpoints.
type UserHandler struct {
	users *usecase.UserService
}

// NewUserHandler constructs UserHandler.
func NewUserHandler(users *usecase.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// RegisterRoutes binds the account management routes. Every route assumes the
// authentication middleware already ran.
func (h *UserHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/users", h.list)
	r.POST("/users", h.create)
	r.PUT("/users", h.update)
	r.DELETE("/users", h.remove)
	r.GET("/users/search", h.search)
	r.PUT("/users/password", h.changeOwnPassword)
}

// Create godoc
// @Summary Create a user account
// @Description Registers a new account with the supplied username and password.
// @Tags Users
// @Accept json
// @Produce json
// @Param request body UserCreateRequest true "Account payload"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /v1/auth/users [post]
func (h *UserHandler) create(c *gin.Context) {
	actor, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req UserCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid user payload"))
		return
	}

	err := h.users.CreateUser(c.Request.Context(), actor, req.Username, req.Password)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrPermissionDenied, Status: http.StatusForbidden, Message: "permission denied"},
			{Err: usecase.ErrUserExists, Status: http.StatusBadRequest, Message: "user already exists"},
			{Err: usecase.ErrPasswordPolicyViolation, Status: http.StatusBadRequest, Message: "password does not meet requirements"},
		}, http.StatusInternalServerError, "failed to create user")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "create user ok"})
}

// Remove godoc
// @Summary Delete a user account
// @Description Removes the named account. Accounts holding the global admin role are protected.
// @Tags Users
// @Produce json
// @Param username query string true "Username to delete"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /v1/auth/users [delete]
func (h *UserHandler) remove(c *gin.Context) {
	actor, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	username := strings.TrimSpace(c.Query("username"))
	if username == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "username is required"))
		return
	}

	err := h.users.DeleteUser(c.Request.Context(), actor, username)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrPermissionDenied, Status: http.StatusForbidden, Message: "permission denied"},
			{Err: usecase.ErrCannotDeleteAdmin, Status: http.StatusBadRequest, Message: "cannot delete a global admin account"},
		}, http.StatusInternalServerError, "failed to delete user")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "delete user ok"})
}

// Update godoc
// @Summary Replace a user's password
// @Description Sets a new password for the named account. Permitted for the account owner or a global admin.
// @Tags Users
// @Accept json
// @Produce json
// @Param request body UserUpdateRequest true "Update payload"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /v1/auth/users [put]
func (h *UserHandler) update(c *gin.Context) {
	actor, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid update payload"))
		return
	}

	err := h.users.UpdateUser(c.Request.Context(), actor, req.Username, req.NewPassword)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrPermissionDenied, Status: http.StatusForbidden, Message: "permission denied"},
			{Err: usecase.ErrUserNotFound, Status: http.StatusBadRequest, Message: "user not found"},
			{Err: usecase.ErrPasswordPolicyViolation, Status: http.StatusBadRequest, Message: "password does not meet requirements"},
		}, http.StatusInternalServerError, "failed to update user")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "update user ok"})
}

// ChangeOwnPassword godoc
// @Summary Rotate the caller's password
// @Description Verifies the current password and replaces it with the new one.
// @Tags Users
// @Accept json
// @Produce json
// @Param request body PasswordChangeRequest true "Password change payload"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /v1/auth/users/password [put]
func (h *UserHandler) changeOwnPassword(c *gin.Context) {
	actor, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req PasswordChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid password payload"))
		return
	}

	err := h.users.UpdateOwnPassword(c.Request.Context(), actor, req.CurrentPassword, req.NewPassword)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrCurrentPasswordInvalid, Status: http.StatusUnauthorized, Message: "current password is incorrect"},
			{Err: usecase.ErrUserNotFound, Status: http.StatusBadRequest, Message: "user not found"},
			{Err: usecase.ErrPasswordPolicyViolation, Status: http.StatusBadRequest, Message: "password does not meet requirements"},
			{Err: usecase.ErrPermissionDenied, Status: http.StatusForbidden, Message: "permission denied"},
		}, http.StatusInternalServerError, "failed to change password")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "update password ok"})
}

// List godoc
// @Summary List user accounts
// @Description Returns one page of accounts ordered by username.
// @Tags Users
// @Produce json
// @Param pageNo query int false "Page number (1-based)"
// @Param pageSize query int false "Page size"
// @Success 200 {object} UserPageResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /v1/auth/users [get]
func (h *UserHandler) list(c *gin.Context) {
	actor, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	pageNo := queryInt(c, "pageNo", 1)
	pageSize := queryInt(c, "pageSize", 20)

	page, err := h.users.ListUsers(c.Request.Context(), actor, pageNo, pageSize)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrPermissionDenied, Status: http.StatusForbidden, Message: "permission denied"},
		}, http.StatusInternalServerError, "failed to list users")
		return
	}

	c.JSON(http.StatusOK, newUserPageResponse(page))
}

// Search godoc
// @Summary Search usernames by fragment
// @Description Returns usernames containing the supplied fragment.
// @Tags Users
// @Produce json
// @Param username query string true "Username fragment"
// @Success 200 {object} UserSearchResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /v1/auth/users/search [get]
func (h *UserHandler) search(c *gin.Context) {
	actor, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	fragment := strings.TrimSpace(c.Query("username"))

	usernames, err := h.users.SearchUsers(c.Request.Context(), actor, fragment)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrPermissionDenied, Status: http.StatusForbidden, Message: "permission denied"},
		}, http.StatusInternalServerError, "failed to search users")
		return
	}

	if usernames == nil {
		usernames = []string{}
	}

	c.JSON(http.StatusOK, UserSearchResponse{Usernames: usernames})
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
