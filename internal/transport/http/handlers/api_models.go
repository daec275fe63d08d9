package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arklim/console-auth/internal/core/domain"
	"github.com/arklim/console-auth/internal/transport/http/middleware"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context.
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: middleware.GetTraceID(c),
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse describes the response returned for a successful login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Username    string `json:"username"`
	GlobalAdmin bool   `json:"global_admin"`
}

// UserCreateRequest defines the payload for creating an account.
type UserCreateRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserUpdateRequest defines the payload for replacing a user's password.
type UserUpdateRequest struct {
	Username    string `json:"username" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// PasswordChangeRequest captures a self-service password rotation body.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// UserSummary describes the view of a user returned by the API. The password
// digest never leaves the service.
type UserSummary struct {
	Username  string    `json:"username"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserPageResponse wraps one page of accounts.
type UserPageResponse struct {
	TotalCount     int           `json:"total_count"`
	PageNumber     int           `json:"page_number"`
	PagesAvailable int           `json:"pages_available"`
	PageItems      []UserSummary `json:"page_items"`
}

// UserSearchResponse wraps the usernames matched by a search.
type UserSearchResponse struct {
	Usernames []string `json:"usernames"`
}

// HealthResponse describes the service health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadyResponse describes readiness probe results with dependency checks.
type ReadyResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

func newUserSummary(user domain.User) UserSummary {
	return UserSummary{
		Username:  user.Username,
		Enabled:   user.Enabled,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func newUserPageResponse(page *domain.UserPage) UserPageResponse {
	resp := UserPageResponse{
		TotalCount:     page.TotalCount,
		PageNumber:     page.PageNumber,
		PagesAvailable: page.PagesAvailable,
		PageItems:      make([]UserSummary, 0, len(page.PageItems)),
	}

	for _, user := range page.PageItems {
		resp.PageItems = append(resp.PageItems, newUserSummary(user))
	}

	return resp
}
