package api

import (
	"time"

	"github.com/example/task-manager-demo/domain/user"
)

// RegisterRequest represents a user registration request. There is no
// role field: self-registration always yields a regular user.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents a user login request. Username accepts either
// a username or an email address.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse represents an authentication token response.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// UserResponse represents a user response.
type UserResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      user.Role `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskRequest carries the task fields for create and full-replace update.
type TaskRequest struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	Priority  *int   `json:"priority"`
}

// TaskResponse represents a single task.
type TaskResponse struct {
	ID        uint   `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	Priority  *int   `json:"priority"`
}

// TaskListResponse is a page of tasks plus pagination metadata.
type TaskListResponse struct {
	Total int64          `json:"total"`
	Skip  int            `json:"skip"`
	Limit int            `json:"limit"`
	Data  []TaskResponse `json:"data"`
}

// ResetRequestBody asks for a password-reset link.
type ResetRequestBody struct {
	Email string `json:"email"`
}

// ResetConfirmBody carries a reset token and the new password.
type ResetConfirmBody struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// MessageResponse is a simple acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
