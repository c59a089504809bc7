package auth

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/task-manager-demo/domain/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// AuthPort defines the interface for authentication operations.
// This is the port that other modules use to access auth functionality.
type AuthPort interface {
	ValidateToken(ctx context.Context, token string) (*user.Claims, error)
	GetUser(ctx context.Context, userID uint) (*user.User, error)
	ListUsers(ctx context.Context) ([]user.User, error)
}

// AuthAdapter implements AuthPort using the service container.
type AuthAdapter struct {
	container mono.ServiceContainer
}

// NewAuthAdapter creates a new AuthAdapter.
func NewAuthAdapter(container mono.ServiceContainer) *AuthAdapter {
	return &AuthAdapter{
		container: container,
	}
}

// ValidateToken validates an access token and returns claims.
func (a *AuthAdapter) ValidateToken(ctx context.Context, token string) (*user.Claims, error) {
	req := ValidateTokenRequest{Token: token}
	var resp ValidateTokenResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"validate-token",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("validate-token request failed: %w", err)
	}

	if !resp.Valid {
		return nil, fmt.Errorf("token validation failed: %s", resp.Error)
	}

	return &user.Claims{UserID: resp.UserID}, nil
}

// GetUser retrieves a user by ID.
func (a *AuthAdapter) GetUser(ctx context.Context, userID uint) (*user.User, error) {
	req := GetUserRequest{UserID: userID}
	var resp UserInfo

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"get-user",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("get-user request failed: %w", err)
	}

	return &user.User{
		ID:        resp.ID,
		Username:  resp.Username,
		Email:     resp.Email,
		Role:      resp.Role,
		CreatedAt: resp.CreatedAt,
	}, nil
}

// ListUsers retrieves all users.
func (a *AuthAdapter) ListUsers(ctx context.Context) ([]user.User, error) {
	var resp ListUsersResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"list-users",
		json.Marshal,
		json.Unmarshal,
		&ListUsersRequest{},
		&resp,
	); err != nil {
		return nil, fmt.Errorf("list-users request failed: %w", err)
	}

	users := make([]user.User, 0, len(resp.Users))
	for _, info := range resp.Users {
		users = append(users, user.User{
			ID:        info.ID,
			Username:  info.Username,
			Email:     info.Email,
			Role:      info.Role,
			CreatedAt: info.CreatedAt,
		})
	}
	return users, nil
}
