package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"

	"github.com/example/task-manager-demo/domain/user"
)

var (
	// ErrInvalidCredentials is returned when login credentials are invalid.
	ErrInvalidCredentials = errors.New("invalid username/email or password")
	// ErrInvalidEmail is returned when email format is invalid.
	ErrInvalidEmail = errors.New("invalid email format")
	// ErrUsernameRequired is returned when the username is empty.
	ErrUsernameRequired = errors.New("username is required")
	// ErrInvalidRole is returned when an unknown role is requested.
	ErrInvalidRole = errors.New("unknown role")
	// ErrPasswordRequired is returned when the password is empty.
	ErrPasswordRequired = errors.New("password is required")
	// ErrPasswordTooLong is returned when password exceeds bcrypt's 72-byte limit.
	ErrPasswordTooLong = errors.New("password must be at most 72 characters")
	// ErrInvalidResetToken covers expired, malformed, wrong-kind and
	// already-consumed reset tokens. One sentinel for all four keeps the
	// endpoint from acting as a token oracle.
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
)

// AuthService handles authentication business logic.
type AuthService struct {
	repo          *UserRepository
	hasher        *PasswordHasher
	jwt           *JWTManager
	resetRegistry ResetTokenRegistry
	mailer        Mailer
	publicBaseURL string
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo *UserRepository, hasher *PasswordHasher, jwt *JWTManager, registry ResetTokenRegistry, mailer Mailer, publicBaseURL string) *AuthService {
	return &AuthService{
		repo:          repo,
		hasher:        hasher,
		jwt:           jwt,
		resetRegistry: registry,
		mailer:        mailer,
		publicBaseURL: publicBaseURL,
	}
}

// Register creates a new user account. An empty role defaults to "user".
func (s *AuthService) Register(_ context.Context, username, email, password string, role user.Role) (*user.User, error) {
	if username == "" {
		return nil, ErrUsernameRequired
	}

	// Validate email using standard library
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}

	if role == "" {
		role = user.RoleUser
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	if err := validatePassword(password); err != nil {
		return nil, err
	}

	// Check if user already exists
	exists, err := s.repo.EmailExists(email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	// Hash password
	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &user.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
	}

	if err := s.repo.Create(u); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return u, nil
}

// Login authenticates a user by username or email and returns tokens.
// Unknown identifier and wrong password produce the same error.
func (s *AuthService) Login(_ context.Context, identifier, password string) (*user.TokenPair, error) {
	u, err := s.repo.FindByUsernameOrEmail(identifier)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !s.hasher.Verify(password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.generateTokenPair(u.ID)
}

// RefreshAccessToken validates a refresh token and issues a new access
// token. The RefreshToken field of the returned pair is left empty; the
// presented refresh token stays valid until it expires.
func (s *AuthService) RefreshAccessToken(_ context.Context, refreshToken string) (*user.TokenPair, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	// Verify user still exists
	u, err := s.repo.FindByID(userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	accessToken, err := s.jwt.GenerateAccessToken(u.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &user.TokenPair{
		AccessToken: accessToken,
		ExpiresIn:   s.jwt.AccessTokenDuration(),
		TokenType:   "Bearer",
	}, nil
}

// ValidateToken validates an access token and returns claims.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*user.Claims, error) {
	claims, err := s.jwt.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, err
	}

	return &user.Claims{UserID: userID}, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(_ context.Context, userID uint) (*user.User, error) {
	return s.repo.FindByID(userID)
}

// ListUsers returns every user. The HTTP layer restricts this to admins.
func (s *AuthService) ListUsers(_ context.Context) ([]user.User, error) {
	return s.repo.FindAll()
}

// RequestPasswordReset issues a reset token and delivers the reset link
// out-of-band. Unknown emails succeed without sending anything so the
// endpoint cannot be used to enumerate accounts.
func (s *AuthService) RequestPasswordReset(_ context.Context, email string) error {
	u, err := s.repo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	token, err := s.jwt.GenerateResetToken(u.ID)
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	link := fmt.Sprintf("%s/password-reset/confirm?token=%s", s.publicBaseURL, url.QueryEscape(token))
	if err := s.mailer.SendPasswordResetLink(u.Email, link); err != nil {
		return fmt.Errorf("failed to send reset link: %w", err)
	}

	return nil
}

// ConfirmPasswordReset validates a reset token, enforces single use, and
// replaces the user's password hash.
func (s *AuthService) ConfirmPasswordReset(_ context.Context, token, newPassword string) error {
	claims, err := s.jwt.ValidateResetToken(token)
	if err != nil {
		return ErrInvalidResetToken
	}

	userID, err := claims.UserID()
	if err != nil {
		return ErrInvalidResetToken
	}

	if err := validatePassword(newPassword); err != nil {
		return err
	}

	// A reset token grants exactly one password change.
	if !s.resetRegistry.Consume(claims.ID, claims.ExpiresAt.Time) {
		return ErrInvalidResetToken
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.repo.UpdatePassword(userID, passwordHash); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// generateTokenPair generates both access and refresh tokens.
func (s *AuthService) generateTokenPair(userID uint) (*user.TokenPair, error) {
	accessToken, err := s.jwt.GenerateAccessToken(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwt.GenerateRefreshToken(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &user.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.jwt.AccessTokenDuration(),
		TokenType:    "Bearer",
	}, nil
}

// validatePassword enforces the password length rules (bcrypt has a
// 72-byte input limit).
func validatePassword(password string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	if len(password) > 72 {
		return ErrPasswordTooLong
	}
	return nil
}
