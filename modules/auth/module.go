package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/example/task-manager-demo/domain/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// AuthModule provides user accounts, token issuance and password reset.
type AuthModule struct {
	db      *gorm.DB
	service *AuthService
	dbPath  string
}

// Compile-time interface checks.
var _ mono.Module = (*AuthModule)(nil)
var _ mono.ServiceProviderModule = (*AuthModule)(nil)
var _ mono.HealthCheckableModule = (*AuthModule)(nil)

// NewModule creates a new AuthModule.
func NewModule() *AuthModule {
	// Use environment variable for DB path, default to local file
	dbPath := os.Getenv("TASKS_DB_PATH")
	if dbPath == "" {
		dbPath = "tasks.db"
	}
	return &AuthModule{
		dbPath: dbPath,
	}
}

// Name returns the module name.
func (m *AuthModule) Name() string {
	return "auth"
}

// Start initializes the auth module.
func (m *AuthModule) Start(_ context.Context) error {
	// Initialize SQLite database with GORM
	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	// Cascading deletes rely on SQLite enforcing foreign keys.
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Auto-migrate the User schema
	if err := db.AutoMigrate(&user.User{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Initialize components
	repo := NewUserRepository(db)
	hasher := NewPasswordHasher()
	jwtConfig, err := loadJWTConfig()
	if err != nil {
		return err
	}
	jwtManager := NewJWTManager(jwtConfig)

	mailLog := os.Getenv("EMAIL_LOG_PATH")
	if mailLog == "" {
		mailLog = "emails.log"
	}
	baseURL := os.Getenv("PUBLIC_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}

	m.service = NewAuthService(repo, hasher, jwtManager, NewMemoryResetRegistry(), NewLogMailer(mailLog), baseURL)

	log.Printf("[auth] Module started (database: %s)", m.dbPath)
	return nil
}

// Stop shuts down the module.
func (m *AuthModule) Stop(_ context.Context) error {
	if m.db != nil {
		sqlDB, err := m.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
	log.Println("[auth] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *AuthModule) Health(_ context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get database connection: %v", err),
		}
	}

	if err := sqlDB.Ping(); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"database": m.dbPath,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *AuthModule) RegisterServices(container mono.ServiceContainer) error {
	services := map[string]func(mono.ServiceContainer) error{
		"register": func(c mono.ServiceContainer) error {
			return helper.RegisterTypedRequestReplyService(c, "register", json.Unmarshal, json.Marshal, m.handleRegister)
		},
		"login": func(c mono.ServiceContainer) error {
			return helper.RegisterTypedRequestReplyService(c, "login", json.Unmarshal, json.Marshal, m.handleLogin)
		},
		"refresh-token": func(c mono.ServiceContainer) error {
			return helper.RegisterTypedRequestReplyService(c, "refresh-token", json.Unmarshal, json.Marshal, m.handleRefresh)
		},
		"validate-token": func(c mono.ServiceContainer) error {
			return helper.RegisterTypedRequestReplyService(c, "validate-token", json.Unmarshal, json.Marshal, m.handleValidateToken)
		},
		"get-user": func(c mono.ServiceContainer) error {
			return helper.RegisterTypedRequestReplyService(c, "get-user", json.Unmarshal, json.Marshal, m.handleGetUser)
		},
		"list-users": func(c mono.ServiceContainer) error {
			return helper.RegisterTypedRequestReplyService(c, "list-users", json.Unmarshal, json.Marshal, m.handleListUsers)
		},
		"password-reset-request": func(c mono.ServiceContainer) error {
			return helper.RegisterTypedRequestReplyService(c, "password-reset-request", json.Unmarshal, json.Marshal, m.handleRequestReset)
		},
		"password-reset-confirm": func(c mono.ServiceContainer) error {
			return helper.RegisterTypedRequestReplyService(c, "password-reset-confirm", json.Unmarshal, json.Marshal, m.handleConfirmReset)
		},
	}

	for name, register := range services {
		if err := register(container); err != nil {
			return fmt.Errorf("failed to register %s service: %w", name, err)
		}
	}

	log.Printf("[auth] Registered services: register, login, refresh-token, validate-token, get-user, list-users, password-reset-request, password-reset-confirm")
	return nil
}

// handleRegister handles user registration.
func (m *AuthModule) handleRegister(ctx context.Context, req RegisterRequest, _ *mono.Msg) (UserInfo, error) {
	u, err := m.service.Register(ctx, req.Username, req.Email, req.Password, req.Role)
	if err != nil {
		return UserInfo{}, err
	}

	return userInfo(u), nil
}

// handleLogin handles user login.
func (m *AuthModule) handleLogin(ctx context.Context, req LoginRequest, _ *mono.Msg) (LoginResponse, error) {
	tokens, err := m.service.Login(ctx, req.Username, req.Password)
	if err != nil {
		return LoginResponse{}, err
	}

	return LoginResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
		TokenType:    tokens.TokenType,
	}, nil
}

// handleRefresh handles token refresh.
func (m *AuthModule) handleRefresh(ctx context.Context, req RefreshRequest, _ *mono.Msg) (RefreshResponse, error) {
	tokens, err := m.service.RefreshAccessToken(ctx, req.RefreshToken)
	if err != nil {
		return RefreshResponse{}, err
	}

	return RefreshResponse{
		AccessToken: tokens.AccessToken,
		ExpiresIn:   tokens.ExpiresIn,
		TokenType:   tokens.TokenType,
	}, nil
}

// handleValidateToken handles token validation.
func (m *AuthModule) handleValidateToken(ctx context.Context, req ValidateTokenRequest, _ *mono.Msg) (ValidateTokenResponse, error) {
	claims, err := m.service.ValidateToken(ctx, req.Token)
	if err != nil {
		// Return response, not error, for validation failures
		return ValidateTokenResponse{
			Valid: false,
			Error: "invalid or expired token",
		}, nil
	}

	return ValidateTokenResponse{
		Valid:  true,
		UserID: claims.UserID,
	}, nil
}

// handleGetUser handles get user requests.
func (m *AuthModule) handleGetUser(ctx context.Context, req GetUserRequest, _ *mono.Msg) (UserInfo, error) {
	u, err := m.service.GetUser(ctx, req.UserID)
	if err != nil {
		return UserInfo{}, err
	}

	return userInfo(u), nil
}

// handleListUsers handles admin user listing.
func (m *AuthModule) handleListUsers(ctx context.Context, _ ListUsersRequest, _ *mono.Msg) (ListUsersResponse, error) {
	users, err := m.service.ListUsers(ctx)
	if err != nil {
		return ListUsersResponse{}, err
	}

	resp := ListUsersResponse{Users: make([]UserInfo, 0, len(users))}
	for i := range users {
		resp.Users = append(resp.Users, userInfo(&users[i]))
	}
	return resp, nil
}

// handleRequestReset handles password-reset link requests.
func (m *AuthModule) handleRequestReset(ctx context.Context, req RequestResetRequest, _ *mono.Msg) (RequestResetResponse, error) {
	if err := m.service.RequestPasswordReset(ctx, req.Email); err != nil {
		return RequestResetResponse{}, err
	}

	return RequestResetResponse{
		Message: "If the email exists, a reset link has been sent",
	}, nil
}

// handleConfirmReset handles password-reset confirmation.
func (m *AuthModule) handleConfirmReset(ctx context.Context, req ConfirmResetRequest, _ *mono.Msg) (ConfirmResetResponse, error) {
	if err := m.service.ConfirmPasswordReset(ctx, req.Token, req.NewPassword); err != nil {
		return ConfirmResetResponse{}, err
	}

	return ConfirmResetResponse{
		Message: "Password has been reset",
	}, nil
}

func userInfo(u *user.User) UserInfo {
	return UserInfo{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// loadJWTConfig loads JWT configuration from environment variables.
// Without JWT_SECRET_KEY a random ephemeral signing key is generated, so
// issued tokens do not survive a restart.
func loadJWTConfig() (JWTConfig, error) {
	config := DefaultJWTConfig()

	config.SecretKey = os.Getenv("JWT_SECRET_KEY")
	if config.SecretKey == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return JWTConfig{}, fmt.Errorf("failed to generate signing key: %w", err)
		}
		config.SecretKey = hex.EncodeToString(buf)
		log.Println("[auth] JWT_SECRET_KEY not set, generated an ephemeral signing key; tokens will not survive a restart")
	}

	if issuer := os.Getenv("JWT_ISSUER"); issuer != "" {
		config.Issuer = issuer
	}

	return config, nil
}
