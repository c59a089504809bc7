package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken is returned when the token signature or structure is invalid.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("token has expired")
	// ErrWrongTokenType is returned when a token of one kind is presented
	// where another kind is expected.
	ErrWrongTokenType = errors.New("wrong token type")
)

// Token type discriminators embedded in the claim set.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
	TokenTypeReset   = "reset"
)

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	SecretKey            string
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
	ResetTokenDuration   time.Duration
	Issuer               string
}

// DefaultJWTConfig returns the default durations and issuer. The secret
// key is left empty and must be injected before the config is used.
func DefaultJWTConfig() JWTConfig {
	return JWTConfig{
		AccessTokenDuration:  15 * time.Minute,
		RefreshTokenDuration: 7 * 24 * time.Hour,
		ResetTokenDuration:   15 * time.Minute,
		Issuer:               "task-manager-demo",
	}
}

// JWTClaims represents the custom claims for JWT tokens. The subject is
// the string-encoded user id; TokenType discriminates access, refresh and
// password-reset tokens.
type JWTClaims struct {
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// UserID decodes the subject back into a user id.
func (c *JWTClaims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return uint(id), nil
}

// JWTManager handles JWT token operations.
type JWTManager struct {
	config JWTConfig
}

// NewJWTManager creates a new JWTManager with the given configuration.
func NewJWTManager(config JWTConfig) *JWTManager {
	return &JWTManager{
		config: config,
	}
}

// GenerateAccessToken generates a new access token for the given user.
func (m *JWTManager) GenerateAccessToken(userID uint) (string, error) {
	return m.generateToken(userID, TokenTypeAccess, m.config.AccessTokenDuration, "")
}

// GenerateRefreshToken generates a new refresh token for the given user.
func (m *JWTManager) GenerateRefreshToken(userID uint) (string, error) {
	return m.generateToken(userID, TokenTypeRefresh, m.config.RefreshTokenDuration, "")
}

// GenerateResetToken generates a short-lived password-reset token. Each
// reset token carries a unique id so it can be marked consumed after the
// first successful confirm.
func (m *JWTManager) GenerateResetToken(userID uint) (string, error) {
	return m.generateToken(userID, TokenTypeReset, m.config.ResetTokenDuration, uuid.New().String())
}

// generateToken creates a new JWT token with the specified parameters.
func (m *JWTManager) generateToken(userID uint, tokenType string, duration time.Duration, id string) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        id,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.config.SecretKey))
}

// ValidateToken validates the token signature and expiry and returns the
// claims if valid.
func (m *JWTManager) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(m.config.SecretKey), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// ValidateAccessToken validates an access token.
func (m *JWTManager) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	return m.validateTyped(tokenString, TokenTypeAccess)
}

// ValidateRefreshToken validates a refresh token.
func (m *JWTManager) ValidateRefreshToken(tokenString string) (*JWTClaims, error) {
	return m.validateTyped(tokenString, TokenTypeRefresh)
}

// ValidateResetToken validates a password-reset token.
func (m *JWTManager) ValidateResetToken(tokenString string) (*JWTClaims, error) {
	return m.validateTyped(tokenString, TokenTypeReset)
}

func (m *JWTManager) validateTyped(tokenString, tokenType string) (*JWTClaims, error) {
	claims, err := m.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	if claims.TokenType != tokenType {
		return nil, ErrWrongTokenType
	}

	return claims, nil
}

// AccessTokenDuration returns the access token duration in seconds.
func (m *JWTManager) AccessTokenDuration() int64 {
	return int64(m.config.AccessTokenDuration.Seconds())
}

// ResetTokenDuration returns the reset token lifetime.
func (m *JWTManager) ResetTokenDuration() time.Duration {
	return m.config.ResetTokenDuration
}
