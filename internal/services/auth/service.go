// Package auth handles account registration, credential verification and
// JWT issuance.
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/common"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/interfaces"
	"github.com/fernandokurniawan23/Financial-Stock-Assistant-Chatbot/internal/models"
)

const tokenIssuer = "assistant-server"

// Service implements interfaces.IdentityService.
type Service struct {
	store       interfaces.LedgerStore
	logger      *common.Logger
	jwtSecret   []byte
	tokenExpiry time.Duration
}

// NewService creates an identity service.
func NewService(store interfaces.LedgerStore, logger *common.Logger, jwtSecret string, tokenExpiry time.Duration) *Service {
	if tokenExpiry <= 0 {
		tokenExpiry = 24 * time.Hour
	}
	return &Service{
		store:       store,
		logger:      logger,
		jwtSecret:   []byte(jwtSecret),
		tokenExpiry: tokenExpiry,
	}
}

// Register creates a new free-tier account. Usernames are case-insensitive
// and stored lowercased.
func (s *Service) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if len(password) < 6 {
		return nil, fmt.Errorf("password must be at least 6 characters")
	}

	exists, err := s.store.HasUser(username)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrLedgerUnavailable, err)
	}
	if exists {
		return nil, fmt.Errorf("username '%s' is already taken", username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hash),
		Tier:         models.TierFree,
		QuotaUsage:   0,
		LastReset:    time.Now().Format("2006-01-02"),
	}
	if err := s.store.SaveUser(user); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrLedgerUnavailable, err)
	}

	s.logger.Info().Str("username", username).Msg("User registered")
	return user, nil
}

// Authenticate verifies credentials and returns the user on success.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	user, err := s.store.GetUser(username)
	if err != nil {
		return nil, common.ErrAccessDenied
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, common.ErrAccessDenied
	}
	return user, nil
}

// IssueToken creates a signed HMAC-SHA256 JWT for the given user.
func (s *Service) IssueToken(user *models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  user.Username,
		"tier": user.Tier,
		"iss":  tokenIssuer,
		"iat":  now.Unix(),
		"exp":  now.Add(s.tokenExpiry).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken parses and validates a JWT and returns the current user
// record. The tier is read from the ledger, not the token, so upgrades take
// effect immediately.
func (s *Service) ValidateToken(tokenString string) (*models.User, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, common.ErrAccessDenied
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, common.ErrAccessDenied
	}

	user, err := s.store.GetUser(sub)
	if err != nil {
		return nil, common.ErrAccessDenied
	}
	return user, nil
}

// Ensure Service implements IdentityService
var _ interfaces.IdentityService = (*Service)(nil)
