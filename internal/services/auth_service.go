package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"digimall/internal/caching"
	"digimall/internal/common"
	"digimall/internal/models"
	"digimall/internal/repositories"
	"digimall/pkg/database"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenIssuer   = "digimall-auth"
	tokenAudience = "digimall-api"
)

// AuthService handles credentials, JWT access tokens and refresh tokens
type AuthService interface {
	Register(ctx context.Context, tenantID uuid.UUID, req *RegisterRequest) (*models.User, *models.TokenResponse, error)
	Login(ctx context.Context, tenantID uuid.UUID, email, password string) (*models.TokenResponse, error)
	Me(ctx context.Context, tenantID, userID uuid.UUID) (*UserProfile, error)

	// Token management
	GenerateTokens(ctx context.Context, userID, tenantID uuid.UUID, scope *string) (*models.TokenResponse, error)
	RefreshToken(ctx context.Context, tenantID uuid.UUID, refreshToken string) (*models.TokenResponse, error)
	ValidateToken(ctx context.Context, token string) (*TokenClaims, error)
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
	Logout(ctx context.Context, claims *TokenClaims, refreshToken string) error

	HashPassword(password string) (string, error)
}

type RegisterRequest struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Phone     *string `json:"phone,omitempty"`
}

// UserProfile is the authenticated user with their effective access.
type UserProfile struct {
	User        *models.User `json:"user"`
	Roles       []string     `json:"roles"`
	Permissions []string     `json:"permissions"`
}

// TokenClaims represents JWT claims
type TokenClaims struct {
	UserID   string  `json:"user_id"`
	TenantID string  `json:"tenant_id"`
	Scope    *string `json:"scope,omitempty"`
	TokenID  string  `json:"token_id"`
	jwt.RegisteredClaims
}

type authService struct {
	userRepo         repositories.UserRepository
	customerRepo     repositories.CustomerRepository
	userRoleRepo     repositories.UserRoleRepository
	cacheSvc         caching.CacheService
	tx               database.Transactor
	jwtSecret        []byte
	tokenTTL         time.Duration
	refreshTTL       time.Duration
	loginMaxAttempts int
	loginWindow      time.Duration
	logger           *zap.Logger
}

type AuthSettings struct {
	JWTSecret        string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	LoginMaxAttempts int
	LoginWindow      time.Duration
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo repositories.UserRepository,
	customerRepo repositories.CustomerRepository,
	userRoleRepo repositories.UserRoleRepository,
	cacheSvc caching.CacheService,
	tx database.Transactor,
	settings AuthSettings,
	logger *zap.Logger,
) AuthService {
	return &authService{
		userRepo:         userRepo,
		customerRepo:     customerRepo,
		userRoleRepo:     userRoleRepo,
		cacheSvc:         cacheSvc,
		tx:               tx,
		jwtSecret:        []byte(settings.JWTSecret),
		tokenTTL:         settings.AccessTokenTTL,
		refreshTTL:       settings.RefreshTokenTTL,
		loginMaxAttempts: settings.LoginMaxAttempts,
		loginWindow:      settings.LoginWindow,
		logger:           logger,
	}
}

func refreshTokenKey(hash string) string {
	return "refresh_token:" + hash
}

func blacklistKey(tokenID string) string {
	return "token_blacklist:" + tokenID
}

func (s *authService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func validateRegistration(req *RegisterRequest) error {
	v := common.NewValidationError()
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	v.Check("email", common.ValidateEmail(req.Email, "email"))
	if len(req.Password) < 8 {
		v.Add("password", "password must be at least 8 characters")
	}
	if len(req.Password) > 72 {
		v.Add("password", "password cannot exceed 72 characters")
	}
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	v.Check("first_name", common.ValidateRequiredString(req.FirstName, "first_name"))
	v.Check("last_name", common.ValidateRequiredString(req.LastName, "last_name"))
	v.Check("phone", common.ValidateOptionalString(req.Phone, "phone", 32))
	return v.OrNil()
}

// Register signs a customer up on the tenant storefront.
func (s *authService) Register(ctx context.Context, tenantID uuid.UUID, req *RegisterRequest) (*models.User, *models.TokenResponse, error) {
	if err := validateRegistration(req); err != nil {
		return nil, nil, err
	}

	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, nil, err
	}

	user := &models.User{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Status:       models.UserStatusActive,
	}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.userRepo.Create(ctx, user); err != nil {
			if errors.Is(err, common.ErrConflict) {
				return fmt.Errorf("email already registered: %w", err)
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		customer := &models.Customer{ID: uuid.New(), TenantID: tenantID, UserID: user.ID, Phone: req.Phone}
		if err := s.customerRepo.Create(ctx, customer); err != nil {
			return fmt.Errorf("failed to create customer profile: %w", err)
		}

		if err := s.userRoleRepo.Assign(ctx, tenantID, user.ID, models.RoleCustomer); err != nil {
			return fmt.Errorf("failed to assign customer role: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	tokens, err := s.GenerateTokens(ctx, user.ID, tenantID, nil)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("customer registered",
		zap.String("tenant_id", tenantID.String()),
		zap.String("user_id", user.ID.String()))
	return user, tokens, nil
}

func (s *authService) Login(ctx context.Context, tenantID uuid.UUID, email, password string) (*models.TokenResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, common.FieldError("credentials", "email and password are required")
	}

	limitKey := fmt.Sprintf("login:%s:%s", tenantID, email)
	limited, err := s.cacheSvc.IsRateLimited(ctx, limitKey, s.loginMaxAttempts, s.loginWindow)
	if err != nil {
		s.logger.Warn("login rate limit check failed", zap.Error(err))
	} else if limited {
		return nil, common.ErrRateLimited
	}

	user, err := s.userRepo.GetByEmail(ctx, tenantID, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", common.ErrUnauthorized)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("failed login attempt",
			zap.String("tenant_id", tenantID.String()),
			zap.String("user_id", user.ID.String()))
		return nil, fmt.Errorf("invalid credentials: %w", common.ErrUnauthorized)
	}

	if user.Status != models.UserStatusActive {
		return nil, fmt.Errorf("account disabled: %w", common.ErrForbidden)
	}

	if err := s.cacheSvc.ResetRateLimit(ctx, limitKey); err != nil {
		s.logger.Warn("failed to reset login rate limit", zap.Error(err))
	}

	return s.GenerateTokens(ctx, user.ID, tenantID, nil)
}

func (s *authService) Me(ctx context.Context, tenantID, userID uuid.UUID) (*UserProfile, error) {
	user, err := s.userRepo.GetByID(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	roles, err := s.userRoleRepo.ListRoleNames(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	perms, err := s.userRoleRepo.ListPermissionNames(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	return &UserProfile{User: user, Roles: roles, Permissions: perms}, nil
}

// GenerateTokens generates access and refresh tokens for a user
func (s *authService) GenerateTokens(ctx context.Context, userID, tenantID uuid.UUID, scope *string) (*models.TokenResponse, error) {
	now := time.Now()
	tokenID := uuid.NewString()

	claims := TokenClaims{
		UserID:   userID.String(),
		TenantID: tenantID.String(),
		Scope:    scope,
		TokenID:  tokenID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   userID.String(),
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        tokenID,
		},
	}

	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessTokenString, err := accessToken.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign JWT: %w", err)
	}

	refreshToken, err := generateSecureToken()
	if err != nil {
		return nil, err
	}

	record, err := json.Marshal(models.RefreshToken{
		UserID:    userID.String(),
		TenantID:  tenantID.String(),
		Scope:     scope,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.refreshTTL),
	})
	if err != nil {
		return nil, err
	}
	if err := s.cacheSvc.SetString(ctx, refreshTokenKey(hashToken(refreshToken)), string(record), s.refreshTTL); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &models.TokenResponse{
		AccessToken:  accessTokenString,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.tokenTTL.Seconds()),
		RefreshToken: refreshToken,
		Scope:        scope,
		UserID:       userID.String(),
		TenantID:     tenantID.String(),
		TokenID:      tokenID,
		IssuedAt:     now,
	}, nil
}

// RefreshToken rotates a refresh token issued for tenantID.
func (s *authService) RefreshToken(ctx context.Context, tenantID uuid.UUID, refreshToken string) (*models.TokenResponse, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, common.FieldError("refresh_token", "refresh_token is required")
	}

	// Consuming the record up front means a token can be redeemed once.
	cacheKey := refreshTokenKey(hashToken(refreshToken))
	data, err := s.cacheSvc.GetDelString(ctx, cacheKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read refresh token: %w", err)
	}
	if data == "" {
		return nil, fmt.Errorf("invalid refresh token: %w", common.ErrUnauthorized)
	}

	var record models.RefreshToken
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", common.ErrUnauthorized)
	}

	if time.Now().After(record.ExpiresAt) {
		return nil, fmt.Errorf("refresh token expired: %w", common.ErrUnauthorized)
	}

	if record.TenantID != tenantID.String() {
		return nil, fmt.Errorf("refresh token belongs to another tenant: %w", common.ErrForbidden)
	}

	userID, err := uuid.Parse(record.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID in token: %w", common.ErrUnauthorized)
	}

	user, err := s.userRepo.GetByID(ctx, tenantID, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("user no longer exists: %w", common.ErrUnauthorized)
		}
		return nil, err
	}
	if user.Status != models.UserStatusActive {
		return nil, fmt.Errorf("account disabled: %w", common.ErrForbidden)
	}

	return s.GenerateTokens(ctx, userID, tenantID, record.Scope)
}

// ValidateToken validates JWT access token
func (s *authService) ValidateToken(ctx context.Context, token string) (*TokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &TokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
	)
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %v: %w", err, common.ErrUnauthorized)
	}

	if claims, ok := parsed.Claims.(*TokenClaims); ok && parsed.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token claims: %w", common.ErrUnauthorized)
}

func (s *authService) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	val, err := s.cacheSvc.GetString(ctx, blacklistKey(tokenID))
	if err != nil {
		return false, err
	}
	return val != "", nil
}

// Logout blacklists the access token until it expires and drops the
// refresh token when one is supplied.
func (s *authService) Logout(ctx context.Context, claims *TokenClaims, refreshToken string) error {
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		if remaining := time.Until(claims.ExpiresAt.Time); remaining > 0 {
			ttl = remaining
		}
	}
	if err := s.cacheSvc.SetString(ctx, blacklistKey(claims.TokenID), "revoked", ttl); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}

	if refreshToken != "" {
		if err := s.cacheSvc.Delete(ctx, refreshTokenKey(hashToken(refreshToken))); err != nil {
			s.logger.Warn("failed to delete refresh token", zap.Error(err))
		}
	}
	return nil
}

// generateSecureToken generates a cryptographically secure random token
func generateSecureToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// hashToken creates a SHA-256 hash of the token for storage
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
