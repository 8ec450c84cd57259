package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"digimall/internal/caching"
	"digimall/internal/common"
	"digimall/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test-secret-with-enough-entropy-0123456789"

type AuthServiceTestSuite struct {
	suite.Suite
	userRepo     *MockUserRepository
	customerRepo *MockCustomerRepository
	userRoleRepo *MockUserRoleRepository
	cache        caching.CacheService
	tx           *fakeTransactor
	redis        *miniredis.Miniredis
	service      AuthService
	tenantID     uuid.UUID
}

func (suite *AuthServiceTestSuite) SetupTest() {
	suite.userRepo = &MockUserRepository{}
	suite.customerRepo = &MockCustomerRepository{}
	suite.userRoleRepo = &MockUserRoleRepository{}
	suite.cache, suite.redis = newTestCache(suite.T())
	suite.tenantID = uuid.New()
	suite.tx = &fakeTransactor{}
	suite.service = NewAuthService(suite.userRepo, suite.customerRepo, suite.userRoleRepo, suite.cache, suite.tx, AuthSettings{
		JWTSecret:        testJWTSecret,
		AccessTokenTTL:   15 * time.Minute,
		RefreshTokenTTL:  24 * time.Hour,
		LoginMaxAttempts: 3,
		LoginWindow:      time.Minute,
	}, zap.NewNop())
}

func (suite *AuthServiceTestSuite) TearDownTest() {
	suite.userRepo.AssertExpectations(suite.T())
	suite.customerRepo.AssertExpectations(suite.T())
	suite.userRoleRepo.AssertExpectations(suite.T())
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

func (suite *AuthServiceTestSuite) activeUser(password string) *models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	suite.Require().NoError(err)
	return &models.User{
		ID:           uuid.New(),
		TenantID:     suite.tenantID,
		Email:        "ana@example.com",
		PasswordHash: string(hash),
		Status:       models.UserStatusActive,
	}
}

func (suite *AuthServiceTestSuite) TestRegister_CreatesCustomerAndIssuesTokens() {
	ctx := context.Background()
	suite.userRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil)
	suite.customerRepo.On("Create", ctx, mock.AnythingOfType("*models.Customer")).Return(nil)
	suite.userRoleRepo.On("Assign", ctx, suite.tenantID, mock.AnythingOfType("uuid.UUID"), models.RoleCustomer).Return(nil)

	user, tokens, err := suite.service.Register(ctx, suite.tenantID, &RegisterRequest{
		Email:     "  Ana@Example.com ",
		Password:  "correct horse",
		FirstName: "Ana",
		LastName:  "Silva",
	})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "ana@example.com", user.Email)
	assert.NotEqual(suite.T(), uuid.Nil, user.ID)
	assert.NoError(suite.T(), bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct horse")))

	customer := suite.customerRepo.Calls[0].Arguments.Get(1).(*models.Customer)
	assert.Equal(suite.T(), user.ID, customer.UserID)
	assert.Equal(suite.T(), suite.tenantID, customer.TenantID)

	claims, err := suite.service.ValidateToken(ctx, tokens.AccessToken)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), user.ID.String(), claims.UserID)
	assert.Equal(suite.T(), suite.tenantID.String(), claims.TenantID)
}

func (suite *AuthServiceTestSuite) TestRegister_Validation() {
	_, _, err := suite.service.Register(context.Background(), suite.tenantID, &RegisterRequest{
		Email:    "not-an-email",
		Password: "short",
	})
	var verr *common.ValidationError
	require.ErrorAs(suite.T(), err, &verr)
	assert.Contains(suite.T(), verr.Fields, "email")
	assert.Contains(suite.T(), verr.Fields, "password")
	assert.Contains(suite.T(), verr.Fields, "first_name")
}

func (suite *AuthServiceTestSuite) TestRegister_DuplicateEmail() {
	ctx := context.Background()
	suite.userRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(common.ErrConflict)

	_, _, err := suite.service.Register(ctx, suite.tenantID, &RegisterRequest{
		Email: "ana@example.com", Password: "correct horse", FirstName: "Ana", LastName: "Silva",
	})
	assert.ErrorIs(suite.T(), err, common.ErrConflict)
}

func (suite *AuthServiceTestSuite) TestRegister_RoleFailureRollsBackUser() {
	ctx := context.Background()
	suite.userRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil)
	suite.customerRepo.On("Create", ctx, mock.AnythingOfType("*models.Customer")).Return(nil)
	suite.userRoleRepo.On("Assign", ctx, suite.tenantID, mock.AnythingOfType("uuid.UUID"), models.RoleCustomer).
		Return(errors.New("connection reset"))

	user, tokens, err := suite.service.Register(ctx, suite.tenantID, &RegisterRequest{
		Email: "ana@example.com", Password: "correct horse", FirstName: "Ana", LastName: "Silva",
	})
	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), user)
	assert.Nil(suite.T(), tokens)
	assert.Equal(suite.T(), 0, suite.tx.commits)
	assert.Equal(suite.T(), 1, suite.tx.rollbacks)
	assert.Empty(suite.T(), suite.redis.Keys())
}

func (suite *AuthServiceTestSuite) TestLogin_Success() {
	ctx := context.Background()
	user := suite.activeUser("correct horse")
	suite.userRepo.On("GetByEmail", ctx, suite.tenantID, "ana@example.com").Return(user, nil)

	tokens, err := suite.service.Login(ctx, suite.tenantID, "ANA@example.com", "correct horse")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Bearer", tokens.TokenType)
	assert.Equal(suite.T(), 900, tokens.ExpiresIn)
	assert.NotEmpty(suite.T(), tokens.RefreshToken)
	assert.True(suite.T(), suite.redis.Exists(refreshTokenKey(hashToken(tokens.RefreshToken))))
}

func (suite *AuthServiceTestSuite) TestLogin_WrongPasswordAndUnknownUserLookAlike() {
	ctx := context.Background()
	user := suite.activeUser("correct horse")
	suite.userRepo.On("GetByEmail", ctx, suite.tenantID, "ana@example.com").Return(user, nil)
	suite.userRepo.On("GetByEmail", ctx, suite.tenantID, "ghost@example.com").Return(nil, common.ErrNotFound)

	_, err := suite.service.Login(ctx, suite.tenantID, "ana@example.com", "battery staple")
	assert.ErrorIs(suite.T(), err, common.ErrUnauthorized)

	_, err = suite.service.Login(ctx, suite.tenantID, "ghost@example.com", "battery staple")
	assert.ErrorIs(suite.T(), err, common.ErrUnauthorized)
}

func (suite *AuthServiceTestSuite) TestLogin_DisabledUser() {
	ctx := context.Background()
	user := suite.activeUser("correct horse")
	user.Status = models.UserStatusDisabled
	suite.userRepo.On("GetByEmail", ctx, suite.tenantID, "ana@example.com").Return(user, nil)

	_, err := suite.service.Login(ctx, suite.tenantID, "ana@example.com", "correct horse")
	assert.ErrorIs(suite.T(), err, common.ErrForbidden)
}

func (suite *AuthServiceTestSuite) TestLogin_RateLimited() {
	ctx := context.Background()
	user := suite.activeUser("correct horse")
	suite.userRepo.On("GetByEmail", ctx, suite.tenantID, "ana@example.com").Return(user, nil)

	for i := 0; i < 3; i++ {
		_, err := suite.service.Login(ctx, suite.tenantID, "ana@example.com", "wrong password")
		require.ErrorIs(suite.T(), err, common.ErrUnauthorized)
	}
	_, err := suite.service.Login(ctx, suite.tenantID, "ana@example.com", "correct horse")
	assert.ErrorIs(suite.T(), err, common.ErrRateLimited)

	suite.redis.FastForward(2 * time.Minute)
	_, err = suite.service.Login(ctx, suite.tenantID, "ana@example.com", "correct horse")
	assert.NoError(suite.T(), err)
}

func (suite *AuthServiceTestSuite) TestRefreshToken_Rotates() {
	ctx := context.Background()
	user := suite.activeUser("correct horse")
	suite.userRepo.On("GetByID", ctx, suite.tenantID, user.ID).Return(user, nil)

	first, err := suite.service.GenerateTokens(ctx, user.ID, suite.tenantID, nil)
	require.NoError(suite.T(), err)

	second, err := suite.service.RefreshToken(ctx, suite.tenantID, first.RefreshToken)
	require.NoError(suite.T(), err)
	assert.NotEqual(suite.T(), first.RefreshToken, second.RefreshToken)

	_, err = suite.service.RefreshToken(ctx, suite.tenantID, first.RefreshToken)
	assert.ErrorIs(suite.T(), err, common.ErrUnauthorized)
}

func (suite *AuthServiceTestSuite) TestRefreshToken_ConcurrentRedeemIssuesOnePair() {
	ctx := context.Background()
	user := suite.activeUser("correct horse")
	suite.userRepo.On("GetByID", ctx, suite.tenantID, user.ID).Return(user, nil)

	first, err := suite.service.GenerateTokens(ctx, user.ID, suite.tenantID, nil)
	require.NoError(suite.T(), err)

	const callers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := suite.service.RefreshToken(ctx, suite.tenantID, first.RefreshToken); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(suite.T(), 1, succeeded)
	assert.Len(suite.T(), suite.redis.Keys(), 1)
}

func (suite *AuthServiceTestSuite) TestRefreshToken_OtherTenant() {
	ctx := context.Background()
	tokens, err := suite.service.GenerateTokens(ctx, uuid.New(), suite.tenantID, nil)
	require.NoError(suite.T(), err)

	_, err = suite.service.RefreshToken(ctx, uuid.New(), tokens.RefreshToken)
	assert.ErrorIs(suite.T(), err, common.ErrForbidden)
}

func (suite *AuthServiceTestSuite) TestValidateToken_RejectsForeignTokens() {
	ctx := context.Background()

	wrongKey := jwt.NewWithClaims(jwt.SigningMethodHS256, TokenClaims{
		UserID: uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := wrongKey.SignedString([]byte("some-other-secret"))
	require.NoError(suite.T(), err)
	_, err = suite.service.ValidateToken(ctx, signed)
	assert.ErrorIs(suite.T(), err, common.ErrUnauthorized)

	wrongIssuer := jwt.NewWithClaims(jwt.SigningMethodHS256, TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err = wrongIssuer.SignedString([]byte(testJWTSecret))
	require.NoError(suite.T(), err)
	_, err = suite.service.ValidateToken(ctx, signed)
	assert.ErrorIs(suite.T(), err, common.ErrUnauthorized)

	_, err = suite.service.ValidateToken(ctx, "garbage")
	assert.ErrorIs(suite.T(), err, common.ErrUnauthorized)
}

func (suite *AuthServiceTestSuite) TestLogout_RevokesAccessAndRefresh() {
	ctx := context.Background()
	tokens, err := suite.service.GenerateTokens(ctx, uuid.New(), suite.tenantID, nil)
	require.NoError(suite.T(), err)
	claims, err := suite.service.ValidateToken(ctx, tokens.AccessToken)
	require.NoError(suite.T(), err)

	revoked, err := suite.service.IsTokenRevoked(ctx, claims.TokenID)
	require.NoError(suite.T(), err)
	assert.False(suite.T(), revoked)

	require.NoError(suite.T(), suite.service.Logout(ctx, claims, tokens.RefreshToken))

	revoked, err = suite.service.IsTokenRevoked(ctx, claims.TokenID)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), revoked)
	assert.False(suite.T(), suite.redis.Exists(refreshTokenKey(hashToken(tokens.RefreshToken))))
}

func (suite *AuthServiceTestSuite) TestMe() {
	ctx := context.Background()
	user := suite.activeUser("correct horse")
	suite.userRepo.On("GetByID", ctx, suite.tenantID, user.ID).Return(user, nil)
	suite.userRoleRepo.On("ListRoleNames", ctx, suite.tenantID, user.ID).Return([]string{models.RoleCustomer}, nil)
	suite.userRoleRepo.On("ListPermissionNames", ctx, suite.tenantID, user.ID).Return([]string{models.PermOrdersPlace}, nil)

	profile, err := suite.service.Me(ctx, suite.tenantID, user.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), []string{models.RoleCustomer}, profile.Roles)
	assert.Equal(suite.T(), []string{models.PermOrdersPlace}, profile.Permissions)
}
