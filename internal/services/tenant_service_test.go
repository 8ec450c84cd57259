package services

import (
	"context"
	"testing"
	"time"

	"digimall/internal/caching"
	"digimall/internal/common"
	"digimall/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type TenantServiceTestSuite struct {
	suite.Suite
	tenantRepo *MockTenantRepository
	roleRepo   *MockRoleRepository
	grantRepo  *MockRolePermissionRepository
	cache      caching.CacheService
	redis      *miniredis.Miniredis
	service    TenantService
}

func (suite *TenantServiceTestSuite) SetupTest() {
	suite.tenantRepo = &MockTenantRepository{}
	suite.roleRepo = &MockRoleRepository{}
	suite.grantRepo = &MockRolePermissionRepository{}
	suite.cache, suite.redis = newTestCache(suite.T())
	suite.service = NewTenantService(suite.tenantRepo, suite.roleRepo, suite.grantRepo, suite.cache, time.Minute, zap.NewNop())

	suite.tenantRepo.Test(suite.T())
	suite.roleRepo.Test(suite.T())
	suite.grantRepo.Test(suite.T())
}

func (suite *TenantServiceTestSuite) TearDownTest() {
	suite.tenantRepo.AssertExpectations(suite.T())
	suite.roleRepo.AssertExpectations(suite.T())
	suite.grantRepo.AssertExpectations(suite.T())
}

func TestTenantServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TenantServiceTestSuite))
}

func (suite *TenantServiceTestSuite) expectSeeding() {
	suite.roleRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Role")).
		Return(nil).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.Role).ID = uuid.New()
		})
	suite.grantRepo.On("Grant", mock.Anything, mock.AnythingOfType("uuid.UUID"), mock.AnythingOfType("string")).Return(nil)
}

func (suite *TenantServiceTestSuite) TestCreate_NormalizesAndSeedsRoles() {
	ctx := context.Background()
	suite.tenantRepo.On("Create", ctx, mock.AnythingOfType("*models.Tenant")).Return(nil)
	suite.expectSeeding()

	tenant := &models.Tenant{Name: "Acme Outfitters", Domain: "Shop.Acme.test:8080", Currency: "eur"}
	require.NoError(suite.T(), suite.service.Create(ctx, tenant))

	assert.NotEqual(suite.T(), uuid.Nil, tenant.ID)
	assert.Equal(suite.T(), "shop.acme.test", tenant.Domain)
	assert.Equal(suite.T(), "acme-outfitters", tenant.Slug)
	assert.Equal(suite.T(), "EUR", tenant.Currency)
	assert.Equal(suite.T(), models.TenantStatusActive, tenant.Status)

	var seeded []string
	for _, call := range suite.roleRepo.Calls {
		seeded = append(seeded, call.Arguments.Get(1).(*models.Role).Name)
	}
	assert.Equal(suite.T(), []string{models.RoleAdmin, models.RoleCustomer, models.RoleVendor}, seeded)

	grants := 0
	for _, perms := range models.DefaultTenantRoles {
		grants += len(perms)
	}
	suite.grantRepo.AssertNumberOfCalls(suite.T(), "Grant", grants)
}

func (suite *TenantServiceTestSuite) TestCreate_PlatformGetsSuperAdminOnly() {
	ctx := context.Background()
	suite.tenantRepo.On("Create", ctx, mock.AnythingOfType("*models.Tenant")).Return(nil)
	suite.expectSeeding()

	tenant := &models.Tenant{Name: "Platform", Domain: "admin.digimall.test", IsPlatform: true}
	require.NoError(suite.T(), suite.service.Create(ctx, tenant))

	suite.roleRepo.AssertNumberOfCalls(suite.T(), "Create", 1)
	role := suite.roleRepo.Calls[0].Arguments.Get(1).(*models.Role)
	assert.Equal(suite.T(), models.RoleSuperAdmin, role.Name)
	suite.grantRepo.AssertNumberOfCalls(suite.T(), "Grant", len(models.AllPermissions))
}

func (suite *TenantServiceTestSuite) TestCreate_ValidationErrors() {
	hook := "ftp://hooks.acme.test"
	tenant := &models.Tenant{Name: "", Domain: "not a domain", Currency: "euro", WebhookURL: &hook}

	err := suite.service.Create(context.Background(), tenant)
	require.Error(suite.T(), err)

	var verr *common.ValidationError
	require.ErrorAs(suite.T(), err, &verr)
	assert.Contains(suite.T(), verr.Fields, "name")
	assert.Contains(suite.T(), verr.Fields, "domain")
	assert.Contains(suite.T(), verr.Fields, "currency")
	assert.Contains(suite.T(), verr.Fields, "webhook_url")
}

func (suite *TenantServiceTestSuite) TestCreate_DuplicateDomain() {
	ctx := context.Background()
	suite.tenantRepo.On("Create", ctx, mock.AnythingOfType("*models.Tenant")).Return(common.ErrConflict)

	err := suite.service.Create(ctx, &models.Tenant{Name: "Acme", Domain: "acme.test"})
	assert.ErrorIs(suite.T(), err, common.ErrConflict)
	suite.roleRepo.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
}

func (suite *TenantServiceTestSuite) TestResolve_CachesServingTenant() {
	ctx := context.Background()
	tenant := &models.Tenant{ID: uuid.New(), Name: "Acme", Domain: "acme.test", Status: models.TenantStatusActive}
	suite.tenantRepo.On("GetByDomain", ctx, "acme.test").Return(tenant, nil).Once()

	got, err := suite.service.Resolve(ctx, "ACME.test:443")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), tenant.ID, got.ID)

	// second lookup is served from redis
	got, err = suite.service.Resolve(ctx, "acme.test")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), tenant.ID, got.ID)
}

func (suite *TenantServiceTestSuite) TestResolve_InactiveTenantIsNotFound() {
	ctx := context.Background()
	tenant := &models.Tenant{ID: uuid.New(), Domain: "closed.test", Status: models.TenantStatusInactive}
	suite.tenantRepo.On("GetByDomain", ctx, "closed.test").Return(tenant, nil)

	_, err := suite.service.Resolve(ctx, "closed.test")
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)

	cached, err := suite.cache.GetTenantByDomain(ctx, "closed.test")
	require.NoError(suite.T(), err)
	assert.Nil(suite.T(), cached)
}

func (suite *TenantServiceTestSuite) TestResolve_UnknownHost() {
	ctx := context.Background()
	suite.tenantRepo.On("GetByDomain", ctx, "nobody.test").Return(nil, common.ErrNotFound)

	_, err := suite.service.Resolve(ctx, "nobody.test")
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)

	_, err = suite.service.Resolve(ctx, "")
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
}

func (suite *TenantServiceTestSuite) TestDeactivate_EvictsDomainCache() {
	ctx := context.Background()
	tenant := &models.Tenant{ID: uuid.New(), Domain: "acme.test", Status: models.TenantStatusActive}
	require.NoError(suite.T(), suite.cache.SetTenantByDomain(ctx, tenant, time.Minute))

	suite.tenantRepo.On("GetByID", ctx, tenant.ID).Return(tenant, nil)
	suite.tenantRepo.On("SetStatus", ctx, tenant.ID, models.TenantStatusInactive).Return(nil)

	require.NoError(suite.T(), suite.service.Deactivate(ctx, tenant.ID))

	cached, err := suite.cache.GetTenantByDomain(ctx, "acme.test")
	require.NoError(suite.T(), err)
	assert.Nil(suite.T(), cached)
}

func (suite *TenantServiceTestSuite) TestPlatformTenantIsProtected() {
	ctx := context.Background()
	platform := &models.Tenant{ID: uuid.New(), Domain: "admin.digimall.test", Status: models.TenantStatusActive, IsPlatform: true}
	suite.tenantRepo.On("GetByID", ctx, platform.ID).Return(platform, nil)

	assert.ErrorIs(suite.T(), suite.service.Deactivate(ctx, platform.ID), common.ErrForbidden)
	assert.ErrorIs(suite.T(), suite.service.Delete(ctx, platform.ID), common.ErrForbidden)
	suite.tenantRepo.AssertNotCalled(suite.T(), "SetStatus", mock.Anything, mock.Anything, mock.Anything)
	suite.tenantRepo.AssertNotCalled(suite.T(), "SoftDelete", mock.Anything, mock.Anything)
}

func (suite *TenantServiceTestSuite) TestUpdate_KeepsStatusAndEvictsOldDomain() {
	ctx := context.Background()
	id := uuid.New()
	existing := &models.Tenant{ID: id, Name: "Acme", Domain: "old.acme.test", Status: models.TenantStatusInactive, Currency: "USD"}
	require.NoError(suite.T(), suite.cache.SetTenantByDomain(ctx, existing, time.Minute))

	suite.tenantRepo.On("GetByID", ctx, id).Return(existing, nil)
	suite.tenantRepo.On("Update", ctx, mock.AnythingOfType("*models.Tenant")).Return(nil)

	update := &models.Tenant{ID: id, Name: "Acme", Domain: "new.acme.test", Status: models.TenantStatusActive}
	require.NoError(suite.T(), suite.service.Update(ctx, update))
	assert.Equal(suite.T(), models.TenantStatusInactive, update.Status)
	assert.False(suite.T(), suite.redis.Exists("digimall:tenant:domain:old.acme.test"))
}

func (suite *TenantServiceTestSuite) TestWarmDomainCache() {
	ctx := context.Background()
	tenants := []*models.Tenant{
		{ID: uuid.New(), Domain: "a.test", Status: models.TenantStatusActive},
		{ID: uuid.New(), Domain: "b.test", Status: models.TenantStatusActive},
	}
	suite.tenantRepo.On("ListServing", ctx).Return(tenants, nil)

	n, err := suite.service.WarmDomainCache(ctx)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 2, n)
	assert.True(suite.T(), suite.redis.Exists("digimall:tenant:domain:b.test"))
}

func (suite *TenantServiceTestSuite) TestList_RejectsUnknownStatus() {
	_, _, err := suite.service.List(context.Background(), models.TenantFilter{Status: "archived"})
	var verr *common.ValidationError
	assert.ErrorAs(suite.T(), err, &verr)
}

func TestNormalizeHost(t *testing.T) {
	cases := map[string]string{
		"Shop.Example.com":      "shop.example.com",
		"shop.example.com:8443": "shop.example.com",
		"shop.example.com.":     "shop.example.com",
		"  localhost:3000 ":     "localhost",
		"":                      "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeHost(in), in)
	}
}
