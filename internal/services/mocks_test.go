package services

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"digimall/internal/caching"
	"digimall/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func newTestCache(t *testing.T) (caching.CacheService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return caching.NewRedisCacheService(client, zap.NewNop()), mr
}

// fakeTransactor runs each unit of work on the caller's context and counts
// how it ended.
type fakeTransactor struct {
	commits   int
	rollbacks int
}

func (f *fakeTransactor) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		f.rollbacks++
		return err
	}
	f.commits++
	return nil
}

// MockTenantRepository is a mock implementation of TenantRepository
type MockTenantRepository struct {
	mock.Mock
}

func (m *MockTenantRepository) Create(ctx context.Context, tenant *models.Tenant) error {
	return m.Called(ctx, tenant).Error(0)
}

func (m *MockTenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantRepository) GetByDomain(ctx context.Context, domain string) (*models.Tenant, error) {
	args := m.Called(ctx, domain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantRepository) GetPlatform(ctx context.Context) (*models.Tenant, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantRepository) List(ctx context.Context, filter models.TenantFilter) ([]*models.Tenant, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*models.Tenant), args.Int(1), args.Error(2)
}

func (m *MockTenantRepository) ListServing(ctx context.Context) ([]*models.Tenant, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.Tenant), args.Error(1)
}

func (m *MockTenantRepository) Update(ctx context.Context, tenant *models.Tenant) error {
	return m.Called(ctx, tenant).Error(0)
}

func (m *MockTenantRepository) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockTenantRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTenantRepository) Restore(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockRoleRepository struct {
	mock.Mock
}

func (m *MockRoleRepository) Create(ctx context.Context, role *models.Role) error {
	return m.Called(ctx, role).Error(0)
}

func (m *MockRoleRepository) GetByName(ctx context.Context, tenantID uuid.UUID, name string) (*models.Role, error) {
	args := m.Called(ctx, tenantID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Role), args.Error(1)
}

func (m *MockRoleRepository) List(ctx context.Context, tenantID uuid.UUID) ([]*models.Role, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]*models.Role), args.Error(1)
}

type MockRolePermissionRepository struct {
	mock.Mock
}

func (m *MockRolePermissionRepository) Grant(ctx context.Context, roleID uuid.UUID, permissionName string) error {
	return m.Called(ctx, roleID, permissionName).Error(0)
}

func (m *MockRolePermissionRepository) ListPermissionNames(ctx context.Context, roleID uuid.UUID) ([]string, error) {
	args := m.Called(ctx, roleID)
	return args.Get(0).([]string), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*models.User, error) {
	args := m.Called(ctx, tenantID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.User, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	return args.Get(0).([]*models.User), args.Error(1)
}

type MockUserRoleRepository struct {
	mock.Mock
}

func (m *MockUserRoleRepository) Assign(ctx context.Context, tenantID, userID uuid.UUID, roleName string) error {
	return m.Called(ctx, tenantID, userID, roleName).Error(0)
}

func (m *MockUserRoleRepository) Revoke(ctx context.Context, tenantID, userID uuid.UUID, roleName string) error {
	return m.Called(ctx, tenantID, userID, roleName).Error(0)
}

func (m *MockUserRoleRepository) ListRoleNames(ctx context.Context, tenantID, userID uuid.UUID) ([]string, error) {
	args := m.Called(ctx, tenantID, userID)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockUserRoleRepository) ListPermissionNames(ctx context.Context, tenantID, userID uuid.UUID) ([]string, error) {
	args := m.Called(ctx, tenantID, userID)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockUserRoleRepository) HasPermission(ctx context.Context, tenantID, userID uuid.UUID, permission string) (bool, error) {
	args := m.Called(ctx, tenantID, userID, permission)
	return args.Bool(0), args.Error(1)
}

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	return m.Called(ctx, customer).Error(0)
}

func (m *MockCustomerRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Customer, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockCustomerRepository) GetByUserID(ctx context.Context, tenantID, userID uuid.UUID) (*models.Customer, error) {
	args := m.Called(ctx, tenantID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Update(ctx context.Context, customer *models.Customer) error {
	return m.Called(ctx, customer).Error(0)
}

type MockVendorRepository struct {
	mock.Mock
}

func (m *MockVendorRepository) Create(ctx context.Context, vendor *models.Vendor) error {
	return m.Called(ctx, vendor).Error(0)
}

func (m *MockVendorRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Vendor, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vendor), args.Error(1)
}

func (m *MockVendorRepository) GetByUserID(ctx context.Context, tenantID, userID uuid.UUID) (*models.Vendor, error) {
	args := m.Called(ctx, tenantID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vendor), args.Error(1)
}

func (m *MockVendorRepository) List(ctx context.Context, tenantID uuid.UUID, filter models.VendorFilter) ([]*models.Vendor, int, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]*models.Vendor), args.Int(1), args.Error(2)
}

func (m *MockVendorRepository) UpdateProfile(ctx context.Context, vendor *models.Vendor) error {
	return m.Called(ctx, vendor).Error(0)
}

func (m *MockVendorRepository) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, from, to string, reason *string, approvedAt *time.Time) error {
	return m.Called(ctx, tenantID, id, from, to, reason, approvedAt).Error(0)
}

type MockCollectionRepository struct {
	mock.Mock
}

func (m *MockCollectionRepository) Create(ctx context.Context, collection *models.Collection) error {
	return m.Called(ctx, collection).Error(0)
}

func (m *MockCollectionRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Collection, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Collection), args.Error(1)
}

func (m *MockCollectionRepository) GetBySlug(ctx context.Context, tenantID uuid.UUID, slug string) (*models.Collection, error) {
	args := m.Called(ctx, tenantID, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Collection), args.Error(1)
}

func (m *MockCollectionRepository) List(ctx context.Context, tenantID uuid.UUID) ([]*models.Collection, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]*models.Collection), args.Error(1)
}

func (m *MockCollectionRepository) ListChildren(ctx context.Context, tenantID uuid.UUID, parentID *uuid.UUID) ([]*models.Collection, error) {
	args := m.Called(ctx, tenantID, parentID)
	return args.Get(0).([]*models.Collection), args.Error(1)
}

func (m *MockCollectionRepository) CountChildren(ctx context.Context, tenantID, id uuid.UUID) (int, error) {
	args := m.Called(ctx, tenantID, id)
	return args.Int(0), args.Error(1)
}

func (m *MockCollectionRepository) UpdateHierarchy(ctx context.Context, collection *models.Collection, oldPath string, oldLevel int) error {
	return m.Called(ctx, collection, oldPath, oldLevel).Error(0)
}

func (m *MockCollectionRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

type MockAttributeRepository struct {
	mock.Mock
}

func (m *MockAttributeRepository) Create(ctx context.Context, attribute *models.Attribute) error {
	return m.Called(ctx, attribute).Error(0)
}

func (m *MockAttributeRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Attribute, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Attribute), args.Error(1)
}

func (m *MockAttributeRepository) GetByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*models.Attribute, error) {
	args := m.Called(ctx, tenantID, ids)
	return args.Get(0).([]*models.Attribute), args.Error(1)
}

func (m *MockAttributeRepository) List(ctx context.Context, tenantID uuid.UUID, filterableOnly bool) ([]*models.Attribute, error) {
	args := m.Called(ctx, tenantID, filterableOnly)
	return args.Get(0).([]*models.Attribute), args.Error(1)
}

func (m *MockAttributeRepository) Update(ctx context.Context, attribute *models.Attribute) error {
	return m.Called(ctx, attribute).Error(0)
}

func (m *MockAttributeRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

type MockBrandRepository struct {
	mock.Mock
}

func (m *MockBrandRepository) Create(ctx context.Context, brand *models.Brand) error {
	return m.Called(ctx, brand).Error(0)
}

func (m *MockBrandRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Brand, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Brand), args.Error(1)
}

func (m *MockBrandRepository) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Brand, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	return args.Get(0).([]*models.Brand), args.Error(1)
}

func (m *MockBrandRepository) Update(ctx context.Context, brand *models.Brand) error {
	return m.Called(ctx, brand).Error(0)
}

func (m *MockBrandRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

type MockTagRepository struct {
	mock.Mock
}

func (m *MockTagRepository) Create(ctx context.Context, tag *models.Tag) error {
	return m.Called(ctx, tag).Error(0)
}

func (m *MockTagRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Tag, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tag), args.Error(1)
}

func (m *MockTagRepository) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Tag, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	return args.Get(0).([]*models.Tag), args.Error(1)
}

func (m *MockTagRepository) Update(ctx context.Context, tag *models.Tag) error {
	return m.Called(ctx, tag).Error(0)
}

func (m *MockTagRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

// MockProductRepository is a mock implementation of ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(ctx context.Context, product *models.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Product, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) GetBySlug(ctx context.Context, tenantID uuid.UUID, slug string) (*models.Product, error) {
	args := m.Called(ctx, tenantID, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) Update(ctx context.Context, product *models.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockProductRepository) Search(ctx context.Context, tenantID uuid.UUID, filter *models.ProductSearchFilter) ([]*models.Product, int, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]*models.Product), args.Int(1), args.Error(2)
}

func (m *MockProductRepository) ListExportRows(ctx context.Context, tenantID, vendorID uuid.UUID) ([]*models.CatalogExportRow, error) {
	args := m.Called(ctx, tenantID, vendorID)
	return args.Get(0).([]*models.CatalogExportRow), args.Error(1)
}

type MockVariantRepository struct {
	mock.Mock
}

func (m *MockVariantRepository) Create(ctx context.Context, variant *models.ProductVariant) error {
	return m.Called(ctx, variant).Error(0)
}

func (m *MockVariantRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.ProductVariant, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProductVariant), args.Error(1)
}

func (m *MockVariantRepository) ListByProduct(ctx context.Context, tenantID, productID uuid.UUID) ([]*models.ProductVariant, error) {
	args := m.Called(ctx, tenantID, productID)
	return args.Get(0).([]*models.ProductVariant), args.Error(1)
}

func (m *MockVariantRepository) Update(ctx context.Context, variant *models.ProductVariant) error {
	return m.Called(ctx, variant).Error(0)
}

func (m *MockVariantRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockVariantRepository) GetForSale(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*models.VariantForSale, error) {
	args := m.Called(ctx, tenantID, ids)
	return args.Get(0).(map[uuid.UUID]*models.VariantForSale), args.Error(1)
}

type MockProductImageRepository struct {
	mock.Mock
}

func (m *MockProductImageRepository) Create(ctx context.Context, image *models.ProductImage) error {
	return m.Called(ctx, image).Error(0)
}

func (m *MockProductImageRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.ProductImage, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProductImage), args.Error(1)
}

func (m *MockProductImageRepository) ListByProduct(ctx context.Context, tenantID, productID uuid.UUID) ([]*models.ProductImage, error) {
	args := m.Called(ctx, tenantID, productID)
	return args.Get(0).([]*models.ProductImage), args.Error(1)
}

func (m *MockProductImageRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *models.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, tenantID uuid.UUID, filter models.OrderSearchFilter) ([]*models.Order, int, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]*models.Order), args.Int(1), args.Error(2)
}

func (m *MockOrderRepository) Transition(ctx context.Context, tenantID, id uuid.UUID, from, to string, restoreStock bool) error {
	return m.Called(ctx, tenantID, id, from, to, restoreStock).Error(0)
}

func (m *MockOrderRepository) ListStalePending(ctx context.Context, placedBefore time.Time, limit int) ([]*models.Order, error) {
	args := m.Called(ctx, placedBefore, limit)
	return args.Get(0).([]*models.Order), args.Error(1)
}

// MockMinioService is a mock implementation of MinioService
type MockMinioService struct {
	mock.Mock
}

func (m *MockMinioService) UploadImage(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, contentType string) error {
	return m.Called(ctx, bucketName, objectName, reader, objectSize, contentType).Error(0)
}

func (m *MockMinioService) GetPresignedURL(ctx context.Context, bucketName, objectName string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, bucketName, objectName, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockMinioService) DeleteImage(ctx context.Context, bucketName, objectName string) error {
	return m.Called(ctx, bucketName, objectName).Error(0)
}

func (m *MockMinioService) EnsureBucketExists(ctx context.Context, bucketName string) error {
	return m.Called(ctx, bucketName).Error(0)
}

// recordingNotifier captures announced events synchronously.
type recordingNotifier struct {
	mu     sync.Mutex
	events []*models.OrderEvent
}

func (r *recordingNotifier) Notify(tenant *models.Tenant, event *models.OrderEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingNotifier) Send(ctx context.Context, url string, event *models.OrderEvent) error {
	r.Notify(nil, event)
	return nil
}

func (r *recordingNotifier) Wait() {}

func (r *recordingNotifier) Events() []*models.OrderEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.OrderEvent(nil), r.events...)
}
