// Package testhelpers provides PostgreSQL fixtures for integration tests.
// Tests using it are skipped unless TEST_DATABASE_URL is set.
package testhelpers

import (
	"context"
	"os"
	"testing"

	"digimall/internal/models"
	"digimall/internal/repositories"
	"digimall/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// TestDB holds the database connection for testing
type TestDB struct {
	Pool *pgxpool.Pool
}

// SetupTestDB connects to TEST_DATABASE_URL and applies migrations. The pool
// is closed when the test ends.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := database.NewPool(ctx, dsn, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := database.Migrate(ctx, pool, zap.NewNop()); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return &TestDB{Pool: pool}
}

// SetupTestTenant creates an active tenant on a unique domain.
func SetupTestTenant(t *testing.T, db *TestDB) *models.Tenant {
	t.Helper()

	suffix := uuid.NewString()[:8]
	tenant := &models.Tenant{
		ID:       uuid.New(),
		Name:     "Test Tenant " + suffix,
		Slug:     "test-" + suffix,
		Domain:   "test-" + suffix + ".example.com",
		Currency: "EUR",
		Status:   models.TenantStatusActive,
	}
	if err := repositories.NewTenantRepo(db.Pool).Create(context.Background(), tenant); err != nil {
		t.Fatalf("Failed to create test tenant: %v", err)
	}
	return tenant
}

// SetupTestUser creates an active user in the tenant.
func SetupTestUser(t *testing.T, db *TestDB, tenantID uuid.UUID) *models.User {
	t.Helper()

	user := &models.User{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Email:        uuid.NewString()[:8] + "@example.com",
		PasswordHash: "x",
		FirstName:    "Test",
		LastName:     "User",
		Status:       models.UserStatusActive,
	}
	if err := repositories.NewUserRepo(db.Pool).Create(context.Background(), user); err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

// SetupTestCustomer creates a user with a customer profile.
func SetupTestCustomer(t *testing.T, db *TestDB, tenantID uuid.UUID) *models.Customer {
	t.Helper()

	user := SetupTestUser(t, db, tenantID)
	customer := &models.Customer{ID: uuid.New(), TenantID: tenantID, UserID: user.ID}
	if err := repositories.NewCustomerRepo(db.Pool).Create(context.Background(), customer); err != nil {
		t.Fatalf("Failed to create test customer: %v", err)
	}
	return customer
}

// SetupTestVendor creates an approved vendor.
func SetupTestVendor(t *testing.T, db *TestDB, tenantID uuid.UUID) *models.Vendor {
	t.Helper()

	ctx := context.Background()
	user := SetupTestUser(t, db, tenantID)
	name := "Vendor " + uuid.NewString()[:8]
	vendor := &models.Vendor{
		ID:           uuid.New(),
		TenantID:     tenantID,
		UserID:       user.ID,
		BusinessName: name,
		Slug:         "vendor-" + user.ID.String()[:8],
		ContactEmail: user.Email,
		Status:       models.VendorStatusPending,
	}
	repo := repositories.NewVendorRepo(db.Pool)
	if err := repo.Create(ctx, vendor); err != nil {
		t.Fatalf("Failed to create test vendor: %v", err)
	}
	if err := repo.UpdateStatus(ctx, tenantID, vendor.ID, models.VendorStatusPending, models.VendorStatusApproved, nil, nil); err != nil {
		t.Fatalf("Failed to approve test vendor: %v", err)
	}
	vendor.Status = models.VendorStatusApproved
	return vendor
}

// SetupTestVariant creates a published product with a single variant holding stock units.
func SetupTestVariant(t *testing.T, db *TestDB, tenantID, vendorID uuid.UUID, stock int) (*models.Product, *models.ProductVariant) {
	t.Helper()

	ctx := context.Background()
	suffix := uuid.NewString()[:8]
	product := &models.Product{
		ID:       uuid.New(),
		TenantID: tenantID,
		VendorID: vendorID,
		Name:     "Product " + suffix,
		Slug:     "product-" + suffix,
		Status:   models.ProductStatusPublished,
	}
	if err := repositories.NewProductRepo(db.Pool).Create(ctx, product); err != nil {
		t.Fatalf("Failed to create test product: %v", err)
	}

	variant := &models.ProductVariant{
		ID:        uuid.New(),
		TenantID:  tenantID,
		ProductID: product.ID,
		SKU:       "SKU-" + suffix,
		Name:      "Default",
		Options:   map[string]string{},
		Stock:     stock,
		IsDefault: true,
	}
	if err := repositories.NewVariantRepo(db.Pool).Create(ctx, variant); err != nil {
		t.Fatalf("Failed to create test variant: %v", err)
	}
	return product, variant
}
