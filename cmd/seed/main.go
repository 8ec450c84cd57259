// Command seed bootstraps the platform tenant with its super admin and,
// optionally, a demo storefront with a vendor and a small catalog.
// Every step is skipped when its record already exists.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"digimall/internal/caching"
	"digimall/internal/common"
	"digimall/internal/config"
	"digimall/internal/logger"
	"digimall/internal/models"
	"digimall/internal/repositories"
	"digimall/internal/services"
	"digimall/pkg/database"
)

type seeder struct {
	users       repositories.UserRepository
	userRoles   repositories.UserRoleRepository
	tenantRepo  repositories.TenantRepository
	tenants     services.TenantService
	auth        services.AuthService
	vendors     services.VendorService
	collections services.CollectionService
	brands      services.BrandService
	attributes  services.AttributeService
	tags        services.TagService
	products    services.ProductService
	logger      *zap.Logger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	appLogger, err := logger.New(cfg.Log.Level, "console", "digimall-seed")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync() //nolint:errcheck

	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if len(password) < 8 {
		appLogger.Fatal("SEED_ADMIN_PASSWORD must be set to at least 8 characters")
	}

	ctx := context.Background()
	pool, err := database.NewPool(ctx, cfg.Database.URL, appLogger)
	if err != nil {
		appLogger.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, appLogger); err != nil {
		appLogger.Fatal("migrations failed", zap.Error(err))
	}

	redisClient := caching.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, appLogger)
	defer redisClient.Close()
	cacheSvc := caching.NewRedisCacheService(redisClient, appLogger)

	userRepo := repositories.NewUserRepo(pool)
	userRoleRepo := repositories.NewUserRoleRepo(pool)
	tenantRepo := repositories.NewTenantRepo(pool)
	roleRepo := repositories.NewRoleRepo(pool)
	vendorRepo := repositories.NewVendorRepo(pool)
	collectionRepo := repositories.NewCollectionRepo(pool)
	brandRepo := repositories.NewBrandRepo(pool)
	attributeRepo := repositories.NewAttributeRepo(pool)
	tagRepo := repositories.NewTagRepo(pool)
	txr := database.NewTransactor(pool)

	s := &seeder{
		users:      userRepo,
		userRoles:  userRoleRepo,
		tenantRepo: tenantRepo,
		tenants: services.NewTenantService(tenantRepo, roleRepo, repositories.NewRolePermissionRepo(pool),
			cacheSvc, cfg.Tenancy.DomainCacheTTL, appLogger),
		auth: services.NewAuthService(userRepo, repositories.NewCustomerRepo(pool), userRoleRepo, cacheSvc, txr,
			services.AuthSettings{JWTSecret: cfg.Auth.JWTSecret, AccessTokenTTL: cfg.Auth.AccessTokenTTL, RefreshTokenTTL: cfg.Auth.RefreshTokenTTL}, appLogger),
		vendors:     services.NewVendorService(vendorRepo, userRoleRepo, txr, appLogger),
		collections: services.NewCollectionService(collectionRepo),
		brands:      services.NewBrandService(brandRepo),
		attributes:  services.NewAttributeService(attributeRepo),
		tags:        services.NewTagService(tagRepo),
		products: services.NewProductService(services.ProductDeps{
			Products:    repositories.NewProductRepo(pool),
			Variants:    repositories.NewVariantRepo(pool),
			Images:      repositories.NewProductImageRepo(pool),
			Vendors:     vendorRepo,
			Brands:      brandRepo,
			Collections: collectionRepo,
			Tags:        tagRepo,
			Attributes:  attributeRepo,
			ImageBucket: cfg.Minio.ImageBucket,
			Cache:       cacheSvc,
			Tx:          txr,
			Logger:      appLogger,
		}),
		logger: appLogger,
	}

	adminEmail := envOr("SEED_ADMIN_EMAIL", "admin@digimall.test")
	if err := s.seedPlatform(ctx, cfg.Tenancy.CentralDomain, adminEmail, password); err != nil {
		appLogger.Fatal("platform seed failed", zap.Error(err))
	}

	if demoDomain := os.Getenv("SEED_DEMO_DOMAIN"); demoDomain != "" {
		if err := s.seedDemo(ctx, strings.ToLower(demoDomain), password); err != nil {
			appLogger.Fatal("demo seed failed", zap.Error(err))
		}
	}
	appLogger.Info("seed complete")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (s *seeder) seedPlatform(ctx context.Context, domain, email, password string) error {
	platform, err := s.tenantRepo.GetPlatform(ctx)
	if errors.Is(err, common.ErrNotFound) {
		platform = &models.Tenant{Name: "DigiMall", Slug: "platform", Domain: domain, Currency: "EUR", IsPlatform: true}
		err = s.tenants.Create(ctx, platform)
	}
	if err != nil {
		return fmt.Errorf("platform tenant: %w", err)
	}
	if err := s.tenants.SeedRoles(ctx, platform); err != nil {
		return err
	}
	_, err = s.ensureUser(ctx, platform.ID, email, password, "Platform", "Admin", models.RoleSuperAdmin)
	return err
}

// ensureUser returns the user with email, creating it with role when absent.
func (s *seeder) ensureUser(ctx context.Context, tenantID uuid.UUID, email, password, first, last, role string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, tenantID, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user = &models.User{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Email:        email,
		PasswordHash: hash,
		FirstName:    first,
		LastName:     last,
		Status:       models.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user %s: %w", email, err)
	}
	if err := s.userRoles.Assign(ctx, tenantID, user.ID, role); err != nil {
		return nil, fmt.Errorf("assign %s to %s: %w", role, email, err)
	}
	s.logger.Info("user seeded", zap.String("email", email), zap.String("role", role))
	return user, nil
}

func (s *seeder) seedDemo(ctx context.Context, domain, password string) error {
	tenant, err := s.tenantRepo.GetByDomain(ctx, domain)
	if err == nil {
		s.logger.Info("demo tenant already present", zap.String("domain", domain))
		return nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return err
	}

	tenant = &models.Tenant{
		Name:     "Atelier Azul",
		Slug:     "atelier-azul",
		Domain:   domain,
		Currency: "EUR",
		Theme:    models.Theme{PrimaryColor: "#1d4e89", SecondaryColor: "#f4f1ea"},
	}
	if err := s.tenants.Create(ctx, tenant); err != nil {
		return fmt.Errorf("demo tenant: %w", err)
	}

	if _, err := s.ensureUser(ctx, tenant.ID, "admin@"+domain, password, "Store", "Admin", models.RoleAdmin); err != nil {
		return err
	}
	vendorUser, err := s.ensureUser(ctx, tenant.ID, "studio@"+domain, password, "Inês", "Duarte", models.RoleCustomer)
	if err != nil {
		return err
	}

	vendor := &models.Vendor{BusinessName: "Duarte Ceramics", ContactEmail: "studio@" + domain}
	if err := s.vendors.Apply(ctx, tenant.ID, vendorUser.ID, vendor); err != nil {
		return err
	}
	if _, err := s.vendors.Approve(ctx, tenant.ID, vendor.ID); err != nil {
		return err
	}

	tableware := &models.Collection{Name: "Tableware"}
	if err := s.collections.Create(ctx, tenant.ID, tableware); err != nil {
		return err
	}
	mugs := &models.Collection{Name: "Mugs", ParentID: &tableware.ID}
	if err := s.collections.Create(ctx, tenant.ID, mugs); err != nil {
		return err
	}
	brand := &models.Brand{Name: "Duarte"}
	if err := s.brands.Create(ctx, tenant.ID, brand); err != nil {
		return err
	}
	glaze := &models.Attribute{Name: "Glaze", Type: models.AttributeTypeSelect, Values: []string{"cobalt", "celadon"}, Filterable: true}
	if err := s.attributes.Create(ctx, tenant.ID, glaze); err != nil {
		return err
	}
	handmade := &models.Tag{Name: "Handmade"}
	if err := s.tags.Create(ctx, tenant.ID, handmade); err != nil {
		return err
	}

	product := &models.Product{
		Name:            "Azulejo Mug",
		Status:          models.ProductStatusPublished,
		BrandID:         &brand.ID,
		CollectionIDs:   []uuid.UUID{mugs.ID},
		TagIDs:          []uuid.UUID{handmade.ID},
		AttributeValues: map[string]string{glaze.ID.String(): "cobalt"},
		Variants: []*models.ProductVariant{
			{SKU: "AZ-MUG-COB", Name: "Cobalt", Stock: 40, Prices: []*models.Price{
				{Currency: "EUR", Amount: decimal.RequireFromString("18.00"), MinQuantity: 1},
				{Currency: "EUR", Amount: decimal.RequireFromString("15.50"), MinQuantity: 6},
			}},
		},
	}
	if err := s.products.Create(ctx, tenant.ID, vendorUser.ID, product); err != nil {
		return err
	}

	s.logger.Info("demo tenant seeded",
		zap.String("domain", domain),
		zap.String("vendor_id", vendor.ID.String()),
		zap.String("product_id", product.ID.String()))
	return nil
}
