package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	"digimall/internal/caching"
	"digimall/internal/common"
	"digimall/internal/models"
	"digimall/internal/repositories"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

type TenantService interface {
	Create(ctx context.Context, tenant *models.Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetPlatform(ctx context.Context) (*models.Tenant, error)
	List(ctx context.Context, filter models.TenantFilter) ([]*models.Tenant, int, error)
	Update(ctx context.Context, tenant *models.Tenant) error
	Activate(ctx context.Context, id uuid.UUID) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) error

	// Resolve maps a request host to the tenant serving it.
	Resolve(ctx context.Context, host string) (*models.Tenant, error)
	WarmDomainCache(ctx context.Context) (int, error)
	SeedRoles(ctx context.Context, tenant *models.Tenant) error
}

type tenantService struct {
	tenantRepo         repositories.TenantRepository
	roleRepo           repositories.RoleRepository
	rolePermissionRepo repositories.RolePermissionRepository
	cacheService       caching.CacheService
	domainCacheTTL     time.Duration
	logger             *zap.Logger
}

func NewTenantService(
	tenantRepo repositories.TenantRepository,
	roleRepo repositories.RoleRepository,
	rolePermissionRepo repositories.RolePermissionRepository,
	cacheService caching.CacheService,
	domainCacheTTL time.Duration,
	logger *zap.Logger,
) TenantService {
	return &tenantService{
		tenantRepo:         tenantRepo,
		roleRepo:           roleRepo,
		rolePermissionRepo: rolePermissionRepo,
		cacheService:       cacheService,
		domainCacheTTL:     domainCacheTTL,
		logger:             logger,
	}
}

// NormalizeHost strips any port and lower-cases a Host header value.
func NormalizeHost(host string) string {
	host = strings.TrimSpace(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.TrimSuffix(strings.ToLower(host), ".")
}

func validateTenant(tenant *models.Tenant) error {
	v := common.NewValidationError()

	tenant.Name = strings.TrimSpace(tenant.Name)
	v.Check("name", common.ValidateRequiredString(tenant.Name, "name"))
	if len(tenant.Name) > 255 {
		v.Add("name", "name cannot exceed 255 characters")
	}

	tenant.Domain = NormalizeHost(tenant.Domain)
	v.Check("domain", common.ValidateDomain(tenant.Domain, "domain"))

	if strings.TrimSpace(tenant.Slug) == "" {
		tenant.Slug = slug.Make(tenant.Name)
	}
	v.Check("slug", common.ValidateSlug(tenant.Slug, "slug"))

	if tenant.Currency == "" {
		tenant.Currency = "USD"
	}
	tenant.Currency = strings.ToUpper(tenant.Currency)
	v.Check("currency", common.ValidateCurrency(tenant.Currency, "currency"))

	if tenant.WebhookURL != nil {
		trimmed := strings.TrimSpace(*tenant.WebhookURL)
		switch {
		case trimmed == "":
			tenant.WebhookURL = nil
		case !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://"):
			v.Add("webhook_url", "webhook_url must be an http(s) URL")
		default:
			tenant.WebhookURL = &trimmed
		}
	}

	return v.OrNil()
}

func (s *tenantService) Create(ctx context.Context, tenant *models.Tenant) error {
	if err := validateTenant(tenant); err != nil {
		return err
	}
	if tenant.ID == uuid.Nil {
		tenant.ID = uuid.New()
	}
	if tenant.Status == "" {
		tenant.Status = models.TenantStatusActive
	}

	if err := s.tenantRepo.Create(ctx, tenant); err != nil {
		if errors.Is(err, common.ErrConflict) {
			return fmt.Errorf("tenant domain or slug already in use: %w", err)
		}
		return fmt.Errorf("failed to create tenant: %w", err)
	}

	if err := s.SeedRoles(ctx, tenant); err != nil {
		return err
	}

	s.logger.Info("tenant created",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("domain", tenant.Domain))
	return nil
}

// SeedRoles creates the tenant's default roles and grants their permissions.
// It is idempotent.
func (s *tenantService) SeedRoles(ctx context.Context, tenant *models.Tenant) error {
	roles := models.DefaultTenantRoles
	if tenant.IsPlatform {
		roles = map[string][]string{models.RoleSuperAdmin: models.AllPermissions}
	}

	names := make([]string, 0, len(roles))
	for name := range roles {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		role := &models.Role{TenantID: tenant.ID, Name: name}
		if err := s.roleRepo.Create(ctx, role); err != nil {
			return fmt.Errorf("failed to seed role %s: %w", name, err)
		}
		for _, perm := range roles[name] {
			if err := s.rolePermissionRepo.Grant(ctx, role.ID, perm); err != nil {
				return fmt.Errorf("failed to grant %s to %s: %w", perm, name, err)
			}
		}
	}
	return nil
}

func (s *tenantService) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	return s.tenantRepo.GetByID(ctx, id)
}

func (s *tenantService) GetPlatform(ctx context.Context) (*models.Tenant, error) {
	return s.tenantRepo.GetPlatform(ctx)
}

func (s *tenantService) List(ctx context.Context, filter models.TenantFilter) ([]*models.Tenant, int, error) {
	limit, offset, err := common.ValidatePaginationParams(filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, common.FieldError("offset", err.Error())
	}
	filter.Limit, filter.Offset = limit, offset
	filter.Query = common.SanitizeSearchQuery(filter.Query)
	if filter.Status != "" && filter.Status != models.TenantStatusActive && filter.Status != models.TenantStatusInactive {
		return nil, 0, common.FieldError("status", "status must be active or inactive")
	}
	return s.tenantRepo.List(ctx, filter)
}

func (s *tenantService) Update(ctx context.Context, tenant *models.Tenant) error {
	existing, err := s.tenantRepo.GetByID(ctx, tenant.ID)
	if err != nil {
		return err
	}
	if err := validateTenant(tenant); err != nil {
		return err
	}
	tenant.Status = existing.Status
	tenant.IsPlatform = existing.IsPlatform

	if err := s.tenantRepo.Update(ctx, tenant); err != nil {
		return fmt.Errorf("failed to update tenant: %w", err)
	}

	s.invalidateDomain(ctx, existing.Domain)
	if tenant.Domain != existing.Domain {
		s.invalidateDomain(ctx, tenant.Domain)
	}
	return nil
}

func (s *tenantService) Activate(ctx context.Context, id uuid.UUID) error {
	return s.setStatus(ctx, id, models.TenantStatusActive)
}

func (s *tenantService) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.setStatus(ctx, id, models.TenantStatusInactive)
}

func (s *tenantService) setStatus(ctx context.Context, id uuid.UUID, status string) error {
	tenant, err := s.tenantRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if tenant.IsPlatform && status != models.TenantStatusActive {
		return fmt.Errorf("the platform tenant cannot be deactivated: %w", common.ErrForbidden)
	}
	if err := s.tenantRepo.SetStatus(ctx, id, status); err != nil {
		return err
	}
	s.invalidateDomain(ctx, tenant.Domain)
	s.logger.Info("tenant status changed",
		zap.String("tenant_id", id.String()),
		zap.String("status", status))
	return nil
}

func (s *tenantService) Delete(ctx context.Context, id uuid.UUID) error {
	tenant, err := s.tenantRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if tenant.IsPlatform {
		return fmt.Errorf("the platform tenant cannot be deleted: %w", common.ErrForbidden)
	}
	if err := s.tenantRepo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.invalidateDomain(ctx, tenant.Domain)
	if err := s.cacheService.InvalidateTenantCache(ctx, id); err != nil {
		s.logger.Warn("failed to invalidate tenant cache", zap.String("tenant_id", id.String()), zap.Error(err))
	}
	return nil
}

func (s *tenantService) Restore(ctx context.Context, id uuid.UUID) error {
	tenant, err := s.tenantRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.tenantRepo.Restore(ctx, id); err != nil {
		return err
	}
	s.invalidateDomain(ctx, tenant.Domain)
	return nil
}

func (s *tenantService) Resolve(ctx context.Context, host string) (*models.Tenant, error) {
	domain := NormalizeHost(host)
	if domain == "" {
		return nil, common.ErrNotFound
	}

	cached, err := s.cacheService.GetTenantByDomain(ctx, domain)
	if err != nil {
		s.logger.Warn("tenant cache lookup failed", zap.String("domain", domain), zap.Error(err))
	}
	if cached != nil && cached.IsServing() {
		return cached, nil
	}

	tenant, err := s.tenantRepo.GetByDomain(ctx, domain)
	if err != nil {
		return nil, err
	}
	if !tenant.IsServing() {
		return nil, common.ErrNotFound
	}

	if err := s.cacheService.SetTenantByDomain(ctx, tenant, s.domainCacheTTL); err != nil {
		s.logger.Warn("failed to cache tenant", zap.String("domain", domain), zap.Error(err))
	}
	return tenant, nil
}

// WarmDomainCache loads every serving tenant into the domain cache.
func (s *tenantService) WarmDomainCache(ctx context.Context) (int, error) {
	tenants, err := s.tenantRepo.ListServing(ctx)
	if err != nil {
		return 0, err
	}
	warmed := 0
	for _, tenant := range tenants {
		if err := s.cacheService.SetTenantByDomain(ctx, tenant, s.domainCacheTTL); err != nil {
			s.logger.Warn("failed to warm tenant cache", zap.String("domain", tenant.Domain), zap.Error(err))
			continue
		}
		warmed++
	}
	return warmed, nil
}

func (s *tenantService) invalidateDomain(ctx context.Context, domain string) {
	if err := s.cacheService.DeleteTenantDomain(ctx, domain); err != nil {
		s.logger.Warn("failed to invalidate tenant domain", zap.String("domain", domain), zap.Error(err))
	}
}
