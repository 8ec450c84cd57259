package repositories

import (
	"context"
	"fmt"

	"digimall/internal/models"
	"digimall/pkg/database"

	"github.com/google/uuid"
)

type TenantRepository interface {
	Create(ctx context.Context, tenant *models.Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetByDomain(ctx context.Context, domain string) (*models.Tenant, error)
	GetPlatform(ctx context.Context) (*models.Tenant, error)
	List(ctx context.Context, filter models.TenantFilter) ([]*models.Tenant, int, error)
	ListServing(ctx context.Context) ([]*models.Tenant, error)
	Update(ctx context.Context, tenant *models.Tenant) error
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) error
}

const tenantColumns = `id, name, slug, domain, theme, currency, webhook_url, status, is_platform, created_at, updated_at, deleted_at`

type tenantRepo struct {
	db database.DBTX
}

func NewTenantRepo(db database.DBTX) TenantRepository {
	return &tenantRepo{db: db}
}

func scanTenant(row rowScanner) (*models.Tenant, error) {
	t := &models.Tenant{}
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.Domain, &t.Theme, &t.Currency, &t.WebhookURL,
		&t.Status, &t.IsPlatform, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return t, nil
}

func (r *tenantRepo) Create(ctx context.Context, tenant *models.Tenant) error {
	query := `
		INSERT INTO tenants (id, name, slug, domain, theme, currency, webhook_url, status, is_platform, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, tenant.ID, tenant.Name, tenant.Slug, tenant.Domain, tenant.Theme,
		tenant.Currency, tenant.WebhookURL, tenant.Status, tenant.IsPlatform).Scan(&tenant.CreatedAt, &tenant.UpdatedAt)
	return mapError(err)
}

func (r *tenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`
	return scanTenant(database.Conn(ctx, r.db).QueryRow(ctx, query, id))
}

func (r *tenantRepo) GetByDomain(ctx context.Context, domain string) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE domain = $1`
	return scanTenant(database.Conn(ctx, r.db).QueryRow(ctx, query, domain))
}

func (r *tenantRepo) GetPlatform(ctx context.Context) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE is_platform = TRUE`
	return scanTenant(database.Conn(ctx, r.db).QueryRow(ctx, query))
}

func (r *tenantRepo) List(ctx context.Context, filter models.TenantFilter) ([]*models.Tenant, int, error) {
	where := " WHERE is_platform = FALSE"
	args := []interface{}{}
	argCount := 0

	if !filter.IncludeDeleted {
		where += " AND deleted_at IS NULL"
	}
	if filter.Status != "" {
		argCount++
		where += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filter.Status)
	}
	if filter.Query != "" {
		argCount++
		where += fmt.Sprintf(" AND (name ILIKE $%d OR domain ILIKE $%d)", argCount, argCount)
		args = append(args, "%"+filter.Query+"%")
	}

	var total int
	if err := database.Conn(ctx, r.db).QueryRow(ctx, `SELECT COUNT(*) FROM tenants`+where, args...).Scan(&total); err != nil {
		return nil, 0, mapError(err)
	}

	query := `SELECT ` + tenantColumns + ` FROM tenants` + where +
		fmt.Sprintf(" ORDER BY name ASC LIMIT $%d OFFSET $%d", argCount+1, argCount+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, mapError(err)
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, 0, err
		}
		tenants = append(tenants, t)
	}
	return tenants, total, rows.Err()
}

func (r *tenantRepo) ListServing(ctx context.Context) ([]*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE status = 'active' AND deleted_at IS NULL`
	rows, err := database.Conn(ctx, r.db).Query(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

func (r *tenantRepo) Update(ctx context.Context, tenant *models.Tenant) error {
	query := `
		UPDATE tenants
		SET name = $2, domain = $3, theme = $4, currency = $5, webhook_url = $6, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	return expectOne(database.Conn(ctx, r.db).Exec(ctx, query, tenant.ID, tenant.Name, tenant.Domain, tenant.Theme,
		tenant.Currency, tenant.WebhookURL))
}

func (r *tenantRepo) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `UPDATE tenants SET status = $2, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	return expectOne(database.Conn(ctx, r.db).Exec(ctx, query, id, status))
}

func (r *tenantRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE tenants SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL AND is_platform = FALSE`
	return expectOne(database.Conn(ctx, r.db).Exec(ctx, query, id))
}

func (r *tenantRepo) Restore(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE tenants SET deleted_at = NULL, updated_at = NOW() WHERE id = $1 AND deleted_at IS NOT NULL`
	return expectOne(database.Conn(ctx, r.db).Exec(ctx, query, id))
}
