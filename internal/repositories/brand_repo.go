package repositories

import (
	"context"

	"digimall/internal/models"
	"digimall/pkg/database"

	"github.com/google/uuid"
)

type BrandRepository interface {
	Create(ctx context.Context, brand *models.Brand) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Brand, error)
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Brand, error)
	Update(ctx context.Context, brand *models.Brand) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

const brandColumns = `id, tenant_id, name, slug, description, logo_url, created_at, updated_at`

type brandRepo struct {
	db database.DBTX
}

func NewBrandRepo(db database.DBTX) BrandRepository {
	return &brandRepo{db: db}
}

func scanBrand(row rowScanner) (*models.Brand, error) {
	b := &models.Brand{}
	if err := row.Scan(&b.ID, &b.TenantID, &b.Name, &b.Slug, &b.Description, &b.LogoURL, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, mapError(err)
	}
	return b, nil
}

func (r *brandRepo) Create(ctx context.Context, brand *models.Brand) error {
	query := `
		INSERT INTO brands (id, tenant_id, name, slug, description, logo_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, brand.ID, brand.TenantID, brand.Name, brand.Slug, brand.Description,
		brand.LogoURL).Scan(&brand.CreatedAt, &brand.UpdatedAt)
	return mapError(err)
}

func (r *brandRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Brand, error) {
	query := `SELECT ` + brandColumns + ` FROM brands WHERE tenant_id = $1 AND id = $2`
	return scanBrand(database.Conn(ctx, r.db).QueryRow(ctx, query, tenantID, id))
}

func (r *brandRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Brand, error) {
	query := `SELECT ` + brandColumns + ` FROM brands WHERE tenant_id = $1 ORDER BY name LIMIT $2 OFFSET $3`
	rows, err := database.Conn(ctx, r.db).Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var brands []*models.Brand
	for rows.Next() {
		b, err := scanBrand(rows)
		if err != nil {
			return nil, err
		}
		brands = append(brands, b)
	}
	return brands, rows.Err()
}

func (r *brandRepo) Update(ctx context.Context, brand *models.Brand) error {
	query := `
		UPDATE brands SET name = $3, slug = $4, description = $5, logo_url = $6, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2
	`
	return expectOne(database.Conn(ctx, r.db).Exec(ctx, query, brand.TenantID, brand.ID, brand.Name, brand.Slug, brand.Description, brand.LogoURL))
}

func (r *brandRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return expectOne(database.Conn(ctx, r.db).Exec(ctx, `DELETE FROM brands WHERE tenant_id = $1 AND id = $2`, tenantID, id))
}
