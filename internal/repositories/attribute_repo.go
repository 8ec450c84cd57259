package repositories

import (
	"context"

	"digimall/internal/models"
	"digimall/pkg/database"

	"github.com/google/uuid"
)

type AttributeRepository interface {
	Create(ctx context.Context, attribute *models.Attribute) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Attribute, error)
	GetByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*models.Attribute, error)
	List(ctx context.Context, tenantID uuid.UUID, filterableOnly bool) ([]*models.Attribute, error)
	Update(ctx context.Context, attribute *models.Attribute) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

const attributeColumns = `id, tenant_id, name, handle, type, values, filterable, created_at, updated_at`

type attributeRepo struct {
	db database.DBTX
}

func NewAttributeRepo(db database.DBTX) AttributeRepository {
	return &attributeRepo{db: db}
}

func scanAttribute(row rowScanner) (*models.Attribute, error) {
	a := &models.Attribute{}
	if err := row.Scan(&a.ID, &a.TenantID, &a.Name, &a.Handle, &a.Type, &a.Values, &a.Filterable,
		&a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, mapError(err)
	}
	return a, nil
}

func (r *attributeRepo) Create(ctx context.Context, attribute *models.Attribute) error {
	if attribute.Values == nil {
		attribute.Values = []string{}
	}
	query := `
		INSERT INTO attributes (id, tenant_id, name, handle, type, values, filterable, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, attribute.ID, attribute.TenantID, attribute.Name, attribute.Handle,
		attribute.Type, attribute.Values, attribute.Filterable).Scan(&attribute.CreatedAt, &attribute.UpdatedAt)
	return mapError(err)
}

func (r *attributeRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Attribute, error) {
	query := `SELECT ` + attributeColumns + ` FROM attributes WHERE tenant_id = $1 AND id = $2`
	return scanAttribute(database.Conn(ctx, r.db).QueryRow(ctx, query, tenantID, id))
}

func (r *attributeRepo) GetByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*models.Attribute, error) {
	query := `SELECT ` + attributeColumns + ` FROM attributes WHERE tenant_id = $1 AND id = ANY($2)`
	return r.query(ctx, query, tenantID, ids)
}

func (r *attributeRepo) List(ctx context.Context, tenantID uuid.UUID, filterableOnly bool) ([]*models.Attribute, error) {
	query := `SELECT ` + attributeColumns + ` FROM attributes WHERE tenant_id = $1`
	if filterableOnly {
		query += ` AND filterable = TRUE`
	}
	query += ` ORDER BY name`
	return r.query(ctx, query, tenantID)
}

func (r *attributeRepo) Update(ctx context.Context, attribute *models.Attribute) error {
	if attribute.Values == nil {
		attribute.Values = []string{}
	}
	query := `
		UPDATE attributes SET name = $3, handle = $4, type = $5, values = $6, filterable = $7, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2
	`
	return expectOne(database.Conn(ctx, r.db).Exec(ctx, query, attribute.TenantID, attribute.ID, attribute.Name, attribute.Handle,
		attribute.Type, attribute.Values, attribute.Filterable))
}

func (r *attributeRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return expectOne(database.Conn(ctx, r.db).Exec(ctx, `DELETE FROM attributes WHERE tenant_id = $1 AND id = $2`, tenantID, id))
}

func (r *attributeRepo) query(ctx context.Context, query string, args ...any) ([]*models.Attribute, error) {
	rows, err := database.Conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var attributes []*models.Attribute
	for rows.Next() {
		a, err := scanAttribute(rows)
		if err != nil {
			return nil, err
		}
		attributes = append(attributes, a)
	}
	return attributes, rows.Err()
}
