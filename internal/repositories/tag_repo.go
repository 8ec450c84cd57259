package repositories

import (
	"context"

	"digimall/internal/models"
	"digimall/pkg/database"

	"github.com/google/uuid"
)

type TagRepository interface {
	Create(ctx context.Context, tag *models.Tag) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Tag, error)
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Tag, error)
	Update(ctx context.Context, tag *models.Tag) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

type tagRepo struct {
	db database.DBTX
}

func NewTagRepo(db database.DBTX) TagRepository {
	return &tagRepo{db: db}
}

func (r *tagRepo) Create(ctx context.Context, tag *models.Tag) error {
	query := `
		INSERT INTO tags (id, tenant_id, name, slug, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at
	`
	return mapError(database.Conn(ctx, r.db).QueryRow(ctx, query, tag.ID, tag.TenantID, tag.Name, tag.Slug).Scan(&tag.CreatedAt))
}

func (r *tagRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Tag, error) {
	tag := &models.Tag{}
	query := `SELECT id, tenant_id, name, slug, created_at FROM tags WHERE tenant_id = $1 AND id = $2`
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, tenantID, id).Scan(&tag.ID, &tag.TenantID, &tag.Name, &tag.Slug, &tag.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return tag, nil
}

func (r *tagRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Tag, error) {
	query := `SELECT id, tenant_id, name, slug, created_at FROM tags WHERE tenant_id = $1 ORDER BY name LIMIT $2 OFFSET $3`
	rows, err := database.Conn(ctx, r.db).Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var tags []*models.Tag
	for rows.Next() {
		tag := &models.Tag{}
		if err := rows.Scan(&tag.ID, &tag.TenantID, &tag.Name, &tag.Slug, &tag.CreatedAt); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func (r *tagRepo) Update(ctx context.Context, tag *models.Tag) error {
	query := `UPDATE tags SET name = $3, slug = $4 WHERE tenant_id = $1 AND id = $2`
	return expectOne(database.Conn(ctx, r.db).Exec(ctx, query, tag.TenantID, tag.ID, tag.Name, tag.Slug))
}

func (r *tagRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return expectOne(database.Conn(ctx, r.db).Exec(ctx, `DELETE FROM tags WHERE tenant_id = $1 AND id = $2`, tenantID, id))
}
