package repositories

import (
	"context"

	"digimall/internal/models"
	"digimall/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type CollectionRepository interface {
	Create(ctx context.Context, collection *models.Collection) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Collection, error)
	GetBySlug(ctx context.Context, tenantID uuid.UUID, slug string) (*models.Collection, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]*models.Collection, error)
	ListChildren(ctx context.Context, tenantID uuid.UUID, parentID *uuid.UUID) ([]*models.Collection, error)
	CountChildren(ctx context.Context, tenantID, id uuid.UUID) (int, error)
	UpdateHierarchy(ctx context.Context, collection *models.Collection, oldPath string, oldLevel int) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

const collectionColumns = `id, tenant_id, parent_id, name, slug, description, level, path, created_at, updated_at`

type collectionRepo struct {
	db database.DBTX
}

func NewCollectionRepo(db database.DBTX) CollectionRepository {
	return &collectionRepo{db: db}
}

func scanCollection(row rowScanner) (*models.Collection, error) {
	c := &models.Collection{}
	err := row.Scan(&c.ID, &c.TenantID, &c.ParentID, &c.Name, &c.Slug, &c.Description,
		&c.Level, &c.Path, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return c, nil
}

// Create inserts a collection. Level and Path must already be derived from
// the parent.
func (r *collectionRepo) Create(ctx context.Context, collection *models.Collection) error {
	query := `
		INSERT INTO collections (id, tenant_id, parent_id, name, slug, description, level, path, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, collection.ID, collection.TenantID, collection.ParentID, collection.Name,
		collection.Slug, collection.Description, collection.Level, collection.Path).
		Scan(&collection.CreatedAt, &collection.UpdatedAt)
	return mapError(err)
}

func (r *collectionRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Collection, error) {
	query := `SELECT ` + collectionColumns + ` FROM collections WHERE tenant_id = $1 AND id = $2`
	return scanCollection(database.Conn(ctx, r.db).QueryRow(ctx, query, tenantID, id))
}

func (r *collectionRepo) GetBySlug(ctx context.Context, tenantID uuid.UUID, slug string) (*models.Collection, error) {
	query := `SELECT ` + collectionColumns + ` FROM collections WHERE tenant_id = $1 AND slug = $2`
	return scanCollection(database.Conn(ctx, r.db).QueryRow(ctx, query, tenantID, slug))
}

// List returns every collection of the tenant ordered by path, which puts
// parents before their children.
func (r *collectionRepo) List(ctx context.Context, tenantID uuid.UUID) ([]*models.Collection, error) {
	query := `SELECT ` + collectionColumns + ` FROM collections WHERE tenant_id = $1 ORDER BY path`
	return r.query(ctx, query, tenantID)
}

func (r *collectionRepo) ListChildren(ctx context.Context, tenantID uuid.UUID, parentID *uuid.UUID) ([]*models.Collection, error) {
	if parentID == nil {
		query := `SELECT ` + collectionColumns + ` FROM collections WHERE tenant_id = $1 AND parent_id IS NULL ORDER BY name`
		return r.query(ctx, query, tenantID)
	}
	query := `SELECT ` + collectionColumns + ` FROM collections WHERE tenant_id = $1 AND parent_id = $2 ORDER BY name`
	return r.query(ctx, query, tenantID, *parentID)
}

func (r *collectionRepo) CountChildren(ctx context.Context, tenantID, id uuid.UUID) (int, error) {
	var count int
	err := database.Conn(ctx, r.db).QueryRow(ctx, `SELECT COUNT(*) FROM collections WHERE tenant_id = $1 AND parent_id = $2`, tenantID, id).Scan(&count)
	return count, mapError(err)
}

// UpdateHierarchy saves the collection and rewrites the path and level of
// every descendant in the same transaction.
func (r *collectionRepo) UpdateHierarchy(ctx context.Context, collection *models.Collection, oldPath string, oldLevel int) error {
	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		update := `
			UPDATE collections
			SET parent_id = $3, name = $4, slug = $5, description = $6, level = $7, path = $8, updated_at = NOW()
			WHERE tenant_id = $1 AND id = $2
		`
		if err := expectOne(tx.Exec(ctx, update, collection.TenantID, collection.ID, collection.ParentID,
			collection.Name, collection.Slug, collection.Description, collection.Level, collection.Path)); err != nil {
			return err
		}

		if oldPath == collection.Path && oldLevel == collection.Level {
			return nil
		}
		descendants := `
			UPDATE collections
			SET path = $3 || substr(path, length($2) + 1), level = level + $4, updated_at = NOW()
			WHERE tenant_id = $1 AND path LIKE $2 || '/%'
		`
		_, err := tx.Exec(ctx, descendants, collection.TenantID, oldPath, collection.Path, collection.Level-oldLevel)
		return mapError(err)
	})
}

func (r *collectionRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return expectOne(database.Conn(ctx, r.db).Exec(ctx, `DELETE FROM collections WHERE tenant_id = $1 AND id = $2`, tenantID, id))
}

func (r *collectionRepo) query(ctx context.Context, query string, args ...any) ([]*models.Collection, error) {
	rows, err := database.Conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var collections []*models.Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		collections = append(collections, c)
	}
	return collections, rows.Err()
}
