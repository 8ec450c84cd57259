package repositories

import (
	"context"

	"digimall/internal/models"
	"digimall/pkg/database"
)

type PermissionRepository interface {
	List(ctx context.Context) ([]*models.Permission, error)
	GetByName(ctx context.Context, name string) (*models.Permission, error)
}

type permissionRepo struct {
	db database.DBTX
}

func NewPermissionRepo(db database.DBTX) PermissionRepository {
	return &permissionRepo{db: db}
}

func (r *permissionRepo) List(ctx context.Context) ([]*models.Permission, error) {
	rows, err := database.Conn(ctx, r.db).Query(ctx, `SELECT id, name, description, created_at FROM permissions ORDER BY name`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var permissions []*models.Permission
	for rows.Next() {
		p := &models.Permission{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt); err != nil {
			return nil, err
		}
		permissions = append(permissions, p)
	}
	return permissions, rows.Err()
}

func (r *permissionRepo) GetByName(ctx context.Context, name string) (*models.Permission, error) {
	p := &models.Permission{}
	err := database.Conn(ctx, r.db).QueryRow(ctx, `SELECT id, name, description, created_at FROM permissions WHERE name = $1`, name).
		Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return p, nil
}
