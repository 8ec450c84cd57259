package repositories

import (
	"context"

	"digimall/pkg/database"

	"github.com/google/uuid"
)

type RolePermissionRepository interface {
	Grant(ctx context.Context, roleID uuid.UUID, permissionName string) error
	ListPermissionNames(ctx context.Context, roleID uuid.UUID) ([]string, error)
}

type rolePermissionRepo struct {
	db database.DBTX
}

func NewRolePermissionRepo(db database.DBTX) RolePermissionRepository {
	return &rolePermissionRepo{db: db}
}

func (r *rolePermissionRepo) Grant(ctx context.Context, roleID uuid.UUID, permissionName string) error {
	query := `
		INSERT INTO role_permissions (role_id, permission_id, created_at)
		SELECT $1, p.id, NOW() FROM permissions p WHERE p.name = $2
		ON CONFLICT (role_id, permission_id) DO NOTHING
	`
	_, err := database.Conn(ctx, r.db).Exec(ctx, query, roleID, permissionName)
	return mapError(err)
}

func (r *rolePermissionRepo) ListPermissionNames(ctx context.Context, roleID uuid.UUID) ([]string, error) {
	query := `
		SELECT p.name FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = $1
		ORDER BY p.name
	`
	rows, err := database.Conn(ctx, r.db).Query(ctx, query, roleID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
