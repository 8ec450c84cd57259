package repositories

import (
	"context"

	"digimall/internal/common"
	"digimall/pkg/database"

	"github.com/google/uuid"
)

type UserRoleRepository interface {
	Assign(ctx context.Context, tenantID, userID uuid.UUID, roleName string) error
	Revoke(ctx context.Context, tenantID, userID uuid.UUID, roleName string) error
	ListRoleNames(ctx context.Context, tenantID, userID uuid.UUID) ([]string, error)
	ListPermissionNames(ctx context.Context, tenantID, userID uuid.UUID) ([]string, error)
	HasPermission(ctx context.Context, tenantID, userID uuid.UUID, permission string) (bool, error)
}

type userRoleRepo struct {
	db database.DBTX
}

func NewUserRoleRepo(db database.DBTX) UserRoleRepository {
	return &userRoleRepo{db: db}
}

func (r *userRoleRepo) Assign(ctx context.Context, tenantID, userID uuid.UUID, roleName string) error {
	query := `
		INSERT INTO user_roles (user_id, role_id, tenant_id, created_at)
		SELECT u.id, ro.id, $1, NOW()
		FROM users u
		JOIN roles ro ON ro.tenant_id = u.tenant_id AND ro.name = $3
		WHERE u.tenant_id = $1 AND u.id = $2
		ON CONFLICT (user_id, role_id) DO NOTHING
	`
	tag, err := database.Conn(ctx, r.db).Exec(ctx, query, tenantID, userID, roleName)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		// Either already assigned or the user/role does not exist in this tenant.
		var exists bool
		check := `
			SELECT EXISTS (
				SELECT 1 FROM users u JOIN roles ro ON ro.tenant_id = u.tenant_id AND ro.name = $3
				WHERE u.tenant_id = $1 AND u.id = $2
			)
		`
		if err := database.Conn(ctx, r.db).QueryRow(ctx, check, tenantID, userID, roleName).Scan(&exists); err != nil {
			return mapError(err)
		}
		if !exists {
			return common.ErrNotFound
		}
	}
	return nil
}

func (r *userRoleRepo) Revoke(ctx context.Context, tenantID, userID uuid.UUID, roleName string) error {
	query := `
		DELETE FROM user_roles ur
		USING roles ro
		WHERE ur.role_id = ro.id AND ro.name = $3 AND ur.tenant_id = $1 AND ur.user_id = $2
	`
	_, err := database.Conn(ctx, r.db).Exec(ctx, query, tenantID, userID, roleName)
	return mapError(err)
}

func (r *userRoleRepo) ListRoleNames(ctx context.Context, tenantID, userID uuid.UUID) ([]string, error) {
	query := `
		SELECT ro.name FROM user_roles ur
		JOIN roles ro ON ro.id = ur.role_id
		WHERE ur.tenant_id = $1 AND ur.user_id = $2
		ORDER BY ro.name
	`
	return r.listNames(ctx, query, tenantID, userID)
}

func (r *userRoleRepo) ListPermissionNames(ctx context.Context, tenantID, userID uuid.UUID) ([]string, error) {
	query := `
		SELECT DISTINCT p.name FROM user_roles ur
		JOIN role_permissions rp ON rp.role_id = ur.role_id
		JOIN permissions p ON p.id = rp.permission_id
		WHERE ur.tenant_id = $1 AND ur.user_id = $2
		ORDER BY p.name
	`
	return r.listNames(ctx, query, tenantID, userID)
}

func (r *userRoleRepo) HasPermission(ctx context.Context, tenantID, userID uuid.UUID, permission string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM user_roles ur
			JOIN role_permissions rp ON rp.role_id = ur.role_id
			JOIN permissions p ON p.id = rp.permission_id
			WHERE ur.tenant_id = $1 AND ur.user_id = $2 AND p.name = $3
		)
	`
	var ok bool
	if err := database.Conn(ctx, r.db).QueryRow(ctx, query, tenantID, userID, permission).Scan(&ok); err != nil {
		return false, mapError(err)
	}
	return ok, nil
}

func (r *userRoleRepo) listNames(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := database.Conn(ctx, r.db).Query(ctx, query, args...)
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
