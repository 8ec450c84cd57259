package repositories

import (
	"context"

	"digimall/internal/models"
	"digimall/pkg/database"

	"github.com/google/uuid"
)

type RoleRepository interface {
	Create(ctx context.Context, role *models.Role) error
	GetByName(ctx context.Context, tenantID uuid.UUID, name string) (*models.Role, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]*models.Role, error)
}

type roleRepo struct {
	db database.DBTX
}

func NewRoleRepo(db database.DBTX) RoleRepository {
	return &roleRepo{db: db}
}

// Create inserts the role, or loads the existing one with the same name so
// seeding can be repeated.
func (r *roleRepo) Create(ctx context.Context, role *models.Role) error {
	query := `
		INSERT INTO roles (id, tenant_id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (tenant_id, name) DO UPDATE SET updated_at = roles.updated_at
		RETURNING id, created_at, updated_at
	`
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, role.ID, role.TenantID, role.Name, role.Description).
		Scan(&role.ID, &role.CreatedAt, &role.UpdatedAt)
	return mapError(err)
}

func (r *roleRepo) GetByName(ctx context.Context, tenantID uuid.UUID, name string) (*models.Role, error) {
	role := &models.Role{}
	query := `
		SELECT id, tenant_id, name, description, created_at, updated_at
		FROM roles
		WHERE tenant_id = $1 AND name = $2
	`
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, tenantID, name).Scan(&role.ID, &role.TenantID, &role.Name,
		&role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return role, nil
}

func (r *roleRepo) List(ctx context.Context, tenantID uuid.UUID) ([]*models.Role, error) {
	query := `
		SELECT id, tenant_id, name, description, created_at, updated_at
		FROM roles
		WHERE tenant_id = $1
		ORDER BY name
	`
	rows, err := database.Conn(ctx, r.db).Query(ctx, query, tenantID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var roles []*models.Role
	for rows.Next() {
		role := &models.Role{}
		if err := rows.Scan(&role.ID, &role.TenantID, &role.Name, &role.Description,
			&role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}
