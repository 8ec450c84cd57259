package repositories

import (
	"context"
	"strings"

	"digimall/internal/models"
	"digimall/pkg/database"

	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.User, error)
}

const userColumns = `id, tenant_id, email, password_hash, first_name, last_name, status, created_at, updated_at`

type userRepo struct {
	db database.DBTX
}

func NewUserRepo(db database.DBTX) UserRepository {
	return &userRepo{db: db}
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.TenantID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Status, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return u, nil
}

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	query := `
		INSERT INTO users (id, tenant_id, email, password_hash, first_name, last_name, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, user.ID, user.TenantID, user.Email, user.PasswordHash,
		user.FirstName, user.LastName, user.Status).Scan(&user.CreatedAt, &user.UpdatedAt)
	return mapError(err)
}

func (r *userRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE tenant_id = $1 AND id = $2`
	return scanUser(database.Conn(ctx, r.db).QueryRow(ctx, query, tenantID, id))
}

func (r *userRepo) GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE tenant_id = $1 AND email = $2`
	return scanUser(database.Conn(ctx, r.db).QueryRow(ctx, query, tenantID, strings.ToLower(strings.TrimSpace(email))))
}

func (r *userRepo) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users SET first_name = $3, last_name = $4, status = $5, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2
	`
	return expectOne(database.Conn(ctx, r.db).Exec(ctx, query, user.TenantID, user.ID, user.FirstName, user.LastName, user.Status))
}

func (r *userRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE tenant_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := database.Conn(ctx, r.db).Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
