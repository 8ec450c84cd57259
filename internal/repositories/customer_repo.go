package repositories

import (
	"context"

	"digimall/internal/models"
	"digimall/pkg/database"

	"github.com/google/uuid"
)

type CustomerRepository interface {
	Create(ctx context.Context, customer *models.Customer) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Customer, error)
	GetByUserID(ctx context.Context, tenantID, userID uuid.UUID) (*models.Customer, error)
	Update(ctx context.Context, customer *models.Customer) error
}

const customerColumns = `id, tenant_id, user_id, phone, shipping_address, created_at, updated_at`

type customerRepo struct {
	db database.DBTX
}

func NewCustomerRepo(db database.DBTX) CustomerRepository {
	return &customerRepo{db: db}
}

func scanCustomer(row rowScanner) (*models.Customer, error) {
	c := &models.Customer{}
	err := row.Scan(&c.ID, &c.TenantID, &c.UserID, &c.Phone, &c.ShippingAddress, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return c, nil
}

func (r *customerRepo) Create(ctx context.Context, customer *models.Customer) error {
	query := `
		INSERT INTO customers (id, tenant_id, user_id, phone, shipping_address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, customer.ID, customer.TenantID, customer.UserID, customer.Phone,
		customer.ShippingAddress).Scan(&customer.CreatedAt, &customer.UpdatedAt)
	return mapError(err)
}

func (r *customerRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE tenant_id = $1 AND id = $2`
	return scanCustomer(database.Conn(ctx, r.db).QueryRow(ctx, query, tenantID, id))
}

func (r *customerRepo) GetByUserID(ctx context.Context, tenantID, userID uuid.UUID) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE tenant_id = $1 AND user_id = $2`
	return scanCustomer(database.Conn(ctx, r.db).QueryRow(ctx, query, tenantID, userID))
}

func (r *customerRepo) Update(ctx context.Context, customer *models.Customer) error {
	query := `
		UPDATE customers SET phone = $3, shipping_address = $4, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2
	`
	return expectOne(database.Conn(ctx, r.db).Exec(ctx, query, customer.TenantID, customer.ID, customer.Phone, customer.ShippingAddress))
}
