package repositories

import (
	"context"
	"fmt"
	"time"

	"digimall/internal/common"
	"digimall/internal/models"
	"digimall/pkg/database"

	"github.com/google/uuid"
)

type VendorRepository interface {
	Create(ctx context.Context, vendor *models.Vendor) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Vendor, error)
	GetByUserID(ctx context.Context, tenantID, userID uuid.UUID) (*models.Vendor, error)
	List(ctx context.Context, tenantID uuid.UUID, filter models.VendorFilter) ([]*models.Vendor, int, error)
	UpdateProfile(ctx context.Context, vendor *models.Vendor) error
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, from, to string, reason *string, approvedAt *time.Time) error
}

const vendorColumns = `id, tenant_id, user_id, business_name, slug, description, contact_email, phone, status, status_reason, approved_at, created_at, updated_at`

type vendorRepo struct {
	db database.DBTX
}

func NewVendorRepo(db database.DBTX) VendorRepository {
	return &vendorRepo{db: db}
}

func scanVendor(row rowScanner) (*models.Vendor, error) {
	v := &models.Vendor{}
	err := row.Scan(&v.ID, &v.TenantID, &v.UserID, &v.BusinessName, &v.Slug, &v.Description,
		&v.ContactEmail, &v.Phone, &v.Status, &v.StatusReason, &v.ApprovedAt, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return v, nil
}

func (r *vendorRepo) Create(ctx context.Context, vendor *models.Vendor) error {
	query := `
		INSERT INTO vendors (id, tenant_id, user_id, business_name, slug, description, contact_email, phone, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, vendor.ID, vendor.TenantID, vendor.UserID, vendor.BusinessName, vendor.Slug,
		vendor.Description, vendor.ContactEmail, vendor.Phone, vendor.Status).Scan(&vendor.CreatedAt, &vendor.UpdatedAt)
	return mapError(err)
}

func (r *vendorRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Vendor, error) {
	query := `SELECT ` + vendorColumns + ` FROM vendors WHERE tenant_id = $1 AND id = $2`
	return scanVendor(database.Conn(ctx, r.db).QueryRow(ctx, query, tenantID, id))
}

func (r *vendorRepo) GetByUserID(ctx context.Context, tenantID, userID uuid.UUID) (*models.Vendor, error) {
	query := `SELECT ` + vendorColumns + ` FROM vendors WHERE tenant_id = $1 AND user_id = $2`
	return scanVendor(database.Conn(ctx, r.db).QueryRow(ctx, query, tenantID, userID))
}

func (r *vendorRepo) List(ctx context.Context, tenantID uuid.UUID, filter models.VendorFilter) ([]*models.Vendor, int, error) {
	where := " WHERE tenant_id = $1"
	args := []interface{}{tenantID}
	argCount := 1

	if filter.Status != "" {
		argCount++
		where += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filter.Status)
	}
	if filter.Query != "" {
		argCount++
		where += fmt.Sprintf(" AND business_name ILIKE $%d", argCount)
		args = append(args, "%"+filter.Query+"%")
	}

	var total int
	if err := database.Conn(ctx, r.db).QueryRow(ctx, `SELECT COUNT(*) FROM vendors`+where, args...).Scan(&total); err != nil {
		return nil, 0, mapError(err)
	}

	query := `SELECT ` + vendorColumns + ` FROM vendors` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argCount+1, argCount+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, mapError(err)
	}
	defer rows.Close()

	var vendors []*models.Vendor
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, 0, err
		}
		vendors = append(vendors, v)
	}
	return vendors, total, rows.Err()
}

func (r *vendorRepo) UpdateProfile(ctx context.Context, vendor *models.Vendor) error {
	query := `
		UPDATE vendors
		SET business_name = $3, description = $4, contact_email = $5, phone = $6, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2
	`
	return expectOne(database.Conn(ctx, r.db).Exec(ctx, query, vendor.TenantID, vendor.ID, vendor.BusinessName,
		vendor.Description, vendor.ContactEmail, vendor.Phone))
}

// UpdateStatus moves a vendor from one status to another. The update only
// applies while the row still holds from, so concurrent moderators cannot
// both succeed.
func (r *vendorRepo) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, from, to string, reason *string, approvedAt *time.Time) error {
	query := `
		UPDATE vendors
		SET status = $4, status_reason = $5, approved_at = COALESCE($6, approved_at), updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND status = $3
	`
	tag, err := database.Conn(ctx, r.db).Exec(ctx, query, tenantID, id, from, to, reason, approvedAt)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: vendor is no longer %s", common.ErrConflict, from)
	}
	return nil
}
