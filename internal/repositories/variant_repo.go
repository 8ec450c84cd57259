package repositories

import (
	"context"

	"digimall/internal/models"
	"digimall/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type VariantRepository interface {
	Create(ctx context.Context, variant *models.ProductVariant) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.ProductVariant, error)
	ListByProduct(ctx context.Context, tenantID, productID uuid.UUID) ([]*models.ProductVariant, error)
	Update(ctx context.Context, variant *models.ProductVariant) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	GetForSale(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*models.VariantForSale, error)
}

const variantColumns = `v.id, v.tenant_id, v.product_id, v.sku, v.name, v.options, v.stock, v.is_default, v.created_at, v.updated_at`

type variantRepo struct {
	db database.DBTX
}

func NewVariantRepo(db database.DBTX) VariantRepository {
	return &variantRepo{db: db}
}

func scanVariant(row rowScanner, extra ...any) (*models.ProductVariant, error) {
	v := &models.ProductVariant{}
	dest := append([]any{&v.ID, &v.TenantID, &v.ProductID, &v.SKU, &v.Name, &v.Options, &v.Stock,
		&v.IsDefault, &v.CreatedAt, &v.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, mapError(err)
	}
	return v, nil
}

func (r *variantRepo) Create(ctx context.Context, variant *models.ProductVariant) error {
	if variant.Options == nil {
		variant.Options = map[string]string{}
	}
	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if variant.IsDefault {
			if err := clearDefault(ctx, tx, variant); err != nil {
				return err
			}
		}
		query := `
			INSERT INTO product_variants (id, tenant_id, product_id, sku, name, options, stock, is_default, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
			RETURNING created_at, updated_at
		`
		err := tx.QueryRow(ctx, query, variant.ID, variant.TenantID, variant.ProductID, variant.SKU, variant.Name,
			variant.Options, variant.Stock, variant.IsDefault).Scan(&variant.CreatedAt, &variant.UpdatedAt)
		if err != nil {
			return mapError(err)
		}
		return insertPrices(ctx, tx, variant)
	})
}

func (r *variantRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.ProductVariant, error) {
	query := `SELECT ` + variantColumns + ` FROM product_variants v WHERE v.tenant_id = $1 AND v.id = $2`
	variant, err := scanVariant(database.Conn(ctx, r.db).QueryRow(ctx, query, tenantID, id))
	if err != nil {
		return nil, err
	}
	prices, err := r.pricesFor(ctx, tenantID, []uuid.UUID{variant.ID})
	if err != nil {
		return nil, err
	}
	variant.Prices = prices[variant.ID]
	return variant, nil
}

func (r *variantRepo) ListByProduct(ctx context.Context, tenantID, productID uuid.UUID) ([]*models.ProductVariant, error) {
	query := `SELECT ` + variantColumns + ` FROM product_variants v WHERE v.tenant_id = $1 AND v.product_id = $2 ORDER BY v.is_default DESC, v.sku`
	rows, err := database.Conn(ctx, r.db).Query(ctx, query, tenantID, productID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var variants []*models.ProductVariant
	var ids []uuid.UUID
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, err
		}
		variants = append(variants, v)
		ids = append(ids, v.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return variants, nil
	}

	prices, err := r.pricesFor(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	for _, v := range variants {
		v.Prices = prices[v.ID]
	}
	return variants, nil
}

func (r *variantRepo) Update(ctx context.Context, variant *models.ProductVariant) error {
	if variant.Options == nil {
		variant.Options = map[string]string{}
	}
	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if variant.IsDefault {
			if err := clearDefault(ctx, tx, variant); err != nil {
				return err
			}
		}
		query := `
			UPDATE product_variants
			SET sku = $3, name = $4, options = $5, stock = $6, is_default = $7, updated_at = NOW()
			WHERE tenant_id = $1 AND id = $2
		`
		if err := expectOne(tx.Exec(ctx, query, variant.TenantID, variant.ID, variant.SKU, variant.Name,
			variant.Options, variant.Stock, variant.IsDefault)); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM variant_prices WHERE tenant_id = $1 AND variant_id = $2`, variant.TenantID, variant.ID); err != nil {
			return mapError(err)
		}
		return insertPrices(ctx, tx, variant)
	})
}

func (r *variantRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return expectOne(database.Conn(ctx, r.db).Exec(ctx, `DELETE FROM product_variants WHERE tenant_id = $1 AND id = $2`, tenantID, id))
}

// GetForSale loads the requested variants with their prices and the status of
// their product and vendor. Missing ids are absent from the result.
func (r *variantRepo) GetForSale(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*models.VariantForSale, error) {
	query := `
		SELECT ` + variantColumns + `, p.name, p.status, vd.id, vd.status
		FROM product_variants v
		JOIN products p ON p.id = v.product_id AND p.tenant_id = v.tenant_id
		JOIN vendors vd ON vd.id = p.vendor_id AND vd.tenant_id = p.tenant_id
		WHERE v.tenant_id = $1 AND v.id = ANY($2)
	`
	rows, err := database.Conn(ctx, r.db).Query(ctx, query, tenantID, ids)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]*models.VariantForSale, len(ids))
	for rows.Next() {
		sale := &models.VariantForSale{}
		v, err := scanVariant(rows, &sale.ProductName, &sale.ProductStatus, &sale.VendorID, &sale.VendorStatus)
		if err != nil {
			return nil, err
		}
		sale.Variant = *v
		out[v.ID] = sale
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	prices, err := r.pricesFor(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	for id, sale := range out {
		sale.Variant.Prices = prices[id]
	}
	return out, nil
}

func (r *variantRepo) pricesFor(ctx context.Context, tenantID uuid.UUID, variantIDs []uuid.UUID) (map[uuid.UUID][]*models.Price, error) {
	query := `
		SELECT id, tenant_id, variant_id, currency, amount, compare_amount, min_quantity
		FROM variant_prices
		WHERE tenant_id = $1 AND variant_id = ANY($2)
		ORDER BY currency, min_quantity
	`
	rows, err := database.Conn(ctx, r.db).Query(ctx, query, tenantID, variantIDs)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := map[uuid.UUID][]*models.Price{}
	for rows.Next() {
		p := &models.Price{}
		if err := rows.Scan(&p.ID, &p.TenantID, &p.VariantID, &p.Currency, &p.Amount, &p.CompareAmount, &p.MinQuantity); err != nil {
			return nil, err
		}
		out[p.VariantID] = append(out[p.VariantID], p)
	}
	return out, rows.Err()
}

func clearDefault(ctx context.Context, tx pgx.Tx, variant *models.ProductVariant) error {
	_, err := tx.Exec(ctx, `UPDATE product_variants SET is_default = FALSE WHERE tenant_id = $1 AND product_id = $2 AND id <> $3`,
		variant.TenantID, variant.ProductID, variant.ID)
	return mapError(err)
}

func insertPrices(ctx context.Context, tx pgx.Tx, variant *models.ProductVariant) error {
	for _, p := range variant.Prices {
		p.ID = uuid.New()
		p.TenantID = variant.TenantID
		p.VariantID = variant.ID
		_, err := tx.Exec(ctx, `
			INSERT INTO variant_prices (id, tenant_id, variant_id, currency, amount, compare_amount, min_quantity)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, p.ID, p.TenantID, p.VariantID, p.Currency, p.Amount, p.CompareAmount, p.MinQuantity)
		if err != nil {
			return mapError(err)
		}
	}
	return nil
}
