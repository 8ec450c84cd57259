package repositories

import (
	"context"
	"fmt"
	"strings"

	"digimall/internal/models"
	"digimall/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Product, error)
	GetBySlug(ctx context.Context, tenantID uuid.UUID, slug string) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	Search(ctx context.Context, tenantID uuid.UUID, filter *models.ProductSearchFilter) ([]*models.Product, int, error)
	ListExportRows(ctx context.Context, tenantID, vendorID uuid.UUID) ([]*models.CatalogExportRow, error)
}

const productColumns = `p.id, p.tenant_id, p.vendor_id, p.brand_id, p.name, p.slug, p.description, p.status, p.created_at, p.updated_at`

type productRepo struct {
	db database.DBTX
}

func NewProductRepo(db database.DBTX) ProductRepository {
	return &productRepo{db: db}
}

func scanProduct(row rowScanner) (*models.Product, error) {
	p := &models.Product{}
	err := row.Scan(&p.ID, &p.TenantID, &p.VendorID, &p.BrandID, &p.Name, &p.Slug, &p.Description,
		&p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return p, nil
}

func (r *productRepo) Create(ctx context.Context, product *models.Product) error {
	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO products (id, tenant_id, vendor_id, brand_id, name, slug, description, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
			RETURNING created_at, updated_at
		`
		err := tx.QueryRow(ctx, query, product.ID, product.TenantID, product.VendorID, product.BrandID, product.Name,
			product.Slug, product.Description, product.Status).Scan(&product.CreatedAt, &product.UpdatedAt)
		if err != nil {
			return mapError(err)
		}
		return replaceRelations(ctx, tx, product)
	})
}

func (r *productRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.tenant_id = $1 AND p.id = $2`
	product, err := scanProduct(database.Conn(ctx, r.db).QueryRow(ctx, query, tenantID, id))
	if err != nil {
		return nil, err
	}
	return product, r.loadRelations(ctx, product)
}

func (r *productRepo) GetBySlug(ctx context.Context, tenantID uuid.UUID, slug string) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.tenant_id = $1 AND p.slug = $2`
	product, err := scanProduct(database.Conn(ctx, r.db).QueryRow(ctx, query, tenantID, slug))
	if err != nil {
		return nil, err
	}
	return product, r.loadRelations(ctx, product)
}

func (r *productRepo) Update(ctx context.Context, product *models.Product) error {
	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			UPDATE products
			SET brand_id = $3, name = $4, slug = $5, description = $6, status = $7, updated_at = NOW()
			WHERE tenant_id = $1 AND id = $2
			RETURNING updated_at
		`
		err := tx.QueryRow(ctx, query, product.TenantID, product.ID, product.BrandID, product.Name, product.Slug,
			product.Description, product.Status).Scan(&product.UpdatedAt)
		if err != nil {
			return mapError(err)
		}
		return replaceRelations(ctx, tx, product)
	})
}

func (r *productRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return expectOne(database.Conn(ctx, r.db).Exec(ctx, `DELETE FROM products WHERE tenant_id = $1 AND id = $2`, tenantID, id))
}

// Search lists products matching filter and returns the unpaginated total.
func (r *productRepo) Search(ctx context.Context, tenantID uuid.UUID, filter *models.ProductSearchFilter) ([]*models.Product, int, error) {
	where := ` WHERE p.tenant_id = $1`
	args := []interface{}{tenantID}
	conditionCount := 1

	if filter.PublicOnly {
		where += ` AND p.status = 'published' AND EXISTS (
			SELECT 1 FROM vendors v WHERE v.id = p.vendor_id AND v.tenant_id = p.tenant_id AND v.status = 'approved'
		)`
	} else if filter.Status != "" {
		conditionCount++
		where += fmt.Sprintf(` AND p.status = $%d`, conditionCount)
		args = append(args, filter.Status)
	}

	if filter.Query != "" {
		conditionCount++
		where += fmt.Sprintf(` AND (
			p.name ILIKE $%d OR
			COALESCE(p.description, '') ILIKE $%d OR
			EXISTS (SELECT 1 FROM product_variants pv WHERE pv.product_id = p.id AND pv.sku ILIKE $%d)
		)`, conditionCount, conditionCount, conditionCount)
		args = append(args, "%"+filter.Query+"%")
	}
	if filter.VendorID != nil {
		conditionCount++
		where += fmt.Sprintf(` AND p.vendor_id = $%d`, conditionCount)
		args = append(args, *filter.VendorID)
	}
	if filter.BrandID != nil {
		conditionCount++
		where += fmt.Sprintf(` AND p.brand_id = $%d`, conditionCount)
		args = append(args, *filter.BrandID)
	}
	if filter.CollectionID != nil {
		// Includes products filed under any descendant collection.
		conditionCount++
		where += fmt.Sprintf(` AND EXISTS (
			SELECT 1 FROM product_collections pc
			JOIN collections c ON c.id = pc.collection_id
			JOIN collections root ON root.id = $%d AND root.tenant_id = p.tenant_id
			WHERE pc.product_id = p.id AND (c.id = root.id OR c.path LIKE root.path || '/%%')
		)`, conditionCount)
		args = append(args, *filter.CollectionID)
	}
	if filter.TagID != nil {
		conditionCount++
		where += fmt.Sprintf(` AND EXISTS (SELECT 1 FROM product_tags pt WHERE pt.product_id = p.id AND pt.tag_id = $%d)`, conditionCount)
		args = append(args, *filter.TagID)
	}
	if filter.MinPrice != nil || filter.MaxPrice != nil {
		conditionCount++
		priceCond := fmt.Sprintf(`vp.currency = $%d AND vp.min_quantity = 1`, conditionCount)
		args = append(args, filter.Currency)
		if filter.MinPrice != nil {
			conditionCount++
			priceCond += fmt.Sprintf(` AND vp.amount >= $%d`, conditionCount)
			args = append(args, *filter.MinPrice)
		}
		if filter.MaxPrice != nil {
			conditionCount++
			priceCond += fmt.Sprintf(` AND vp.amount <= $%d`, conditionCount)
			args = append(args, *filter.MaxPrice)
		}
		where += ` AND EXISTS (
			SELECT 1 FROM product_variants pv JOIN variant_prices vp ON vp.variant_id = pv.id
			WHERE pv.product_id = p.id AND ` + priceCond + `)`
	}

	var total int
	if err := database.Conn(ctx, r.db).QueryRow(ctx, `SELECT COUNT(*) FROM products p`+where, args...).Scan(&total); err != nil {
		return nil, 0, mapError(err)
	}

	sortField := "p.created_at"
	if filter.SortBy == "name" {
		sortField = "p.name"
	}
	sortOrder := "DESC"
	if strings.ToLower(filter.SortOrder) == "asc" {
		sortOrder = "ASC"
	}

	query := `SELECT ` + productColumns + ` FROM products p` + where +
		fmt.Sprintf(` ORDER BY %s %s, p.id LIMIT $%d OFFSET $%d`, sortField, sortOrder, conditionCount+1, conditionCount+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, mapError(err)
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

// ListExportRows returns one row per variant of the vendor's catalog with its
// lowest price tier.
func (r *productRepo) ListExportRows(ctx context.Context, tenantID, vendorID uuid.UUID) ([]*models.CatalogExportRow, error) {
	query := `
		SELECT p.name, p.slug, p.status, v.sku, v.name, v.stock,
			COALESCE(vp.currency, ''), COALESCE(vp.amount, 0), COALESCE(vp.min_quantity, 0)
		FROM products p
		JOIN product_variants v ON v.product_id = p.id AND v.tenant_id = p.tenant_id
		LEFT JOIN LATERAL (
			SELECT currency, amount, min_quantity FROM variant_prices
			WHERE variant_id = v.id ORDER BY min_quantity, currency LIMIT 1
		) vp ON TRUE
		WHERE p.tenant_id = $1 AND p.vendor_id = $2
		ORDER BY p.name, v.sku
	`
	rows, err := database.Conn(ctx, r.db).Query(ctx, query, tenantID, vendorID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []*models.CatalogExportRow
	for rows.Next() {
		row := &models.CatalogExportRow{}
		if err := rows.Scan(&row.ProductName, &row.ProductSlug, &row.Status, &row.SKU, &row.VariantName,
			&row.Stock, &row.Currency, &row.Amount, &row.MinQuantity); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *productRepo) loadRelations(ctx context.Context, product *models.Product) error {
	product.CollectionIDs = []uuid.UUID{}
	product.TagIDs = []uuid.UUID{}
	product.AttributeValues = map[string]string{}

	rows, err := database.Conn(ctx, r.db).Query(ctx, `SELECT collection_id FROM product_collections WHERE product_id = $1`, product.ID)
	if err != nil {
		return mapError(err)
	}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		product.CollectionIDs = append(product.CollectionIDs, id)
	}
	rows.Close()

	rows, err = database.Conn(ctx, r.db).Query(ctx, `SELECT tag_id FROM product_tags WHERE product_id = $1`, product.ID)
	if err != nil {
		return mapError(err)
	}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		product.TagIDs = append(product.TagIDs, id)
	}
	rows.Close()

	rows, err = database.Conn(ctx, r.db).Query(ctx, `SELECT attribute_id, value FROM product_attribute_values WHERE product_id = $1`, product.ID)
	if err != nil {
		return mapError(err)
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		var value string
		if err := rows.Scan(&id, &value); err != nil {
			return err
		}
		product.AttributeValues[id.String()] = value
	}
	return rows.Err()
}

func replaceRelations(ctx context.Context, tx pgx.Tx, product *models.Product) error {
	for _, stmt := range []string{
		`DELETE FROM product_collections WHERE product_id = $1`,
		`DELETE FROM product_tags WHERE product_id = $1`,
		`DELETE FROM product_attribute_values WHERE product_id = $1`,
	} {
		if _, err := tx.Exec(ctx, stmt, product.ID); err != nil {
			return mapError(err)
		}
	}

	for _, id := range product.CollectionIDs {
		_, err := tx.Exec(ctx, `INSERT INTO product_collections (product_id, collection_id, tenant_id) VALUES ($1, $2, $3)`,
			product.ID, id, product.TenantID)
		if err != nil {
			return mapError(err)
		}
	}
	for _, id := range product.TagIDs {
		_, err := tx.Exec(ctx, `INSERT INTO product_tags (product_id, tag_id, tenant_id) VALUES ($1, $2, $3)`,
			product.ID, id, product.TenantID)
		if err != nil {
			return mapError(err)
		}
	}
	for attrID, value := range product.AttributeValues {
		id, err := uuid.Parse(attrID)
		if err != nil {
			return fmt.Errorf("invalid attribute id %q: %w", attrID, err)
		}
		_, err = tx.Exec(ctx, `INSERT INTO product_attribute_values (product_id, attribute_id, tenant_id, value) VALUES ($1, $2, $3, $4)`,
			product.ID, id, product.TenantID, value)
		if err != nil {
			return mapError(err)
		}
	}
	return nil
}
