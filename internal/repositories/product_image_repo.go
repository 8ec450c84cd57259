package repositories

import (
	"context"

	"digimall/internal/models"
	"digimall/pkg/database"

	"github.com/google/uuid"
)

type ProductImageRepository interface {
	Create(ctx context.Context, image *models.ProductImage) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.ProductImage, error)
	ListByProduct(ctx context.Context, tenantID, productID uuid.UUID) ([]*models.ProductImage, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

const imageColumns = `id, tenant_id, product_id, object_key, file_name, content_type, size, position, created_at`

type productImageRepo struct {
	db database.DBTX
}

func NewProductImageRepo(db database.DBTX) ProductImageRepository {
	return &productImageRepo{db: db}
}

func scanImage(row rowScanner) (*models.ProductImage, error) {
	img := &models.ProductImage{}
	err := row.Scan(&img.ID, &img.TenantID, &img.ProductID, &img.ObjectKey, &img.FileName, &img.ContentType,
		&img.Size, &img.Position, &img.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return img, nil
}

// Create appends the image after the product's existing images.
func (r *productImageRepo) Create(ctx context.Context, image *models.ProductImage) error {
	query := `
		INSERT INTO product_images (id, tenant_id, product_id, object_key, file_name, content_type, size, position, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7,
			(SELECT COALESCE(MAX(position) + 1, 0) FROM product_images WHERE tenant_id = $2 AND product_id = $3), NOW())
		RETURNING position, created_at
	`
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, image.ID, image.TenantID, image.ProductID, image.ObjectKey, image.FileName,
		image.ContentType, image.Size).Scan(&image.Position, &image.CreatedAt)
	return mapError(err)
}

func (r *productImageRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.ProductImage, error) {
	query := `SELECT ` + imageColumns + ` FROM product_images WHERE tenant_id = $1 AND id = $2`
	return scanImage(database.Conn(ctx, r.db).QueryRow(ctx, query, tenantID, id))
}

func (r *productImageRepo) ListByProduct(ctx context.Context, tenantID, productID uuid.UUID) ([]*models.ProductImage, error) {
	query := `SELECT ` + imageColumns + ` FROM product_images WHERE tenant_id = $1 AND product_id = $2 ORDER BY position`
	rows, err := database.Conn(ctx, r.db).Query(ctx, query, tenantID, productID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var images []*models.ProductImage
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func (r *productImageRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return expectOne(database.Conn(ctx, r.db).Exec(ctx, `DELETE FROM product_images WHERE tenant_id = $1 AND id = $2`, tenantID, id))
}
