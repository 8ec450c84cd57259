package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"digimall/internal/caching"
	"digimall/internal/common"
	"digimall/internal/models"
	"digimall/internal/repositories"
	"digimall/pkg/database"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	productCacheTTL = 10 * time.Minute
	imageURLExpiry  = time.Hour
	maxImageSize    = 10 << 20
)

// maxMoneyAmount is the exclusive upper bound of a NUMERIC(12,2) column.
var maxMoneyAmount = decimal.New(1, 10)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

type ProductService interface {
	// Storefront
	SearchPublic(ctx context.Context, tenant *models.Tenant, filter *models.ProductSearchFilter) ([]*models.Product, int, error)
	GetPublic(ctx context.Context, tenantID, id uuid.UUID) (*models.Product, error)
	GetPublicBySlug(ctx context.Context, tenantID uuid.UUID, slug string) (*models.Product, error)

	// Administration
	Search(ctx context.Context, tenantID uuid.UUID, filter *models.ProductSearchFilter) ([]*models.Product, int, error)

	// Vendor catalog management
	ListOwn(ctx context.Context, tenantID, userID uuid.UUID, filter *models.ProductSearchFilter) ([]*models.Product, int, error)
	GetOwn(ctx context.Context, tenantID, userID, id uuid.UUID) (*models.Product, error)
	Create(ctx context.Context, tenantID, userID uuid.UUID, product *models.Product) error
	Update(ctx context.Context, tenantID, userID uuid.UUID, product *models.Product) error
	Delete(ctx context.Context, tenantID, userID, id uuid.UUID) error

	ListVariants(ctx context.Context, tenantID, userID, productID uuid.UUID) ([]*models.ProductVariant, error)
	CreateVariant(ctx context.Context, tenantID, userID, productID uuid.UUID, variant *models.ProductVariant) error
	UpdateVariant(ctx context.Context, tenantID, userID, productID uuid.UUID, variant *models.ProductVariant) error
	DeleteVariant(ctx context.Context, tenantID, userID, productID, variantID uuid.UUID) error

	UploadProductImage(ctx context.Context, tenantID, userID, productID uuid.UUID, filename, contentType string, reader io.Reader, size int64) (*models.ProductImage, error)
	GetProductImages(ctx context.Context, tenantID, userID, productID uuid.UUID) ([]*models.ProductImage, error)
	DeleteProductImage(ctx context.Context, tenantID, userID, productID, imageID uuid.UUID) error
}

type productService struct {
	productRepo      repositories.ProductRepository
	variantRepo      repositories.VariantRepository
	productImageRepo repositories.ProductImageRepository
	vendorRepo       repositories.VendorRepository
	brandRepo        repositories.BrandRepository
	collectionRepo   repositories.CollectionRepository
	tagRepo          repositories.TagRepository
	attributeRepo    repositories.AttributeRepository
	minioService     MinioService
	imageBucket      string
	cacheService     caching.CacheService
	tx               database.Transactor
	logger           *zap.Logger
}

// ProductDeps groups the collaborators of the product service.
type ProductDeps struct {
	Products    repositories.ProductRepository
	Variants    repositories.VariantRepository
	Images      repositories.ProductImageRepository
	Vendors     repositories.VendorRepository
	Brands      repositories.BrandRepository
	Collections repositories.CollectionRepository
	Tags        repositories.TagRepository
	Attributes  repositories.AttributeRepository
	Minio       MinioService
	ImageBucket string
	Cache       caching.CacheService
	Tx          database.Transactor
	Logger      *zap.Logger
}

func NewProductService(deps ProductDeps) ProductService {
	return &productService{
		productRepo:      deps.Products,
		variantRepo:      deps.Variants,
		productImageRepo: deps.Images,
		vendorRepo:       deps.Vendors,
		brandRepo:        deps.Brands,
		collectionRepo:   deps.Collections,
		tagRepo:          deps.Tags,
		attributeRepo:    deps.Attributes,
		minioService:     deps.Minio,
		imageBucket:      deps.ImageBucket,
		cacheService:     deps.Cache,
		tx:               deps.Tx,
		logger:           deps.Logger,
	}
}

// --- storefront ---

func normalizeSearch(filter *models.ProductSearchFilter) error {
	limit, offset, err := common.ValidatePaginationParams(filter.Limit, filter.Offset)
	if err != nil {
		return common.FieldError("offset", err.Error())
	}
	filter.Limit, filter.Offset = limit, offset
	filter.Query = common.SanitizeSearchQuery(filter.Query)
	filter.SortOrder = common.ValidateSortOrder(filter.SortOrder)
	switch filter.SortBy {
	case "", "created_at", "name":
	default:
		return common.FieldError("sort_by", "sort_by must be name or created_at")
	}

	v := common.NewValidationError()
	if filter.MinPrice != nil && filter.MinPrice.IsNegative() {
		v.Add("min_price", "min_price cannot be negative")
	}
	if filter.MaxPrice != nil && filter.MaxPrice.IsNegative() {
		v.Add("max_price", "max_price cannot be negative")
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		v.Add("min_price", "min_price cannot exceed max_price")
	}
	if filter.Status != "" && !models.IsValidProductStatus(filter.Status) {
		v.Add("status", "unknown product status")
	}
	return v.OrNil()
}

func (s *productService) SearchPublic(ctx context.Context, tenant *models.Tenant, filter *models.ProductSearchFilter) ([]*models.Product, int, error) {
	if err := normalizeSearch(filter); err != nil {
		return nil, 0, err
	}
	filter.PublicOnly = true
	filter.Status = models.ProductStatusPublished
	filter.Currency = tenant.Currency
	return s.productRepo.Search(ctx, tenant.ID, filter)
}

func (s *productService) GetPublic(ctx context.Context, tenantID, id uuid.UUID) (*models.Product, error) {
	product, err := s.getDetail(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return s.visible(ctx, product)
}

func (s *productService) GetPublicBySlug(ctx context.Context, tenantID uuid.UUID, slug string) (*models.Product, error) {
	product, err := s.productRepo.GetBySlug(ctx, tenantID, slug)
	if err != nil {
		return nil, err
	}
	product, err = s.getDetail(ctx, tenantID, product.ID)
	if err != nil {
		return nil, err
	}
	return s.visible(ctx, product)
}

// visible hides drafts, archived products and products of vendors that are
// not approved.
func (s *productService) visible(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.Status != models.ProductStatusPublished {
		return nil, common.ErrNotFound
	}
	vendor, err := s.vendorRepo.GetByID(ctx, product.TenantID, product.VendorID)
	if err != nil {
		return nil, err
	}
	if !vendor.IsApproved() {
		return nil, common.ErrNotFound
	}
	s.signImages(ctx, product.Images)
	return product, nil
}

func (s *productService) Search(ctx context.Context, tenantID uuid.UUID, filter *models.ProductSearchFilter) ([]*models.Product, int, error) {
	if err := normalizeSearch(filter); err != nil {
		return nil, 0, err
	}
	filter.PublicOnly = false
	return s.productRepo.Search(ctx, tenantID, filter)
}

// --- vendor catalog ---

func (s *productService) vendorFor(ctx context.Context, tenantID, userID uuid.UUID) (*models.Vendor, error) {
	vendor, err := s.vendorRepo.GetByUserID(ctx, tenantID, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("user is not a vendor: %w", common.ErrForbidden)
		}
		return nil, err
	}
	return vendor, nil
}

func (s *productService) approvedVendorFor(ctx context.Context, tenantID, userID uuid.UUID) (*models.Vendor, error) {
	vendor, err := s.vendorFor(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	if !vendor.IsApproved() {
		return nil, fmt.Errorf("vendor is %s: %w", vendor.Status, common.ErrForbidden)
	}
	return vendor, nil
}

// ownedProduct loads a product and checks it belongs to vendor.
func (s *productService) ownedProduct(ctx context.Context, vendor *models.Vendor, productID uuid.UUID) (*models.Product, error) {
	product, err := s.productRepo.GetByID(ctx, vendor.TenantID, productID)
	if err != nil {
		return nil, err
	}
	if product.VendorID != vendor.ID {
		return nil, fmt.Errorf("product belongs to another vendor: %w", common.ErrForbidden)
	}
	return product, nil
}

func (s *productService) ListOwn(ctx context.Context, tenantID, userID uuid.UUID, filter *models.ProductSearchFilter) ([]*models.Product, int, error) {
	vendor, err := s.vendorFor(ctx, tenantID, userID)
	if err != nil {
		return nil, 0, err
	}
	if err := normalizeSearch(filter); err != nil {
		return nil, 0, err
	}
	filter.PublicOnly = false
	filter.VendorID = &vendor.ID
	return s.productRepo.Search(ctx, tenantID, filter)
}

func (s *productService) GetOwn(ctx context.Context, tenantID, userID, id uuid.UUID) (*models.Product, error) {
	vendor, err := s.vendorFor(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	product, err := s.getDetail(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if product.VendorID != vendor.ID {
		return nil, fmt.Errorf("product belongs to another vendor: %w", common.ErrForbidden)
	}
	s.signImages(ctx, product.Images)
	return product, nil
}

func (s *productService) Create(ctx context.Context, tenantID, userID uuid.UUID, product *models.Product) error {
	vendor, err := s.approvedVendorFor(ctx, tenantID, userID)
	if err != nil {
		return err
	}

	product.ID = uuid.New()
	product.TenantID = tenantID
	product.VendorID = vendor.ID
	if product.Status == "" {
		product.Status = models.ProductStatusDraft
	}

	if err := s.validateProduct(ctx, product); err != nil {
		return err
	}

	variants := product.Variants
	for i, variant := range variants {
		if err := validateVariant(variant, fmt.Sprintf("variants[%d].", i)); err != nil {
			return err
		}
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.productRepo.Create(ctx, product); err != nil {
			if errors.Is(err, common.ErrConflict) {
				return fmt.Errorf("product slug already in use: %w", err)
			}
			return fmt.Errorf("failed to create product: %w", err)
		}

		for i, variant := range variants {
			variant.ID = uuid.New()
			variant.TenantID = tenantID
			variant.ProductID = product.ID
			if len(variants) == 1 || (i == 0 && !anyDefault(variants)) {
				variant.IsDefault = true
			}
			if variant.Name == "" {
				variant.Name = product.Name
			}
			if err := s.variantRepo.Create(ctx, variant); err != nil {
				return fmt.Errorf("failed to create variant %s: %w", variant.SKU, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("product created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("vendor_id", vendor.ID.String()),
		zap.String("product_id", product.ID.String()))
	return nil
}

func anyDefault(variants []*models.ProductVariant) bool {
	for _, v := range variants {
		if v.IsDefault {
			return true
		}
	}
	return false
}

func (s *productService) Update(ctx context.Context, tenantID, userID uuid.UUID, product *models.Product) error {
	vendor, err := s.approvedVendorFor(ctx, tenantID, userID)
	if err != nil {
		return err
	}
	if _, err := s.ownedProduct(ctx, vendor, product.ID); err != nil {
		return err
	}

	product.TenantID = tenantID
	product.VendorID = vendor.ID
	if product.Status == "" {
		product.Status = models.ProductStatusDraft
	}
	if err := s.validateProduct(ctx, product); err != nil {
		return err
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	s.invalidate(ctx, tenantID, product.ID)
	return nil
}

func (s *productService) Delete(ctx context.Context, tenantID, userID, id uuid.UUID) error {
	vendor, err := s.approvedVendorFor(ctx, tenantID, userID)
	if err != nil {
		return err
	}
	if _, err := s.ownedProduct(ctx, vendor, id); err != nil {
		return err
	}

	images, err := s.productImageRepo.ListByProduct(ctx, tenantID, id)
	if err != nil {
		return err
	}

	if err := s.productRepo.Delete(ctx, tenantID, id); err != nil {
		if errors.Is(err, common.ErrHasChildren) {
			return fmt.Errorf("product has orders, archive it instead: %w", common.ErrConflict)
		}
		return err
	}
	s.invalidate(ctx, tenantID, id)

	for _, img := range images {
		if err := s.minioService.DeleteImage(ctx, s.imageBucket, img.ObjectKey); err != nil {
			s.logger.Warn("failed to delete image object", zap.String("object_key", img.ObjectKey), zap.Error(err))
		}
	}
	return nil
}

func (s *productService) validateProduct(ctx context.Context, product *models.Product) error {
	v := common.NewValidationError()
	normalizeNamed(v, &product.Name, &product.Slug)
	v.Check("description", common.ValidateFreeText(product.Description, "description"))
	if !models.IsValidProductStatus(product.Status) {
		v.Add("status", "status must be draft, published or archived")
	}

	if product.BrandID != nil {
		if _, err := s.brandRepo.GetByID(ctx, product.TenantID, *product.BrandID); err != nil {
			if !isNotFound(err) {
				return err
			}
			v.Add("brand_id", "brand does not exist")
		}
	}

	product.CollectionIDs = uniqueIDs(product.CollectionIDs)
	for _, id := range product.CollectionIDs {
		if _, err := s.collectionRepo.GetByID(ctx, product.TenantID, id); err != nil {
			if !isNotFound(err) {
				return err
			}
			v.Add("collection_ids", fmt.Sprintf("collection %s does not exist", id))
		}
	}

	product.TagIDs = uniqueIDs(product.TagIDs)
	for _, id := range product.TagIDs {
		if _, err := s.tagRepo.GetByID(ctx, product.TenantID, id); err != nil {
			if !isNotFound(err) {
				return err
			}
			v.Add("tag_ids", fmt.Sprintf("tag %s does not exist", id))
		}
	}

	if err := s.validateAttributeValues(ctx, product, v); err != nil {
		return err
	}
	return v.OrNil()
}

func (s *productService) validateAttributeValues(ctx context.Context, product *models.Product, v *common.ValidationError) error {
	if product.AttributeValues == nil {
		product.AttributeValues = map[string]string{}
	}
	if len(product.AttributeValues) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(product.AttributeValues))
	for key := range product.AttributeValues {
		id, err := uuid.Parse(key)
		if err != nil {
			v.Add("attribute_values."+key, "attribute id must be a UUID")
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil
	}

	attributes, err := s.attributeRepo.GetByIDs(ctx, product.TenantID, ids)
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]*models.Attribute, len(attributes))
	for _, a := range attributes {
		byID[a.ID] = a
	}

	for _, id := range ids {
		key := id.String()
		value := product.AttributeValues[key]
		attr, ok := byID[id]
		if !ok {
			v.Add("attribute_values."+key, "attribute does not exist")
			continue
		}
		if err := ValidateAttributeValue(attr, value); err != nil {
			v.Add("attribute_values."+key, err.Error())
			continue
		}
		product.AttributeValues[key] = strings.TrimSpace(value)
	}
	return nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// --- variants ---

func validateVariant(variant *models.ProductVariant, prefix string) error {
	v := common.NewValidationError()
	variant.SKU = strings.ToUpper(strings.TrimSpace(variant.SKU))
	v.Check(prefix+"sku", common.ValidateRequiredString(variant.SKU, "sku"))
	if len(variant.SKU) > 64 {
		v.Add(prefix+"sku", "sku cannot exceed 64 characters")
	}
	variant.Name = strings.TrimSpace(variant.Name)
	if variant.Stock < 0 {
		v.Add(prefix+"stock", "stock cannot be negative")
	}
	if variant.Stock > math.MaxInt32 {
		v.Add(prefix+"stock", fmt.Sprintf("stock cannot exceed %d", math.MaxInt32))
	}
	if variant.Options == nil {
		variant.Options = map[string]string{}
	}

	if len(variant.Prices) == 0 {
		v.Add(prefix+"prices", "at least one price is required")
	}
	type tier struct {
		currency string
		minQty   int
	}
	seen := make(map[tier]bool, len(variant.Prices))
	hasBase := make(map[string]bool)
	for i, p := range variant.Prices {
		field := fmt.Sprintf("%sprices[%d].", prefix, i)
		p.Currency = strings.ToUpper(strings.TrimSpace(p.Currency))
		v.Check(field+"currency", common.ValidateCurrency(p.Currency, "currency"))
		if !p.Amount.IsPositive() {
			v.Add(field+"amount", "amount must be positive")
		}
		if p.Amount.Round(2).GreaterThanOrEqual(maxMoneyAmount) {
			v.Add(field+"amount", "amount must be below "+maxMoneyAmount.String())
		}
		if p.CompareAmount != nil && p.CompareAmount.LessThan(p.Amount) {
			v.Add(field+"compare_amount", "compare_amount cannot be below amount")
		}
		if p.CompareAmount != nil && p.CompareAmount.Round(2).GreaterThanOrEqual(maxMoneyAmount) {
			v.Add(field+"compare_amount", "compare_amount must be below "+maxMoneyAmount.String())
		}
		if p.MinQuantity == 0 {
			p.MinQuantity = 1
		}
		if p.MinQuantity < 1 {
			v.Add(field+"min_quantity", "min_quantity must be at least 1")
		}
		p.Amount = p.Amount.Round(2)
		key := tier{p.Currency, p.MinQuantity}
		if seen[key] {
			v.Add(field+"min_quantity", "duplicate price tier")
		}
		seen[key] = true
		if p.MinQuantity == 1 {
			hasBase[p.Currency] = true
		}
	}
	for t := range seen {
		if !hasBase[t.currency] {
			v.Add(prefix+"prices", fmt.Sprintf("prices in %s need a tier with min_quantity 1", t.currency))
		}
	}
	return v.OrNil()
}

func (s *productService) ListVariants(ctx context.Context, tenantID, userID, productID uuid.UUID) ([]*models.ProductVariant, error) {
	vendor, err := s.vendorFor(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedProduct(ctx, vendor, productID); err != nil {
		return nil, err
	}
	return s.variantRepo.ListByProduct(ctx, tenantID, productID)
}

func (s *productService) CreateVariant(ctx context.Context, tenantID, userID, productID uuid.UUID, variant *models.ProductVariant) error {
	vendor, err := s.approvedVendorFor(ctx, tenantID, userID)
	if err != nil {
		return err
	}
	product, err := s.ownedProduct(ctx, vendor, productID)
	if err != nil {
		return err
	}
	if err := validateVariant(variant, ""); err != nil {
		return err
	}

	variant.ID = uuid.New()
	variant.TenantID = tenantID
	variant.ProductID = productID
	if variant.Name == "" {
		variant.Name = product.Name
	}

	existing, err := s.variantRepo.ListByProduct(ctx, tenantID, productID)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		variant.IsDefault = true
	}

	if err := s.variantRepo.Create(ctx, variant); err != nil {
		if errors.Is(err, common.ErrConflict) {
			return fmt.Errorf("sku %s already exists: %w", variant.SKU, err)
		}
		return fmt.Errorf("failed to create variant: %w", err)
	}
	s.invalidate(ctx, tenantID, productID)
	return nil
}

func (s *productService) UpdateVariant(ctx context.Context, tenantID, userID, productID uuid.UUID, variant *models.ProductVariant) error {
	vendor, err := s.approvedVendorFor(ctx, tenantID, userID)
	if err != nil {
		return err
	}
	product, err := s.ownedProduct(ctx, vendor, productID)
	if err != nil {
		return err
	}
	current, err := s.variantRepo.GetByID(ctx, tenantID, variant.ID)
	if err != nil {
		return err
	}
	if current.ProductID != productID {
		return common.ErrNotFound
	}
	if err := validateVariant(variant, ""); err != nil {
		return err
	}

	variant.TenantID = tenantID
	variant.ProductID = productID
	if variant.Name == "" {
		variant.Name = product.Name
	}
	if current.IsDefault {
		variant.IsDefault = true
	}

	if err := s.variantRepo.Update(ctx, variant); err != nil {
		if errors.Is(err, common.ErrConflict) {
			return fmt.Errorf("sku %s already exists: %w", variant.SKU, err)
		}
		return fmt.Errorf("failed to update variant: %w", err)
	}
	s.invalidate(ctx, tenantID, productID)
	return nil
}

func (s *productService) DeleteVariant(ctx context.Context, tenantID, userID, productID, variantID uuid.UUID) error {
	vendor, err := s.approvedVendorFor(ctx, tenantID, userID)
	if err != nil {
		return err
	}
	if _, err := s.ownedProduct(ctx, vendor, productID); err != nil {
		return err
	}
	current, err := s.variantRepo.GetByID(ctx, tenantID, variantID)
	if err != nil {
		return err
	}
	if current.ProductID != productID {
		return common.ErrNotFound
	}
	if err := s.variantRepo.Delete(ctx, tenantID, variantID); err != nil {
		if errors.Is(err, common.ErrHasChildren) {
			return fmt.Errorf("variant has orders: %w", common.ErrConflict)
		}
		return err
	}
	s.invalidate(ctx, tenantID, productID)
	return nil
}

// --- images ---

func (s *productService) UploadProductImage(ctx context.Context, tenantID, userID, productID uuid.UUID, filename, contentType string, reader io.Reader, size int64) (*models.ProductImage, error) {
	vendor, err := s.approvedVendorFor(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedProduct(ctx, vendor, productID); err != nil {
		return nil, err
	}

	contentType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if !allowedImageTypes[contentType] {
		return nil, common.FieldError("image", "image must be jpeg, png, webp or gif")
	}
	if size <= 0 || size > maxImageSize {
		return nil, common.FieldError("image", "image must be between 1 byte and 10 MB")
	}

	objectKey := ImageObjectKey(tenantID, productID, filename)
	if err := s.minioService.UploadImage(ctx, s.imageBucket, objectKey, reader, size, contentType); err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	image := &models.ProductImage{
		ID:          uuid.New(),
		TenantID:    tenantID,
		ProductID:   productID,
		ObjectKey:   objectKey,
		FileName:    filename,
		ContentType: contentType,
		Size:        size,
	}
	if err := s.productImageRepo.Create(ctx, image); err != nil {
		if delErr := s.minioService.DeleteImage(ctx, s.imageBucket, objectKey); delErr != nil {
			s.logger.Warn("failed to remove orphaned image object", zap.String("object_key", objectKey), zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to save image metadata: %w", err)
	}
	s.invalidate(ctx, tenantID, productID)
	s.signImages(ctx, []*models.ProductImage{image})
	return image, nil
}

func (s *productService) GetProductImages(ctx context.Context, tenantID, userID, productID uuid.UUID) ([]*models.ProductImage, error) {
	vendor, err := s.vendorFor(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedProduct(ctx, vendor, productID); err != nil {
		return nil, err
	}
	images, err := s.productImageRepo.ListByProduct(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	s.signImages(ctx, images)
	return images, nil
}

func (s *productService) DeleteProductImage(ctx context.Context, tenantID, userID, productID, imageID uuid.UUID) error {
	vendor, err := s.approvedVendorFor(ctx, tenantID, userID)
	if err != nil {
		return err
	}
	if _, err := s.ownedProduct(ctx, vendor, productID); err != nil {
		return err
	}
	image, err := s.productImageRepo.GetByID(ctx, tenantID, imageID)
	if err != nil {
		return err
	}
	if image.ProductID != productID {
		return common.ErrNotFound
	}

	if err := s.productImageRepo.Delete(ctx, tenantID, imageID); err != nil {
		return err
	}
	if err := s.minioService.DeleteImage(ctx, s.imageBucket, image.ObjectKey); err != nil {
		s.logger.Warn("failed to delete image object", zap.String("object_key", image.ObjectKey), zap.Error(err))
	}
	s.invalidate(ctx, tenantID, productID)
	return nil
}

// --- helpers ---

// getDetail returns a product with variants and images, through the cache.
func (s *productService) getDetail(ctx context.Context, tenantID, id uuid.UUID) (*models.Product, error) {
	cached, err := s.cacheService.GetProduct(ctx, tenantID, id)
	if err != nil {
		s.logger.Warn("product cache lookup failed", zap.String("product_id", id.String()), zap.Error(err))
	}
	if cached != nil {
		return cached, nil
	}

	product, err := s.productRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if product.Variants, err = s.variantRepo.ListByProduct(ctx, tenantID, id); err != nil {
		return nil, err
	}
	if product.Images, err = s.productImageRepo.ListByProduct(ctx, tenantID, id); err != nil {
		return nil, err
	}

	if err := s.cacheService.SetProduct(ctx, tenantID, product, productCacheTTL); err != nil {
		s.logger.Warn("failed to cache product", zap.String("product_id", id.String()), zap.Error(err))
	}
	return product, nil
}

func (s *productService) invalidate(ctx context.Context, tenantID, productID uuid.UUID) {
	if err := s.cacheService.DeleteProduct(ctx, tenantID, productID); err != nil {
		s.logger.Warn("failed to invalidate product cache", zap.String("product_id", productID.String()), zap.Error(err))
	}
}

func (s *productService) signImages(ctx context.Context, images []*models.ProductImage) {
	for _, img := range images {
		url, err := s.minioService.GetPresignedURL(ctx, s.imageBucket, img.ObjectKey, imageURLExpiry)
		if err != nil {
			s.logger.Warn("failed to presign image", zap.String("object_key", img.ObjectKey), zap.Error(err))
			continue
		}
		img.URL = url
	}
}
