package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ProductStatusDraft     = "draft"
	ProductStatusPublished = "published"
	ProductStatusArchived  = "archived"
)

func IsValidProductStatus(s string) bool {
	return s == ProductStatusDraft || s == ProductStatusPublished || s == ProductStatusArchived
}

// ProductSearchFilter holds storefront and vendor listing criteria
type ProductSearchFilter struct {
	Query        string           `json:"q,omitempty"`
	CollectionID *uuid.UUID       `json:"collection_id,omitempty"`
	BrandID      *uuid.UUID       `json:"brand_id,omitempty"`
	TagID        *uuid.UUID       `json:"tag_id,omitempty"`
	VendorID     *uuid.UUID       `json:"vendor_id,omitempty"`
	Status       string           `json:"status,omitempty"`
	PublicOnly   bool             `json:"-"` // published products of approved vendors
	MinPrice     *decimal.Decimal `json:"min_price,omitempty"`
	MaxPrice     *decimal.Decimal `json:"max_price,omitempty"`
	Currency     string           `json:"-"`
	SortBy       string           `json:"sort_by,omitempty"` // name, created_at
	SortOrder    string           `json:"sort_order,omitempty"`
	Limit        int              `json:"limit,omitempty"`
	Offset       int              `json:"offset,omitempty"`
}

type Product struct {
	ID              uuid.UUID         `json:"id" db:"id"`
	TenantID        uuid.UUID         `json:"tenant_id" db:"tenant_id"`
	VendorID        uuid.UUID         `json:"vendor_id" db:"vendor_id"`
	BrandID         *uuid.UUID        `json:"brand_id,omitempty" db:"brand_id"`
	Name            string            `json:"name" db:"name"`
	Slug            string            `json:"slug" db:"slug"`
	Description     *string           `json:"description,omitempty" db:"description"`
	Status          string            `json:"status" db:"status"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at" db:"updated_at"`
	CollectionIDs   []uuid.UUID       `json:"collection_ids" db:"-"`
	TagIDs          []uuid.UUID       `json:"tag_ids" db:"-"`
	AttributeValues map[string]string `json:"attribute_values" db:"-"` // attribute id -> value
	Variants        []*ProductVariant `json:"variants,omitempty" db:"-"`
	Images          []*ProductImage   `json:"images,omitempty" db:"-"`
}

type ProductVariant struct {
	ID        uuid.UUID         `json:"id" db:"id"`
	TenantID  uuid.UUID         `json:"tenant_id" db:"tenant_id"`
	ProductID uuid.UUID         `json:"product_id" db:"product_id"`
	SKU       string            `json:"sku" db:"sku"`
	Name      string            `json:"name" db:"name"`
	Options   map[string]string `json:"options" db:"options"`
	Stock     int               `json:"stock" db:"stock"`
	IsDefault bool              `json:"is_default" db:"is_default"`
	CreatedAt time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt time.Time         `json:"updated_at" db:"updated_at"`
	Prices    []*Price          `json:"prices" db:"-"`
}

type Price struct {
	ID            uuid.UUID        `json:"id" db:"id"`
	TenantID      uuid.UUID        `json:"tenant_id" db:"tenant_id"`
	VariantID     uuid.UUID        `json:"variant_id" db:"variant_id"`
	Currency      string           `json:"currency" db:"currency"`
	Amount        decimal.Decimal  `json:"amount" db:"amount"`
	CompareAmount *decimal.Decimal `json:"compare_amount,omitempty" db:"compare_amount"`
	MinQuantity   int              `json:"min_quantity" db:"min_quantity"`
}

// UnitPriceFor picks the tier in currency with the largest MinQuantity not
// exceeding quantity. ok is false when no tier applies.
func UnitPriceFor(prices []*Price, currency string, quantity int) (*Price, bool) {
	var best *Price
	for _, p := range prices {
		if p.Currency != currency || p.MinQuantity > quantity {
			continue
		}
		if best == nil || p.MinQuantity > best.MinQuantity {
			best = p
		}
	}
	return best, best != nil
}

type ProductImage struct {
	ID          uuid.UUID `json:"id" db:"id"`
	TenantID    uuid.UUID `json:"tenant_id" db:"tenant_id"`
	ProductID   uuid.UUID `json:"product_id" db:"product_id"`
	ObjectKey   string    `json:"object_key" db:"object_key"`
	FileName    string    `json:"file_name" db:"file_name"`
	ContentType string    `json:"content_type" db:"content_type"`
	Size        int64     `json:"size" db:"size"`
	Position    int       `json:"position" db:"position"`
	URL         string    `json:"url,omitempty" db:"-"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// VariantForSale joins a variant with what order placement needs to know
// about its product and vendor.
type VariantForSale struct {
	Variant       ProductVariant
	ProductName   string
	ProductStatus string
	VendorID      uuid.UUID
	VendorStatus  string
}

// CatalogExportRow is one variant line of a vendor catalog export.
type CatalogExportRow struct {
	ProductName string
	ProductSlug string
	Status      string
	SKU         string
	VariantName string
	Stock       int
	Currency    string
	Amount      decimal.Decimal
	MinQuantity int
}
