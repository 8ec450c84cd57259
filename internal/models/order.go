package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	OrderStatusPending    = "pending"
	OrderStatusPaid       = "paid"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

var orderTransitions = map[string][]string{
	OrderStatusPending:    {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:       {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped},
	OrderStatusShipped:    {OrderStatusDelivered},
}

// CanOrderTransition reports whether an order may move from one status to another.
func CanOrderTransition(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// OrderSearchFilter holds order listing criteria
type OrderSearchFilter struct {
	Status     string     `json:"status,omitempty"`
	CustomerID *uuid.UUID `json:"customer_id,omitempty"`
	VendorID   *uuid.UUID `json:"vendor_id,omitempty"`
	Limit      int        `json:"limit,omitempty"`
	Offset     int        `json:"offset,omitempty"`
}

type Order struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	TenantID        uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	CustomerID      uuid.UUID       `json:"customer_id" db:"customer_id"`
	Number          string          `json:"number" db:"number"`
	Status          string          `json:"status" db:"status"`
	Currency        string          `json:"currency" db:"currency"`
	Subtotal        decimal.Decimal `json:"subtotal" db:"subtotal"`
	Total           decimal.Decimal `json:"total" db:"total"`
	ShippingAddress *Address        `json:"shipping_address,omitempty" db:"shipping_address"`
	Notes           *string         `json:"notes,omitempty" db:"notes"`
	PlacedAt        time.Time       `json:"placed_at" db:"placed_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
	Items           []*OrderItem    `json:"items,omitempty" db:"-"`
}

type OrderItem struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	TenantID  uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	OrderID   uuid.UUID       `json:"order_id" db:"order_id"`
	ProductID uuid.UUID       `json:"product_id" db:"product_id"`
	VariantID uuid.UUID       `json:"variant_id" db:"variant_id"`
	VendorID  uuid.UUID       `json:"vendor_id" db:"vendor_id"`
	SKU       string          `json:"sku" db:"sku"`
	Name      string          `json:"name" db:"name"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total" db:"line_total"`
}

// OrderEvent is the payload announced to tenant webhooks.
type OrderEvent struct {
	Event      string    `json:"event"`
	TenantID   uuid.UUID `json:"tenant_id"`
	OrderID    uuid.UUID `json:"order_id"`
	Number     string    `json:"number"`
	Status     string    `json:"status"`
	PrevStatus string    `json:"previous_status,omitempty"`
	Total      string    `json:"total"`
	Currency   string    `json:"currency"`
	OccurredAt time.Time `json:"occurred_at"`
}
