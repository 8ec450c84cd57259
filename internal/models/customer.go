package models

import (
	"time"

	"github.com/google/uuid"
)

// Address is a postal address, also snapshotted onto orders as JSONB.
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

func (a *Address) IsZero() bool {
	return a == nil || (a.Line1 == "" && a.City == "" && a.PostalCode == "" && a.Country == "")
}

type Customer struct {
	ID              uuid.UUID `json:"id" db:"id"`
	TenantID        uuid.UUID `json:"tenant_id" db:"tenant_id"`
	UserID          uuid.UUID `json:"user_id" db:"user_id"`
	Phone           *string   `json:"phone,omitempty" db:"phone"`
	ShippingAddress *Address  `json:"shipping_address,omitempty" db:"shipping_address"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}
