package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	VendorStatusPending   = "pending"
	VendorStatusApproved  = "approved"
	VendorStatusRejected  = "rejected"
	VendorStatusSuspended = "suspended"
)

var vendorTransitions = map[string][]string{
	VendorStatusPending:   {VendorStatusApproved, VendorStatusRejected},
	VendorStatusApproved:  {VendorStatusSuspended},
	VendorStatusSuspended: {VendorStatusApproved},
}

// CanVendorTransition reports whether a vendor may move from one status to another.
func CanVendorTransition(from, to string) bool {
	for _, next := range vendorTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Vendor struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	TenantID     uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	UserID       uuid.UUID  `json:"user_id" db:"user_id"`
	BusinessName string     `json:"business_name" db:"business_name"`
	Slug         string     `json:"slug" db:"slug"`
	Description  *string    `json:"description,omitempty" db:"description"`
	ContactEmail string     `json:"contact_email" db:"contact_email"`
	Phone        *string    `json:"phone,omitempty" db:"phone"`
	Status       string     `json:"status" db:"status"`
	StatusReason *string    `json:"status_reason,omitempty" db:"status_reason"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty" db:"approved_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

func (v *Vendor) IsApproved() bool {
	return v.Status == VendorStatusApproved
}

type VendorFilter struct {
	Status string
	Query  string
	Limit  int
	Offset int
}
