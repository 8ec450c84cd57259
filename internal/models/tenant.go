package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TenantStatusActive   = "active"
	TenantStatusInactive = "inactive"
)

// Theme is the storefront branding stored as JSONB.
type Theme struct {
	PrimaryColor   string `json:"primary_color,omitempty"`
	SecondaryColor string `json:"secondary_color,omitempty"`
	LogoURL        string `json:"logo_url,omitempty"`
}

type Tenant struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	Name       string     `json:"name" db:"name"`
	Slug       string     `json:"slug" db:"slug"`
	Domain     string     `json:"domain" db:"domain"`
	Theme      Theme      `json:"theme" db:"theme"`
	Currency   string     `json:"currency" db:"currency"`
	WebhookURL *string    `json:"webhook_url,omitempty" db:"webhook_url"`
	Status     string     `json:"status" db:"status"`
	IsPlatform bool       `json:"is_platform" db:"is_platform"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// IsServing reports whether the tenant storefront should resolve.
func (t *Tenant) IsServing() bool {
	return t.Status == TenantStatusActive && t.DeletedAt == nil
}

type TenantFilter struct {
	Status         string
	Query          string
	IncludeDeleted bool
	Limit          int
	Offset         int
}
