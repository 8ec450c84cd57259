package models

import (
	"time"

	"github.com/google/uuid"
)

type Collection struct {
	ID          uuid.UUID     `json:"id" db:"id"`
	TenantID    uuid.UUID     `json:"tenant_id" db:"tenant_id"`
	ParentID    *uuid.UUID    `json:"parent_id" db:"parent_id"`
	Name        string        `json:"name" db:"name"`
	Slug        string        `json:"slug" db:"slug"`
	Description *string       `json:"description,omitempty" db:"description"`
	Level       int           `json:"level" db:"level"`
	Path        string        `json:"path" db:"path"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
	Children    []*Collection `json:"children,omitempty" db:"-"`
}

type Brand struct {
	ID          uuid.UUID `json:"id" db:"id"`
	TenantID    uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	Description *string   `json:"description,omitempty" db:"description"`
	LogoURL     *string   `json:"logo_url,omitempty" db:"logo_url"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

const (
	AttributeTypeText    = "text"
	AttributeTypeNumber  = "number"
	AttributeTypeSelect  = "select"
	AttributeTypeBoolean = "boolean"
)

func IsValidAttributeType(t string) bool {
	switch t {
	case AttributeTypeText, AttributeTypeNumber, AttributeTypeSelect, AttributeTypeBoolean:
		return true
	}
	return false
}

type Attribute struct {
	ID         uuid.UUID `json:"id" db:"id"`
	TenantID   uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Name       string    `json:"name" db:"name"`
	Handle     string    `json:"handle" db:"handle"`
	Type       string    `json:"type" db:"type"`
	Values     []string  `json:"values" db:"values"`
	Filterable bool      `json:"filterable" db:"filterable"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

type Tag struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TenantID  uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
