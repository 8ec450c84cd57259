package models

import (
	"time"

	"github.com/google/uuid"
)

type UserRole struct {
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	RoleID    uuid.UUID `json:"role_id" db:"role_id"`
	TenantID  uuid.UUID `json:"tenant_id" db:"tenant_id"`
	RoleName  string    `json:"role_name" db:"-"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
