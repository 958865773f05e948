package domain

import (
	"time"

	"github.com/google/uuid"
)

// TenantStatus enumerates the lifecycle states of a tenant.
type TenantStatus string

const (
	TenantActive   TenantStatus = "active"
	TenantDisabled TenantStatus = "disabled"
	TenantDeleted  TenantStatus = "deleted"
)

// Tenant is the top-level isolation boundary. Deletion is a status flag,
// never a physical row removal, so referential history survives.
type Tenant struct {
	ID        uuid.UUID    `json:"id" db:"id"`
	Name      string       `json:"name" db:"name"`
	Status    TenantStatus `json:"status" db:"status"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt time.Time    `json:"updated_at" db:"updated_at"`
}

// App is a named integration belonging to exactly one tenant. The ClientID
// is an externally stable identifier; lookups by ID and by ClientID must
// resolve to the same row.
type App struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TenantID  uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Name      string    `json:"name" db:"name"`
	ClientID  string    `json:"client_id" db:"client_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
