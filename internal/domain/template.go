package domain

import (
	"time"

	"github.com/google/uuid"
)

// Template is reusable message content with ${variable} placeholders in the
// subject and bodies. Templates are versioned per tenant by (name, version).
type Template struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TenantID  uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Name      string    `json:"name" db:"name"`
	Version   int       `json:"version" db:"version"`
	Subject   string    `json:"subject" db:"subject"`
	BodyHTML  string    `json:"body_html" db:"body_html"`
	BodyText  string    `json:"body_text,omitempty" db:"body_text"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Rendered is the output of applying a recipient context to a template.
type Rendered struct {
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text,omitempty"`
}
