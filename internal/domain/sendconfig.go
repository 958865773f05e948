package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ScopeKind is the inheritance tier at which a sending config applies.
type ScopeKind string

const (
	ScopeGlobal ScopeKind = "GLOBAL"
	ScopeTenant ScopeKind = "TENANT"
	ScopeApp    ScopeKind = "APP"
)

// Provider enumerates the supported delivery transports.
type Provider string

const (
	ProviderSMTP Provider = "smtp"
	ProviderSES  Provider = "ses"
)

// ConfigScope ties a sending config to its owner. Use the constructors;
// they make invalid owner combinations unrepresentable (a GLOBAL scope
// never carries an owner, an APP scope always carries both IDs).
type ConfigScope struct {
	Kind     ScopeKind  `json:"kind"`
	TenantID *uuid.UUID `json:"tenant_id,omitempty"`
	AppID    *uuid.UUID `json:"app_id,omitempty"`
}

// GlobalScope returns the platform-wide scope.
func GlobalScope() ConfigScope {
	return ConfigScope{Kind: ScopeGlobal}
}

// TenantScope returns a scope owned by a single tenant.
func TenantScope(tenantID uuid.UUID) ConfigScope {
	return ConfigScope{Kind: ScopeTenant, TenantID: &tenantID}
}

// AppScope returns a scope owned by a single app. The tenant ID is carried
// alongside so tenant-level listings can include app configs without a join.
func AppScope(appID, tenantID uuid.UUID) ConfigScope {
	return ConfigScope{Kind: ScopeApp, AppID: &appID, TenantID: &tenantID}
}

// Validate rejects scope/owner combinations that slipped past the constructors
// (e.g. a scope decoded from JSON or scanned from the database).
func (s ConfigScope) Validate() error {
	switch s.Kind {
	case ScopeGlobal:
		if s.TenantID != nil || s.AppID != nil {
			return errors.New("global scope cannot have an owner")
		}
	case ScopeTenant:
		if s.TenantID == nil {
			return errors.New("tenant scope requires tenant_id")
		}
		if s.AppID != nil {
			return errors.New("tenant scope cannot have app_id")
		}
	case ScopeApp:
		if s.AppID == nil {
			return errors.New("app scope requires app_id")
		}
	default:
		return errors.New("unknown scope kind")
	}
	return nil
}

// SendingConfig is one set of delivery credentials at a given scope.
// Multiple configs may exist per owner but at most one participates in
// resolution (is_active). Secrets are stored as-is and masked on the way
// out of the API; see sendconfig.Masked.
type SendingConfig struct {
	ID    uuid.UUID   `json:"id" db:"id"`
	Scope ConfigScope `json:"scope"`

	Provider Provider `json:"provider" db:"provider"`

	// SMTP fields
	Host   string `json:"host,omitempty" db:"host"`
	Port   int    `json:"port,omitempty" db:"port"`
	Secure bool   `json:"secure" db:"secure"`
	User   string `json:"user,omitempty" db:"smtp_user"`
	Pass   string `json:"pass,omitempty" db:"smtp_pass"`

	// Cloud API fields
	AWSRegion    string `json:"aws_region,omitempty" db:"aws_region"`
	AWSAccessKey string `json:"aws_access_key,omitempty" db:"aws_access_key"`
	AWSSecretKey string `json:"aws_secret_key,omitempty" db:"aws_secret_key"`

	FromAddress string `json:"from_address,omitempty" db:"from_address"`
	FromName    string `json:"from_name,omitempty" db:"from_name"`

	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedBy string    `json:"created_by,omitempty" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ResolvedConfig is the outcome of walking the scope hierarchy: the full
// config taken from exactly one scope, never a field-level merge.
type ResolvedConfig struct {
	ConfigID     uuid.UUID `json:"config_id"`
	ResolvedFrom ScopeKind `json:"resolved_from"`
	Provider     Provider  `json:"provider"`
	Host         string    `json:"host,omitempty"`
	Port         int       `json:"port,omitempty"`
	Secure       bool      `json:"secure"`
	User         string    `json:"user,omitempty"`
	Pass         string    `json:"-"`
	AWSRegion    string    `json:"aws_region,omitempty"`
	AWSAccessKey string    `json:"-"`
	AWSSecretKey string    `json:"-"`
	FromAddress  string    `json:"from_address,omitempty"`
	FromName     string    `json:"from_name,omitempty"`
}
