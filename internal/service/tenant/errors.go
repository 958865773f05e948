package tenant

import "errors"

// Sentinel errors for the tenant service layer.
var (
	ErrNotFound       = errors.New("tenant not found")
	ErrAppNotFound    = errors.New("app not found")
	ErrClientIDTaken  = errors.New("client id already in use")
	ErrTenantInactive = errors.New("tenant is not active")
)
