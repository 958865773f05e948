// Package suppression implements the tenant-scoped suppression list service.
//
// This is the single source of truth for whether an email address should
// receive mail within a tenant. The dispatch pipeline checks it before every
// send; a suppressed recipient is skipped without consuming a send attempt.
//
// The service layer contains pure business logic and depends on the
// Repository interface defined in repository.go. It never imports
// net/http or database/sql directly.
package suppression
