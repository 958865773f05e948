package group

import "errors"

// Sentinel errors for the group service layer.
var (
	ErrNotFound          = errors.New("message group not found")
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrInvalidTransition = errors.New("invalid group status transition")
	ErrNotEditable       = errors.New("group no longer accepts recipients")
	ErrNoContent         = errors.New("group needs a template or inline content")
)
