package sendconfig

import "errors"

// Sentinel errors for the sending configuration service layer.
var (
	ErrNotFound        = errors.New("sending config not found")
	ErrNoConfiguration = errors.New("no sending configuration found")
	ErrScopeTaken      = errors.New("scope already has a sending config")
	ErrNotGlobal       = errors.New("only GLOBAL configs can be activated")
	ErrGlobalActive    = errors.New("the active GLOBAL config is switched via activate")
	ErrUnknownProvider = errors.New("unknown provider")
)
