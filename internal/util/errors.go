package util

import "errors"

// Sentinel errors for common failure modes
var (
	// ErrTypeMismatch indicates a template directive was applied to an attribute
	// of the wrong kind (a list directive on a scalar, or the reverse)
	ErrTypeMismatch = errors.New("template type mismatch")

	// ErrInputRequired indicates an interactive choice is needed but prompting
	// is disabled (quiet mode)
	ErrInputRequired = errors.New("quiet mode set, but user input required")

	// ErrUnknownModifier indicates a template referenced an unregistered modifier
	ErrUnknownModifier = errors.New("unknown modifier")

	// ErrCacheUnavailable indicates the persistent cache store could not be opened
	ErrCacheUnavailable = errors.New("cache unavailable")

	// ErrUnsupported indicates a file format or operation is not supported
	ErrUnsupported = errors.New("unsupported")

	// ErrConflict indicates a destination file conflict
	ErrConflict = errors.New("destination conflict")

	// ErrNotFound indicates a required resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")
)
