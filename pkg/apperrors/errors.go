package apperrors

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrNoSchema           = errors.New("no known listing schema detected")
	ErrUnknownStoreType   = errors.New("unknown store type")
	ErrStoreNotConfigured = errors.New("store not configured")
)
