package storage

import "errors"

var (
	ErrNotFound                     = errors.New("storage: key not found")
	ErrClosed                       = errors.New("storage: store is closed")
	ErrEmptyKey                     = errors.New("storage: empty key")
	ErrEmptyValue                   = errors.New("storage: empty value")
	ErrEmptyPath                    = errors.New("storage: path is required for a persistent store")
	ErrFailedToParseRedisConnString = errors.New("storage: failed to parse redis connection string")
	ErrRedisNotReady                = errors.New("storage: redis did not become ready within the given time period")
)
