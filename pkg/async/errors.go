package async

import "errors"

var (
	ErrTimeout = errors.New("async: timed out waiting for background work")
	ErrPanic   = errors.New("async: background task panicked")
)
