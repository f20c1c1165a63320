package logger

import (
	"log/slog"
	"time"
)

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the SDK component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Operation records the attribution operation (install, user_id, purchase).
func Operation(name string) slog.Attr {
	return slog.String("operation", name)
}

// InstallID records the server-assigned install identifier.
// Empty ids produce an empty Attr.
func InstallID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("install_id", id)
}

// RequestID records the request identifier under the key "request_id".
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// Attempt records the 1-based attempt number of a request.
func Attempt(n int) slog.Attr {
	return slog.Int("attempt", n)
}

// StatusCode records an HTTP status code; zero means no response was received.
func StatusCode(code int) slog.Attr {
	if code == 0 {
		return slog.Attr{}
	}
	return slog.Int("status_code", code)
}

// Duration records a duration under the key "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Endpoint records the request path.
func Endpoint(path string) slog.Attr {
	return slog.String("endpoint", path)
}
