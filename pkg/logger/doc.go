// Package logger builds the slog.Logger used by the SDK.
//
// New takes functional options for format, level, output, static attributes and
// context extractors. The returned logger wraps its handler with
// LogHandlerDecorator so attributes stored in a context (for example the
// request id of an attribution call) are added to every record logged with
// that context.
//
// The default logger writes warnings and errors as text to stderr: an
// embedded SDK should stay silent unless something is wrong. Use WithDebug
// while integrating.
//
//	log := logger.New(
//	    logger.WithDebug(),
//	    logger.WithAttr(logger.Component("linkowl")),
//	)
//	log.Debug("install tracked", logger.InstallID(id))
//
// Attribute helpers in attr.go keep key names consistent. Helpers return an
// empty slog.Attr for empty input, so callers need no nil checks.
package logger
