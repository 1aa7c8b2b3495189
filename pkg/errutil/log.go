package errutil

import (
	"log/slog"

	"github.com/samber/oops"
)

// LogError logs err at error level. oops errors are expanded into their
// code, domain and context attributes; other errors are logged as strings.
// Extra key/value pairs in attrs are appended to the record.
func LogError(logger *slog.Logger, msg string, err error, attrs ...any) {
	if logger == nil {
		logger = slog.Default()
	}

	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields, attrs...)

	if oopsErr, ok := oops.AsOops(err); ok {
		fields = append(fields, "error", oopsErr.Error())
		if code := oopsErr.Code(); code != nil && code != "" {
			fields = append(fields, "code", code)
		}
		if domain := oopsErr.Domain(); domain != "" {
			fields = append(fields, "domain", domain)
		}
		if ctx := oopsErr.Context(); len(ctx) > 0 {
			fields = append(fields, "context", ctx)
		}
		logger.Error(msg, fields...)
		return
	}

	fields = append(fields, "error", err)
	logger.Error(msg, fields...)
}
