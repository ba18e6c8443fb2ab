package log

import "context"

type contextKey struct{}

// WithContext stores logger in ctx so that jobs started by the worker carry
// their job-scoped attributes down into services.
func WithContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext extracts a logger from ctx, falling back to the default logger
// tagged with component.
func FromContext(ctx context.Context, component string) *Logger {
	if logger, ok := ctx.Value(contextKey{}).(*Logger); ok {
		if logger.component == component {
			return logger
		}
		return logger.WithComponent(component)
	}
	return Default(component)
}

// LogError logs an error with structured context
func LogError(ctx context.Context, logger *Logger, msg string, err error, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	fields.WithError(err).WithOperation(operation)
	logger.ErrorContext(ctx, msg, fields.ToSlice()...)
}
