package logging

import (
	"context"
	"errors"
	"log/slog"

	"curator/internal/pipeline"
)

type Attr = slog.Attr

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

func Strings(key string, values []string) Attr { return slog.Any(key, values) }

func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// ErrorKind tags err with its taxonomy name so failures can be filtered by class.
func ErrorKind(err error) Attr {
	return slog.String(FieldErrorKind, pipeline.Kind(err))
}

func Args(attrs ...Attr) []any {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return args
}

func NewNop() *slog.Logger {
	return slog.New(discardHandler{})
}

// NewComponentLogger creates a logger with a standardized component attribute.
// If logger is nil, a no-op logger is used as the base.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

func withDefault(attrs []Attr, key, value string) []Attr {
	for _, a := range attrs {
		if a.Key == key {
			return attrs
		}
	}
	return append(attrs, String(key, value))
}

// WarnWithContext logs a warning that always names an event type, a hint and an
// impact, so operators can act on it without reading code.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	attrs = withDefault(attrs, FieldEventType, eventType)
	attrs = withDefault(attrs, FieldErrorHint, "see the curator log for the affected files")
	attrs = withDefault(attrs, FieldImpact, "run continues with warnings")
	logger.Warn(msg, Args(attrs...)...)
}

// ErrorWithContext logs err with an event type, a hint and its error kind.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, err error, attrs ...Attr) {
	if logger == nil {
		return
	}
	attrs = withDefault(attrs, FieldEventType, eventType)
	attrs = withDefault(attrs, FieldErrorHint, hintFor(err))
	attrs = append(attrs, ErrorKind(err), Error(err))
	logger.Error(msg, Args(attrs...)...)
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, pipeline.ErrMissingTimestamp):
		return "add the session timestamp log or remove the session files"
	case errors.Is(err, pipeline.ErrParse):
		return "check file names and timestamp log rows"
	case errors.Is(err, pipeline.ErrValidation):
		return "check required streams and subject metadata"
	case errors.Is(err, pipeline.ErrConfiguration):
		return "run curator config validate"
	case errors.Is(err, pipeline.ErrWrite):
		return "check output directory permissions and free space"
	default:
		return "see the curator log for details"
	}
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool { return false }

func (discardHandler) Handle(context.Context, slog.Record) error { return nil }

func (discardHandler) WithAttrs([]slog.Attr) slog.Handler { return discardHandler{} }

func (discardHandler) WithGroup(string) slog.Handler { return discardHandler{} }
