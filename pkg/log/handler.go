package log

import (
	"context"
	"log/slog"

	mlerrors "github.com/YuminosukeSato/bayesreg/pkg/errors"
	"github.com/cockroachdb/errors"
)

// ErrFmtHandler is a slog handler to format stacktrace from cockroachdb/errors.
type ErrFmtHandler struct {
	handler slog.Handler
}

// WrapByErrFmtHandler wraps handler so that records carrying an error under
// ErrAttrKey also get StacktraceAttrKey and, for this module's structured
// errors, ErrorTypeKey attributes.
func WrapByErrFmtHandler(handler slog.Handler) slog.Handler {
	return &ErrFmtHandler{
		handler: handler,
	}
}

func (eh *ErrFmtHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return eh.handler.Enabled(ctx, l)
}

func (eh *ErrFmtHandler) Handle(ctx context.Context, r slog.Record) error {
	var logged error
	r.Attrs(func(attr slog.Attr) bool {
		if attr.Key == ErrAttrKey {
			logged, _ = attr.Value.Any().(error)
			return false
		}
		return true
	})
	if logged != nil {
		if st := extractStacktrace(logged); st != "" {
			r.AddAttrs(slog.String(StacktraceAttrKey, st))
		}
		if kind := errorType(logged); kind != "" {
			r.AddAttrs(slog.String(ErrorTypeKey, kind))
		}
	}
	return eh.handler.Handle(ctx, r)
}

func (eh *ErrFmtHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ErrFmtHandler{handler: eh.handler.WithAttrs(attrs)}
}

func (eh *ErrFmtHandler) WithGroup(g string) slog.Handler {
	return &ErrFmtHandler{handler: eh.handler.WithGroup(g)}
}

func extractStacktrace(err error) string {
	safeDetails := errors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return ""
}

// errorType names the innermost structured error in err's chain.
// ModelError は原因を包むだけなので最後に判定する。
func errorType(err error) string {
	var (
		notFitted    *mlerrors.NotFittedError
		dimension    *mlerrors.DimensionError
		insufficient *mlerrors.InsufficientSamplesError
		validation   *mlerrors.ValidationError
		value        *mlerrors.ValueError
		numerical    *mlerrors.NumericalInstabilityError
		panicErr     *mlerrors.PanicError
		model        *mlerrors.ModelError
	)
	switch {
	case errors.As(err, &notFitted):
		return "NotFittedError"
	case errors.As(err, &dimension):
		return "DimensionError"
	case errors.As(err, &insufficient):
		return "InsufficientSamplesError"
	case errors.As(err, &validation):
		return "ValidationError"
	case errors.As(err, &value):
		return "ValueError"
	case errors.As(err, &numerical):
		return "NumericalInstabilityError"
	case errors.As(err, &panicErr):
		return "PanicError"
	case errors.As(err, &model):
		return "ModelError"
	}
	return ""
}
