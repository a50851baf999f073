package usecase

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var usecaseTracer = otel.Tracer("matchday-live/internal/usecase")

// startUsecaseSpan only opens child spans; without a traced request the noop span in ctx is
// returned as is.
func startUsecaseSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	parent := trace.SpanFromContext(ctx)
	if strings.TrimSpace(name) == "" || !parent.SpanContext().IsValid() {
		return ctx, parent
	}
	return usecaseTracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func matchAttr(matchID string) attribute.KeyValue {
	return attribute.String("match.id", strings.TrimSpace(matchID))
}

// failSpan records err on span unless it is the caller's fault, and returns err unchanged.
func failSpan(span trace.Span, err error) error {
	if err == nil || isCallerError(err) {
		return err
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func isCallerError(err error) bool {
	for _, target := range []error{ErrValidation, ErrNotFound, ErrInvalidState, ErrInvalidTransition, ErrUnauthorized, ErrForbidden} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
