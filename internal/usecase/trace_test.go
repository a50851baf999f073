package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/riskibarqy/matchday-live/internal/domain/match"
)

func TestIsCallerError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want bool
	}{
		{err: fmt.Errorf("%w: side must be a or b", ErrValidation), want: true},
		{err: domainError(match.ErrCompleted), want: true},
		{err: fmt.Errorf("get match: %w", ErrNotFound), want: true},
		{err: fmt.Errorf("%w: match=m1 attempts=3", ErrConflict), want: false},
		{err: errors.New("connection reset"), want: false},
	}
	for _, tc := range tests {
		if got := isCallerError(tc.err); got != tc.want {
			t.Fatalf("isCallerError(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestStartUsecaseSpan_NoParentKeepsContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	got, span := startUsecaseSpan(ctx, "usecase.Test", matchAttr("m1"))
	defer span.End()
	if got != ctx {
		t.Fatalf("expected untraced context to be returned unchanged")
	}
	if span.SpanContext().IsValid() {
		t.Fatalf("expected a noop span without a parent")
	}

	err := errors.New("boom")
	if failSpan(span, err) != err {
		t.Fatalf("failSpan must return its error")
	}
}
