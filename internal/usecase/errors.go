package usecase

import (
	"errors"
	"fmt"

	"github.com/riskibarqy/matchday-live/internal/domain/match"
	"github.com/riskibarqy/matchday-live/internal/domain/matchstats"
)

var (
	ErrValidation            = errors.New("invalid input")
	ErrInvalidState          = errors.New("invalid match state")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrConflict              = errors.New("concurrent update conflict")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// domainError lifts aggregate sentinels into the usecase taxonomy, keeping both in the chain.
func domainError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, match.ErrCompleted):
		return fmt.Errorf("%w: %w", ErrInvalidState, err)
	case errors.Is(err, match.ErrInvalidTransition):
		return fmt.Errorf("%w: %w", ErrInvalidTransition, err)
	case errors.Is(err, match.ErrInvalidSide), errors.Is(err, match.ErrNegativeScore), errors.Is(err, matchstats.ErrUnsupportedSport):
		return fmt.Errorf("%w: %w", ErrValidation, err)
	default:
		return err
	}
}
