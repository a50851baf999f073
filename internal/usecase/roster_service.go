package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/matchday-live/internal/domain/roster"
	"go.opentelemetry.io/otel/attribute"
)

// RosterService is the read-only view of team rosters used for player attribution.
type RosterService struct {
	rosterRepo roster.Repository
}

func NewRosterService(rosterRepo roster.Repository) *RosterService {
	return &RosterService{rosterRepo: rosterRepo}
}

func (s *RosterService) ListByTeam(ctx context.Context, teamID string) ([]roster.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterService.ListByTeam", attribute.String("team.id", teamID))
	defer span.End()

	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return nil, fmt.Errorf("%w: team id is required", ErrValidation)
	}

	players, err := s.rosterRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("%w: list roster: %w", ErrDependencyUnavailable, err)
	}
	return players, nil
}
