package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/matchday-live/internal/domain/roster"
	rostermock "github.com/riskibarqy/matchday-live/internal/mocks/domain/roster"
	"github.com/stretchr/testify/mock"
)

func TestRosterService_ListByTeam(t *testing.T) {
	t.Parallel()

	repo := rostermock.NewRepository(t)
	repo.On("ListByTeam", mock.Anything, "persija").
		Return([]roster.Player{{ID: "p1", TeamID: "persija", Name: "Marko Simic", Number: 9}}, nil).
		Once()

	players, err := NewRosterService(repo).ListByTeam(context.Background(), " persija ")
	if err != nil {
		t.Fatalf("ListByTeam error: %v", err)
	}
	if len(players) != 1 || players[0].Number != 9 {
		t.Fatalf("unexpected players: %+v", players)
	}
}

func TestRosterService_ListByTeamErrors(t *testing.T) {
	t.Parallel()

	svc := NewRosterService(rostermock.NewRepository(t))
	if _, err := svc.ListByTeam(context.Background(), "  "); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	repo := rostermock.NewRepository(t)
	repo.On("ListByTeam", mock.Anything, "persib").Return([]roster.Player(nil), errors.New("timeout")).Once()
	if _, err := NewRosterService(repo).ListByTeam(context.Background(), "persib"); !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
}
