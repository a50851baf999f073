package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/matchday-live/internal/domain/roster"
	rostermock "github.com/riskibarqy/matchday-live/internal/mocks/domain/roster"
	basecache "github.com/riskibarqy/matchday-live/internal/platform/cache"
	"github.com/stretchr/testify/mock"
)

func TestRosterRepository_LoadsOncePerTeam(t *testing.T) {
	t.Parallel()

	next := rostermock.NewRepository(t)
	next.
		On("ListByTeam", mock.Anything, "persija").
		Return([]roster.Player{{ID: "p1", TeamID: "persija", Name: "Riko Simanjuntak", Number: 25}}, nil).
		Once()

	repo := NewRosterRepository(next, basecache.NewStore(time.Minute))
	for i := 0; i < 3; i++ {
		items, err := repo.ListByTeam(context.Background(), "persija")
		if err != nil {
			t.Fatalf("ListByTeam error: %v", err)
		}
		if len(items) != 1 || items[0].ID != "p1" {
			t.Fatalf("unexpected roster: %+v", items)
		}
		items[0].Name = "mutated"
	}
}

func TestRosterRepository_InvalidateReloads(t *testing.T) {
	t.Parallel()

	next := rostermock.NewRepository(t)
	next.On("ListByTeam", mock.Anything, "persib").Return([]roster.Player(nil), nil).Twice()

	repo := NewRosterRepository(next, basecache.NewStore(time.Minute))
	if _, err := repo.ListByTeam(context.Background(), "persib"); err != nil {
		t.Fatalf("ListByTeam error: %v", err)
	}
	repo.Invalidate(context.Background(), "persib")
	if _, err := repo.ListByTeam(context.Background(), "persib"); err != nil {
		t.Fatalf("ListByTeam error: %v", err)
	}
}

func TestRosterRepository_ErrorsAreNotCached(t *testing.T) {
	t.Parallel()

	next := rostermock.NewRepository(t)
	next.On("ListByTeam", mock.Anything, "persebaya").Return([]roster.Player(nil), errors.New("db down")).Once()
	next.On("ListByTeam", mock.Anything, "persebaya").Return([]roster.Player{{ID: "p9"}}, nil).Once()

	repo := NewRosterRepository(next, basecache.NewStore(time.Minute))
	if _, err := repo.ListByTeam(context.Background(), "persebaya"); err == nil {
		t.Fatalf("expected first load to fail")
	}
	items, err := repo.ListByTeam(context.Background(), "persebaya")
	if err != nil || len(items) != 1 {
		t.Fatalf("unexpected second load: %+v %v", items, err)
	}
}
