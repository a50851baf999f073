package matchstats

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/riskibarqy/matchday-live/internal/domain/match"
	"github.com/riskibarqy/matchday-live/internal/domain/matchevent"
)

var ErrUnsupportedSport = errors.New("unsupported sport")

// Stats is the derived statistics record. Values holds every key of the sport, suffixed _a/_b.
type Stats struct {
	Sport  string
	Values map[string]int
}

func (s Stats) Get(stat string, side match.Slot) int {
	return s.Values[key(stat, side)]
}

// Keys returns the value keys in a stable order.
func (s Stats) Keys() []string {
	return slices.Sorted(maps.Keys(s.Values))
}

// Project folds the full event log of one match into the sport's stat table.
// Events of unknown type or unresolvable side contribute nothing.
func Project(sport string, m match.Match, events []matchevent.Event) (Stats, error) {
	sport = strings.ToLower(strings.TrimSpace(sport))
	table, ok := tables[sport]
	if !ok {
		return Stats{}, fmt.Errorf("%w: %q", ErrUnsupportedSport, sport)
	}

	values := make(map[string]int, 2*(len(table.stats)+len(table.manual)))
	for _, stat := range table.stats {
		values[key(stat, match.SlotA)] = 0
		values[key(stat, match.SlotB)] = 0
	}
	for _, stat := range table.manual {
		values[key(stat, match.SlotA)] = m.ManualStats[key(stat, match.SlotA)]
		values[key(stat, match.SlotB)] = m.ManualStats[key(stat, match.SlotB)]
	}

	for _, event := range events {
		rules, known := table.rules[strings.ToLower(strings.TrimSpace(event.Type))]
		if !known {
			continue
		}
		side, ok := m.SideOf(event.TeamID)
		if !ok {
			continue
		}
		for _, inc := range rules {
			values[key(inc.stat, side)] += inc.amount(event)
		}
	}

	return Stats{Sport: sport, Values: values}, nil
}

// Supported reports whether a projection table exists for the sport.
func Supported(sport string) bool {
	_, ok := tables[strings.ToLower(strings.TrimSpace(sport))]
	return ok
}

func key(stat string, side match.Slot) string {
	return stat + "_" + string(side)
}
