package matchstats

import (
	"github.com/riskibarqy/matchday-live/internal/domain/match"
	"github.com/riskibarqy/matchday-live/internal/domain/matchevent"
)

type increment struct {
	stat   string
	amount func(matchevent.Event) int
}

type sportTable struct {
	stats  []string
	manual []string
	rules  map[string][]increment
}

func by(stat string, n int) increment {
	return increment{stat: stat, amount: func(matchevent.Event) int { return n }}
}

func fromMetadata(stat, field string) increment {
	return increment{stat: stat, amount: func(e matchevent.Event) int {
		n, _ := e.IntMetadata(field)
		return n
	}}
}

var tables = map[string]sportTable{
	match.SportFootball: {
		stats:  []string{"goals", "ontarget", "offtarget", "yellow", "red", "fouls", "corners", "offsides", "saves"},
		manual: []string{"possession"},
		rules: map[string][]increment{
			"goal":        {by("goals", 1), by("ontarget", 1)},
			"shot_on":     {by("ontarget", 1)},
			"shot_off":    {by("offtarget", 1)},
			"card_yellow": {by("yellow", 1)},
			"card_red":    {by("red", 1)},
			"foul":        {by("fouls", 1)},
			"corner":      {by("corners", 1)},
			"offside":     {by("offsides", 1)},
			"save":        {by("saves", 1)},
		},
	},
	match.SportBasketball: {
		stats: []string{"points", "fg_made", "threes", "ft_made", "rebounds", "assists", "steals", "blocks", "fouls", "turnovers"},
		rules: map[string][]increment{
			"basket_2":   {by("points", 2), by("fg_made", 1)},
			"basket_3":   {by("points", 3), by("threes", 1), by("fg_made", 1)},
			"free_throw": {by("points", 1), by("ft_made", 1)},
			"rebound":    {by("rebounds", 1)},
			"assist":     {by("assists", 1)},
			"steal":      {by("steals", 1)},
			"block":      {by("blocks", 1)},
			"foul":       {by("fouls", 1)},
			"turnover":   {by("turnovers", 1)},
		},
	},
	match.SportCricket: {
		stats: []string{"runs", "fours", "sixes", "wickets", "extras"},
		rules: map[string][]increment{
			"runs":       {fromMetadata("runs", "runs")},
			"boundary_4": {by("runs", 4), by("fours", 1)},
			"boundary_6": {by("runs", 6), by("sixes", 1)},
			"wicket":     {by("wickets", 1)},
			"wide":       {by("extras", 1), by("runs", 1)},
			"no_ball":    {by("extras", 1), by("runs", 1)},
		},
	},
}
