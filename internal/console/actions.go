package console

import (
	"strings"

	"github.com/riskibarqy/matchday-live/internal/domain/match"
)

var palettes = map[string][]Action{
	match.SportFootball: {
		{Label: "Goal", Type: "goal", Points: 1, RequiresPlayerAttribution: true},
		{Label: "Shot on target", Type: "shot_on"},
		{Label: "Shot off target", Type: "shot_off"},
		{Label: "Yellow card", Type: "card_yellow", RequiresPlayerAttribution: true},
		{Label: "Red card", Type: "card_red", RequiresPlayerAttribution: true},
		{Label: "Foul", Type: "foul"},
		{Label: "Corner", Type: "corner"},
		{Label: "Offside", Type: "offside"},
		{Label: "Save", Type: "save", RequiresPlayerAttribution: true},
	},
	match.SportBasketball: {
		{Label: "2 points", Type: "basket_2", Points: 2, RequiresPlayerAttribution: true},
		{Label: "3 points", Type: "basket_3", Points: 3, RequiresPlayerAttribution: true},
		{Label: "Free throw", Type: "free_throw", Points: 1, RequiresPlayerAttribution: true},
		{Label: "Rebound", Type: "rebound"},
		{Label: "Assist", Type: "assist"},
		{Label: "Steal", Type: "steal"},
		{Label: "Block", Type: "block"},
		{Label: "Foul", Type: "foul", RequiresPlayerAttribution: true},
		{Label: "Turnover", Type: "turnover"},
	},
	match.SportCricket: {
		{Label: "1 run", Type: "runs", Points: 1, RequiresPlayerAttribution: true, Metadata: map[string]any{"runs": 1}},
		{Label: "2 runs", Type: "runs", Points: 2, RequiresPlayerAttribution: true, Metadata: map[string]any{"runs": 2}},
		{Label: "3 runs", Type: "runs", Points: 3, RequiresPlayerAttribution: true, Metadata: map[string]any{"runs": 3}},
		{Label: "Four", Type: "boundary_4", Points: 4, RequiresPlayerAttribution: true},
		{Label: "Six", Type: "boundary_6", Points: 6, RequiresPlayerAttribution: true},
		{Label: "Wicket", Type: "wicket", RequiresPlayerAttribution: true},
		{Label: "Wide", Type: "wide", Points: 1},
		{Label: "No ball", Type: "no_ball", Points: 1},
	},
}

// ActionsFor returns the scorekeeper buttons for a sport. Unknown sports get an empty palette;
// the operator can still record free-form events through RecordAction.
func ActionsFor(sport string) []Action {
	palette := palettes[strings.ToLower(strings.TrimSpace(sport))]
	out := make([]Action, 0, len(palette))
	for _, action := range palette {
		out = append(out, action.clone())
	}
	return out
}
