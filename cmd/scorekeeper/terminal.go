package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/riskibarqy/matchday-live/internal/console"
	"github.com/riskibarqy/matchday-live/internal/domain/match"
	"github.com/riskibarqy/matchday-live/internal/domain/matchstats"
	"github.com/riskibarqy/matchday-live/internal/domain/roster"
)

var (
	_ console.PlayerPrompter = (*terminal)(nil)
	_ console.Confirmer      = (*terminal)(nil)
	_ console.Notifier       = (*terminal)(nil)
)

// terminal is the line-based operator surface. Input is read on one goroutine so the
// command loop and the controller prompts share a single stream.
type terminal struct {
	lines <-chan string

	mu         sync.Mutex
	out        io.Writer
	scoreboard string
}

func newTerminal(in io.Reader, out io.Writer) *terminal {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return &terminal{lines: lines, out: out}
}

// readLine returns false on EOF or when ctx ends.
func (t *terminal) readLine(ctx context.Context) (string, bool) {
	select {
	case <-ctx.Done():
		return "", false
	case line, ok := <-t.lines:
		return strings.TrimSpace(line), ok
	}
}

func (t *terminal) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format, args...)
}

func (t *terminal) PromptPlayer(ctx context.Context, side match.Slot, players []roster.Player) (roster.Player, bool, error) {
	if len(players) == 0 {
		return roster.Player{}, false, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "player for side %s:\n", side)
	for i, p := range players {
		fmt.Fprintf(&b, "  %d) #%d %s\n", i+1, p.Number, p.DisplayName())
	}
	b.WriteString("pick (blank cancels): ")
	t.printf("%s", b.String())

	line, ok := t.readLine(ctx)
	if !ok {
		if err := ctx.Err(); err != nil {
			return roster.Player{}, false, err
		}
		return roster.Player{}, false, nil
	}
	if line == "" {
		return roster.Player{}, false, nil
	}
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(players) {
		t.printf("no player %q\n", line)
		return roster.Player{}, false, nil
	}
	return players[n-1], true, nil
}

func (t *terminal) Confirm(ctx context.Context, prompt string) (bool, error) {
	t.printf("%s [y/N]: ", prompt)
	line, ok := t.readLine(ctx)
	if !ok {
		return false, ctx.Err()
	}
	switch strings.ToLower(line) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (t *terminal) SyncFailed(failure console.SyncFailure) {
	t.printf("! %s (view reloaded)\n", failure.Error())
}

// ViewChanged prints the scoreboard when score or status moved. Clock ticks alone stay quiet.
func (t *terminal) ViewChanged(view console.View) {
	line := scoreboard(view.Match, len(view.Pending))
	t.mu.Lock()
	defer t.mu.Unlock()
	if line == t.scoreboard {
		return
	}
	t.scoreboard = line
	fmt.Fprintln(t.out, line)
}

func scoreboard(m match.Match, pending int) string {
	line := fmt.Sprintf("[%s] %s %d - %d %s", m.Status, m.TeamAID, m.ScoreA, m.ScoreB, m.TeamBID)
	if pending > 0 {
		line += fmt.Sprintf(" (%d syncing)", pending)
	}
	return line
}

func renderActions(actions []console.Action) string {
	var b strings.Builder
	for i, a := range actions {
		fmt.Fprintf(&b, "  %2d) %s", i+1, a.Label)
		if a.Points > 0 {
			fmt.Fprintf(&b, " +%d", a.Points)
		}
		if a.RequiresPlayerAttribution {
			b.WriteString(" *")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderView(view console.View, limit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  clock %s\n", scoreboard(view.Match, len(view.Pending)), view.Clock)
	for i, e := range view.Events {
		if limit > 0 && i >= limit {
			fmt.Fprintf(&b, "  ... %d more\n", len(view.Events)-limit)
			break
		}
		fmt.Fprintf(&b, "  %s\n", e.Message)
	}
	return b.String()
}

func renderStats(stats matchstats.Stats) string {
	var b strings.Builder
	for _, key := range stats.Keys() {
		fmt.Fprintf(&b, "  %-22s %d\n", key, stats.Values[key])
	}
	return b.String()
}

type commandKind int

const (
	cmdRecord commandKind = iota + 1
	cmdStart
	cmdPause
	cmdFinish
	cmdView
	cmdStats
	cmdRefresh
	cmdHelp
	cmdQuit
)

type command struct {
	kind   commandKind
	action int
	side   string
}

var keywords = map[string]commandKind{
	"start":   cmdStart,
	"pause":   cmdPause,
	"resume":  cmdPause,
	"finish":  cmdFinish,
	"view":    cmdView,
	"v":       cmdView,
	"stats":   cmdStats,
	"refresh": cmdRefresh,
	"help":    cmdHelp,
	"?":       cmdHelp,
	"quit":    cmdQuit,
	"exit":    cmdQuit,
	"q":       cmdQuit,
}

// parseCommand accepts a keyword or "<action number> <a|b>". actionCount bounds the number.
func parseCommand(line string, actionCount int) (command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return command{}, fmt.Errorf("empty command")
	}
	if kind, ok := keywords[fields[0]]; ok {
		if len(fields) > 1 {
			return command{}, fmt.Errorf("%s takes no arguments", fields[0])
		}
		return command{kind: kind}, nil
	}

	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return command{}, fmt.Errorf("unknown command %q", fields[0])
	}
	if n < 1 || n > actionCount {
		return command{}, fmt.Errorf("action must be between 1 and %d", actionCount)
	}
	if len(fields) != 2 {
		return command{}, fmt.Errorf("usage: <action> <a|b>")
	}
	if _, err := match.ParseSlot(fields[1]); err != nil {
		return command{}, fmt.Errorf("side must be a or b")
	}
	return command{kind: cmdRecord, action: n - 1, side: fields[1]}, nil
}

const helpText = `commands:
  <n> <a|b>   record action n for side a or b (* asks for a player)
  start       start a scheduled match
  pause       pause or resume
  finish      complete the match
  view        score, clock and recent events
  stats       projected stats from the live feed
  refresh     reload from the server
  quit
`
