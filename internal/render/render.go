// Package render draws the client store as a terminal screen.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"sekata-go/internal/game"
	"sekata-go/internal/preview"
	"sekata-go/internal/state"
)

var (
	clrBorder = lipgloss.Color("#30363d")
	clrSubtle = lipgloss.Color("#8b949e")
	clrGold   = lipgloss.Color("#e3b341")
	clrGreen  = lipgloss.Color("#3fb950")
	clrRed    = lipgloss.Color("#f85149")
	clrTitle  = lipgloss.Color("#58a6ff")
)

func fg(c lipgloss.Color) lipgloss.Style   { return lipgloss.NewStyle().Foreground(c) }
func bold(c lipgloss.Color) lipgloss.Style { return fg(c).Bold(true) }

// View is everything one frame shows.
type View struct {
	PlayerID   string
	GameID     string
	Snapshot   *game.Snapshot
	Turn       game.TurnState
	Message    state.Message
	Submitting bool
}

// FromStore reads every slot once.
func FromStore(s *state.Store) View {
	return View{
		PlayerID: s.PlayerID.Get(),
		GameID:   s.GameID.Get(),
		Snapshot: s.Snapshot.Get(),
		Turn:     s.Turn.Get(),
		Message:  s.Message.Get(),
	}
}

// Render draws v. Cards are numbered from 1 so commands can refer to them.
func Render(v View) string {
	var sections []string
	sections = append(sections, header(v))

	if v.Snapshot != nil {
		sections = append(sections, board(v), cards("hand", v.Snapshot.HandOf(v.PlayerID), v.Turn, game.KindHand, nil))
		used := func(c game.Card) bool { return !v.Snapshot.HelperAvailable(c) }
		sections = append(sections, cards("helpers", v.Snapshot.HelperCards, v.Turn, game.KindHelper, used))
		sections = append(sections, scores(v))
	}
	if line := message(v.Message); line != "" {
		sections = append(sections, line)
	}
	return box(strings.Join(sections, "\n\n"))
}

func header(v View) string {
	title := bold(clrTitle).Render("SeKata")
	if v.GameID == "" {
		return title + fg(clrSubtle).Render("  not in a game")
	}
	s := fmt.Sprintf("%s  game %s  as %s", title, bold(clrGold).Render(v.GameID), v.PlayerID)
	if v.Submitting {
		s += fg(clrSubtle).Render("  submitting...")
	}
	return s
}

func board(v View) string {
	snap := v.Snapshot
	var status string
	switch {
	case snap.HasWinner():
		status = bold(clrGreen).Render("winner: " + snap.Winner)
	case !snap.GameStarted:
		status = fg(clrSubtle).Render(fmt.Sprintf("waiting to start (%d/%d players)", snap.CurrentPlayersCount, snap.MinPlayersToStart))
	case snap.IsTurnOf(v.PlayerID):
		status = bold(clrGold).Render("your turn")
	default:
		status = "turn: " + snap.CurrentTurn
	}

	table := snap.CardOnTable
	if table == "" {
		table = preview.WaitingText
	}
	lines := []string{
		status,
		"table:   " + bold(clrTitle).Render(table),
		"preview: " + bold(clrGold).Render(v.Turn.Preview),
	}
	if st := v.Turn.Staged; st != nil {
		lines = append(lines, fg(clrSubtle).Render(fmt.Sprintf("staged:  %s (%s)", st.Card, st.Kind)))
	}
	lines = append(lines, fg(clrSubtle).Render(fmt.Sprintf("deck %d  checks %d", snap.MainDeckCount, snap.CheckCount)))
	return strings.Join(lines, "\n")
}

func cards(label string, list []game.Card, ts game.TurnState, kind game.Kind, spent func(game.Card) bool) string {
	if len(list) == 0 {
		return fmt.Sprintf("%s: %s", label, fg(clrSubtle).Render("none"))
	}
	parts := make([]string, 0, len(list))
	for i, c := range list {
		text := fmt.Sprintf("%d:%s", i+1, c)
		switch {
		case spent != nil && spent(c):
			text = fg(clrSubtle).Strikethrough(true).Render(text)
		case ts.Staged != nil && ts.Staged.Kind == kind && ts.Staged.Card == c:
			text = bold(clrGold).Render("[" + text + "]")
		}
		parts = append(parts, text)
	}
	if ts.Used(kind) {
		label += " (used)"
	}
	return label + ": " + strings.Join(parts, "  ")
}

func scores(v View) string {
	ids := v.Snapshot.PlayerIDs()
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		p := v.Snapshot.Players[id]
		s := fmt.Sprintf("%s %d (%d cards)", id, p.Score, p.HandSize)
		if id == v.Snapshot.CurrentTurn && v.Snapshot.GameStarted {
			s = "> " + s
		}
		parts = append(parts, s)
	}
	return "players: " + strings.Join(parts, ", ")
}

func message(m state.Message) string {
	if m.Text == "" {
		return ""
	}
	switch m.Level {
	case state.LevelError:
		return bold(clrRed).Render(m.Text)
	case state.LevelSuccess:
		return fg(clrGreen).Render(m.Text)
	default:
		return m.Text
	}
}

func box(content string) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(clrBorder).
		Padding(0, 1).
		Render(content)
}
