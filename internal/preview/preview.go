// Package preview assembles the word a staged turn would produce.
package preview

import (
	"strings"

	"sekata-go/internal/game"
)

// WaitingText is shown instead of a word while there is no card on the table.
const WaitingText = "waiting for the opening card"

// Preview is the result of applying staged moves to the table word.
type Preview struct {
	Word    string
	Waiting bool
}

func (p Preview) String() string {
	if p.Waiting {
		return WaitingText
	}
	return p.Word
}

// Build applies moves to tableWord left to right: a move placed Before is
// prepended to the word built so far, a move placed After is appended.
// Moves with an unknown position are skipped.
func Build(tableWord string, moves []game.Move) Preview {
	if tableWord == "" {
		return Preview{Waiting: true}
	}
	if len(moves) == 0 {
		return Preview{Word: tableWord}
	}

	var head, tail []string
	for _, m := range moves {
		switch m.Position {
		case game.Before:
			head = append(head, string(m.Card))
		case game.After:
			tail = append(tail, string(m.Card))
		}
	}

	var b strings.Builder
	// Later prepends end up further left.
	for i := len(head) - 1; i >= 0; i-- {
		b.WriteString(head[i])
	}
	b.WriteString(tableWord)
	for _, s := range tail {
		b.WriteString(s)
	}
	return Preview{Word: b.String()}
}
