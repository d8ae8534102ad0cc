// Package turn stages the local player's card placements before they are
// committed as a single turn.
package turn

import (
	"sekata-go/internal/game"
	"sekata-go/internal/preview"
)

// Select stages card. Selecting the card that is already staged deselects it,
// and a kind already placed this turn leaves ts unchanged.
func Select(ts game.TurnState, card game.Card, kind game.Kind) game.TurnState {
	if !kind.Valid() || card == "" || ts.Used(kind) {
		return ts
	}
	out := ts.Clone()
	if ts.Staged != nil && ts.Staged.Card == card && ts.Staged.Kind == kind {
		out.Staged = nil
		return out
	}
	out.Staged = &game.StagedCard{Card: card, Kind: kind}
	return out
}

// Deselect drops the staged card, if any.
func Deselect(ts game.TurnState) game.TurnState {
	if ts.Staged == nil {
		return ts
	}
	out := ts.Clone()
	out.Staged = nil
	return out
}

// Place commits the staged card to position and rebuilds the preview against
// tableWord. Without a staged card, or with an unknown position, ts is
// returned unchanged.
func Place(ts game.TurnState, pos game.Position, tableWord string) game.TurnState {
	if ts.Staged == nil || !pos.Valid() || ts.Used(ts.Staged.Kind) {
		return ts
	}
	out := ts.Clone()
	staged := *out.Staged
	out.Moves = append(out.Moves, game.Move{Card: staged.Card, Kind: staged.Kind, Position: pos})
	switch staged.Kind {
	case game.KindHand:
		out.HandUsed = true
	case game.KindHelper:
		out.HelperUsed = true
	}
	out.Staged = nil
	out.Preview = preview.Build(tableWord, out.Moves).String()
	out.Seeded = ts.Seeded || tableWord != ""
	return out
}

// Reset returns the empty staging for a fresh turn over tableWord.
func Reset(tableWord string) game.TurnState {
	return game.TurnState{
		Preview: preview.Build(tableWord, nil).String(),
		Seeded:  tableWord != "",
	}
}

// Seed fills the preview from tableWord if it was never initialised, leaving
// everything else untouched.
func Seed(ts game.TurnState, tableWord string) game.TurnState {
	if ts.Seeded || tableWord == "" {
		return ts
	}
	out := ts.Clone()
	out.Preview = preview.Build(tableWord, out.Moves).String()
	out.Seeded = true
	return out
}
