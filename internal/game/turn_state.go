package game

// StagedCard is a card picked by the local player that has not been placed yet.
type StagedCard struct {
	Card Card
	Kind Kind
}

// TurnState is the local, uncommitted staging for the player's upcoming turn.
// It is a value type: transitions return a new TurnState and never share the
// Moves backing array with the previous value.
type TurnState struct {
	Staged     *StagedCard
	Moves      []Move
	Preview    string
	HandUsed   bool
	HelperUsed bool

	// Seeded is set once Preview has been initialised from a table word.
	Seeded bool
}

// Used reports whether a card of kind k was already placed this turn.
func (t TurnState) Used(k Kind) bool {
	switch k {
	case KindHand:
		return t.HandUsed
	case KindHelper:
		return t.HelperUsed
	default:
		return false
	}
}

// HasHandMove reports whether any placed move consumes a hand card.
func (t TurnState) HasHandMove() bool {
	for _, m := range t.Moves {
		if m.Kind == KindHand {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no mutable memory with t.
func (t TurnState) Clone() TurnState {
	out := t
	if t.Staged != nil {
		s := *t.Staged
		out.Staged = &s
	}
	if t.Moves != nil {
		out.Moves = append([]Move(nil), t.Moves...)
	}
	return out
}
