package turn

import (
	"slices"

	"go.uber.org/zap"

	"sekata-go/internal/game"
	"sekata-go/internal/state"
)

// Engine applies staging transitions to a Store's Turn slot. It checks card
// availability against the latest snapshot but not turn ownership; callers
// gate on that. Engine methods must run on the goroutine that owns the store.
type Engine struct {
	store *state.Store
	log   *zap.Logger
}

func NewEngine(store *state.Store, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{store: store, log: log.Named("turn")}
}

func (e *Engine) tableWord() string {
	if snap := e.store.Snapshot.Get(); snap != nil {
		return snap.CardOnTable
	}
	return ""
}

// Available reports whether card of kind may be staged against the current
// snapshot: hand cards must be in the local hand, helpers in the unused pool.
func (e *Engine) Available(card game.Card, kind game.Kind) bool {
	snap := e.store.Snapshot.Get()
	switch kind {
	case game.KindHand:
		return slices.Contains(snap.HandOf(e.store.PlayerID.Get()), card)
	case game.KindHelper:
		return snap.HelperAvailable(card)
	default:
		return false
	}
}

// Select stages card, or unstages it if it is already the staged card.
// It reports whether the turn state changed.
func (e *Engine) Select(card game.Card, kind game.Kind) bool {
	if !e.Available(card, kind) {
		e.log.Debug("select ignored: card not available",
			zap.String("card", string(card)), zap.String("kind", string(kind)))
		return false
	}
	cur := e.store.Turn.Get()
	next := Select(cur, card, kind)
	if sameStaging(cur, next) {
		e.log.Debug("select ignored", zap.String("card", string(card)), zap.String("kind", string(kind)),
			zap.Bool("kind_used", cur.Used(kind)))
		return false
	}
	e.store.Turn.Set(next)
	return true
}

// Deselect clears the staged card.
func (e *Engine) Deselect() bool {
	cur := e.store.Turn.Get()
	if cur.Staged == nil {
		return false
	}
	e.store.Turn.Set(Deselect(cur))
	return true
}

// Place commits the staged card at pos.
func (e *Engine) Place(pos game.Position) bool {
	cur := e.store.Turn.Get()
	next := Place(cur, pos, e.tableWord())
	if len(next.Moves) == len(cur.Moves) {
		e.log.Debug("place ignored", zap.String("position", string(pos)), zap.Bool("staged", cur.Staged != nil))
		return false
	}
	e.store.Turn.Set(next)
	return true
}

// Reset clears all staging and shows the bare table word.
func (e *Engine) Reset() {
	e.store.Turn.Set(Reset(e.tableWord()))
}

// Seed initialises the preview from the table word once.
func (e *Engine) Seed() bool {
	cur := e.store.Turn.Get()
	if cur.Seeded || e.tableWord() == "" {
		return false
	}
	e.store.Turn.Set(Seed(cur, e.tableWord()))
	return true
}

func sameStaging(a, b game.TurnState) bool {
	switch {
	case a.Staged == nil && b.Staged == nil:
		return true
	case a.Staged == nil || b.Staged == nil:
		return false
	default:
		return *a.Staged == *b.Staged
	}
}
