package turn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sekata-go/internal/game"
	"sekata-go/internal/state"
)

func newTestEngine(t *testing.T) (*Engine, *state.Store) {
	t.Helper()
	st := state.NewStore()
	st.PlayerID.Set("alice")
	st.GameID.Set("G1")
	st.Snapshot.Set(&game.Snapshot{
		GameID:      "G1",
		CurrentTurn: "alice",
		GameStarted: true,
		CardOnTable: "KATA",
		Players: map[string]game.PlayerView{
			"alice": {Hand: []game.Card{"BARU", "LAIN"}, HandSize: 2},
			"bob":   {HandSize: 7},
		},
		HelperCards:     []game.Card{"AN", "KAN", "ME"},
		UsedHelperCards: []game.Card{"ME"},
	})
	e := NewEngine(st, nil)
	e.Reset()
	return e, st
}

func TestEngineKataFlow(t *testing.T) {
	e, st := newTestEngine(t)

	require.True(t, e.Select("BARU", game.KindHand))
	require.True(t, e.Place(game.Before))
	require.True(t, e.Select("AN", game.KindHelper))
	require.True(t, e.Place(game.After))

	ts := st.Turn.Get()
	assert.Equal(t, "BARUKATAAN", ts.Preview)
	assert.True(t, ts.HandUsed)
	assert.True(t, ts.HelperUsed)
	assert.True(t, ts.HasHandMove())
}

func TestEngineRejectsUnavailableCards(t *testing.T) {
	e, st := newTestEngine(t)
	before := st.Turn.Get()

	assert.False(t, e.Select("BUKAN", game.KindHand), "not in hand")
	assert.False(t, e.Select("ME", game.KindHelper), "helper already used")
	assert.False(t, e.Select("XYZ", game.KindHelper), "not in helper pool")
	assert.False(t, e.Select("AN", "joker"), "unknown kind")

	assert.Equal(t, before, st.Turn.Get())
}

func TestEngineSecondHandCardIgnored(t *testing.T) {
	e, st := newTestEngine(t)
	require.True(t, e.Select("BARU", game.KindHand))
	require.True(t, e.Place(game.Before))

	assert.False(t, e.Select("LAIN", game.KindHand))
	assert.Len(t, st.Turn.Get().Moves, 1)
}

func TestEnginePlaceWithoutSelection(t *testing.T) {
	e, _ := newTestEngine(t)
	assert.False(t, e.Place(game.After))
}

func TestEngineDeselect(t *testing.T) {
	e, st := newTestEngine(t)
	assert.False(t, e.Deselect())

	require.True(t, e.Select("LAIN", game.KindHand))
	require.True(t, e.Deselect())
	assert.Nil(t, st.Turn.Get().Staged)
}

func TestEngineNotifiesTurnSubscribers(t *testing.T) {
	e, st := newTestEngine(t)

	var previews []string
	st.Turn.Subscribe(func(ts game.TurnState) { previews = append(previews, ts.Preview) })

	e.Select("BARU", game.KindHand)
	e.Place(game.Before)

	assert.Equal(t, []string{"KATA", "KATA", "BARUKATA"}, previews)
}

func TestEngineSeed(t *testing.T) {
	st := state.NewStore()
	e := NewEngine(st, nil)
	assert.False(t, e.Seed(), "no snapshot yet")

	st.Snapshot.Set(&game.Snapshot{CardOnTable: "KATA"})
	assert.True(t, e.Seed())
	assert.False(t, e.Seed())
	assert.Equal(t, "KATA", st.Turn.Get().Preview)
}
