package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sekata-go/internal/game"
	"sekata-go/internal/state"
)

func snapshot() *game.Snapshot {
	return &game.Snapshot{
		GameID:      "GAME01",
		HostID:      "alice",
		CurrentTurn: "alice",
		GameStarted: true,
		CardOnTable: "KATA",
		Players: map[string]game.PlayerView{
			"alice": {Hand: []game.Card{"BARU", "LAMA"}, HandSize: 2, Score: 4},
			"bob":   {HandSize: 7},
		},
		HelperCards:     []game.Card{"AN", "KU"},
		UsedHelperCards: []game.Card{"KU"},
		MainDeckCount:   40,
	}
}

func TestRenderNotInGame(t *testing.T) {
	out := Render(FromStore(state.NewStore()))
	assert.Contains(t, out, "not in a game")
	assert.NotContains(t, out, "table:")
}

func TestRenderGame(t *testing.T) {
	st := state.NewStore()
	st.PlayerID.Set("alice")
	st.GameID.Set("GAME01")
	st.Snapshot.Set(snapshot())
	st.Turn.Set(game.TurnState{
		Staged:  &game.StagedCard{Card: "AN", Kind: game.KindHelper},
		Moves:   []game.Move{{Card: "BARU", Kind: game.KindHand, Position: game.Before}},
		Preview: "BARUKATA", HandUsed: true, Seeded: true,
	})
	st.SetMessage("bad word", state.LevelError)

	out := Render(FromStore(st))
	for _, want := range []string{
		"GAME01", "your turn", "KATA", "BARUKATA",
		"staged:  AN (helper)", "1:BARU", "2:LAMA", "hand (used)",
		"[1:AN]", "2:KU", "> alice 4 (2 cards)", "bob 0 (7 cards)",
		"deck 40", "bad word",
	} {
		assert.Contains(t, out, want)
	}
}

func TestRenderStatusLine(t *testing.T) {
	cases := []struct {
		name string
		edit func(*game.Snapshot)
		want string
	}{
		{"other turn", func(s *game.Snapshot) { s.CurrentTurn = "bob" }, "turn: bob"},
		{"lobby", func(s *game.Snapshot) {
			s.GameStarted = false
			s.CurrentPlayersCount = 1
			s.MinPlayersToStart = 2
			s.CardOnTable = ""
		}, "waiting to start (1/2 players)"},
		{"winner", func(s *game.Snapshot) { s.Winner = "bob"; s.GameStarted = false }, "winner: bob"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := snapshot()
			tc.edit(s)
			out := Render(View{PlayerID: "alice", GameID: "GAME01", Snapshot: s})
			assert.Contains(t, out, tc.want)
		})
	}
}

func TestRenderEmptyHelpers(t *testing.T) {
	s := snapshot()
	s.HelperCards = nil
	out := Render(View{PlayerID: "alice", GameID: "GAME01", Snapshot: s, Submitting: true})
	assert.Contains(t, out, "helpers: none")
	assert.Contains(t, out, "submitting...")
}
