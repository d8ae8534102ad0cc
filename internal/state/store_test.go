package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sekata-go/internal/game"
)

func TestSubscribeCallsImmediatelyWithCurrentValue(t *testing.T) {
	st := NewStore()
	st.PlayerID.Set("alice")

	var got []string
	st.PlayerID.Subscribe(func(v string) { got = append(got, v) })

	assert.Equal(t, []string{"alice"}, got)
}

func TestSetNotifiesSubscribersInOrder(t *testing.T) {
	st := NewStore()

	var calls []string
	st.GameID.Subscribe(func(v string) { calls = append(calls, "first:"+v) })
	st.GameID.Subscribe(func(v string) { calls = append(calls, "second:"+v) })
	calls = nil

	st.GameID.Set("ABC123")

	assert.Equal(t, []string{"first:ABC123", "second:ABC123"}, calls)
	assert.Equal(t, "ABC123", st.GameID.Get())
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	st := NewStore()

	n := 0
	unsub := st.Message.Subscribe(func(Message) { n++ })
	require.Equal(t, 1, n)

	st.SetMessage("hi", LevelInfo)
	require.Equal(t, 2, n)

	unsub()
	unsub()
	st.SetMessage("bye", LevelInfo)
	assert.Equal(t, 2, n)
}

func TestReentrantSetPanics(t *testing.T) {
	st := NewStore()
	st.GameID.Subscribe(func(v string) {
		if v == "loop" {
			st.GameID.Set("again")
		}
	})

	assert.Panics(t, func() { st.GameID.Set("loop") })

	// The slot is usable again after the panic unwinds.
	assert.NotPanics(t, func() { st.GameID.Set("ok") })
}

func TestSetOtherSlotFromSubscriberIsAllowed(t *testing.T) {
	st := NewStore()
	st.Snapshot.Subscribe(func(s *game.Snapshot) {
		if s != nil {
			st.SetMessage("turn: "+s.CurrentTurn, LevelInfo)
		}
	})

	st.Snapshot.Set(&game.Snapshot{CurrentTurn: "bob"})

	assert.Equal(t, Message{Text: "turn: bob", Level: LevelInfo}, st.Message.Get())
}

func TestResetAll(t *testing.T) {
	st := NewStore()
	st.PlayerID.Set("alice")
	st.GameID.Set("G1")
	st.Snapshot.Set(&game.Snapshot{GameID: "G1"})
	st.Turn.Set(game.TurnState{Preview: "KATA", HandUsed: true})
	st.SetMessage("x", LevelError)

	st.ResetAll()

	assert.False(t, st.InGame())
	assert.Nil(t, st.Snapshot.Get())
	assert.Equal(t, game.TurnState{}, st.Turn.Get())
	assert.Equal(t, Message{}, st.Message.Get())
}

func TestIsMyTurn(t *testing.T) {
	st := NewStore()
	st.PlayerID.Set("alice")
	assert.False(t, st.IsMyTurn())

	st.Snapshot.Set(&game.Snapshot{CurrentTurn: "alice", GameStarted: false})
	assert.False(t, st.IsMyTurn(), "not started")

	st.Snapshot.Set(&game.Snapshot{CurrentTurn: "alice", GameStarted: true})
	assert.True(t, st.IsMyTurn())
}
