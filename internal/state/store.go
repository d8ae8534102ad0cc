// Package state holds the client's observable state: the latest server
// snapshot, who and where we are, the local turn staging and the message
// shown to the player.
package state

import "sekata-go/internal/game"

// Level classifies a user-visible message.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Message is the single line of feedback shown to the player.
type Message struct {
	Text  string
	Level Level
}

// Store groups the client slots. Create one per game client with NewStore;
// there is no package-level store.
type Store struct {
	Snapshot *Slot[*game.Snapshot]
	PlayerID *Slot[string]
	GameID   *Slot[string]
	Turn     *Slot[game.TurnState]
	Message  *Slot[Message]
}

func NewStore() *Store {
	return &Store{
		Snapshot: NewSlot[*game.Snapshot]("snapshot", nil),
		PlayerID: NewSlot("player_id", ""),
		GameID:   NewSlot("game_id", ""),
		Turn:     NewSlot("turn", game.TurnState{}),
		Message:  NewSlot("message", Message{}),
	}
}

// SetMessage replaces the current message.
func (s *Store) SetMessage(text string, level Level) {
	s.Message.Set(Message{Text: text, Level: level})
}

// ClearMessage empties the current message.
func (s *Store) ClearMessage() {
	s.Message.Set(Message{})
}

// InGame reports whether both the player and the game are known.
func (s *Store) InGame() bool {
	return s.PlayerID.Get() != "" && s.GameID.Get() != ""
}

// IsMyTurn reports whether the latest snapshot gives the turn to the local player.
func (s *Store) IsMyTurn() bool {
	return s.Snapshot.Get().IsTurnOf(s.PlayerID.Get())
}

// ResetAll returns every slot to its empty value, notifying subscribers.
func (s *Store) ResetAll() {
	s.PlayerID.Set("")
	s.GameID.Set("")
	s.Snapshot.Set(nil)
	s.Message.Set(Message{})
	s.Turn.Set(game.TurnState{})
}
