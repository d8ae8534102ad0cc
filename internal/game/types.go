package game

import (
	"slices"
	"sort"
)

// Card is a playable word fragment. Two cards are the same card when their text is equal.
type Card string

// Kind says where a card came from.
type Kind string

const (
	KindHand   Kind = "hand"
	KindHelper Kind = "helper"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == KindHand || k == KindHelper
}

// Position is the side of the table word a card is attached to.
type Position string

const (
	Before Position = "before"
	After  Position = "after"
)

// Valid reports whether p is one of the known positions.
func (p Position) Valid() bool {
	return p == Before || p == After
}

// Move is one committed placement of a card against the table word.
type Move struct {
	Card     Card     `json:"card"`
	Kind     Kind     `json:"kind"`
	Position Position `json:"position"`
}

// PlayerView is what the server reveals about one player. Hand is only filled
// for the player the snapshot was requested for.
type PlayerView struct {
	Hand     []Card `json:"hand"`
	HandSize int    `json:"hand_size"`
	Score    int    `json:"score"`
}

// Snapshot is the authoritative game status as returned by one poll.
// It is replaced wholesale by the next poll and never mutated in place.
type Snapshot struct {
	GameID          string                `json:"game_id"`
	HostID          string                `json:"host_id"`
	CurrentTurn     string                `json:"current_turn"`
	GameStarted     bool                  `json:"game_started"`
	CardOnTable     string                `json:"card_on_table"`
	Players         map[string]PlayerView `json:"players"`
	HelperCards     []Card                `json:"helper_cards"`
	UsedHelperCards []Card                `json:"used_helper_cards"`
	Winner          string                `json:"winner,omitempty"`

	MainDeckCount       int `json:"main_deck_count"`
	CheckCount          int `json:"check_count"`
	MinPlayersToStart   int `json:"min_players_to_start"`
	CurrentPlayersCount int `json:"current_players_count"`
}

// HasWinner reports whether the game is over.
func (s *Snapshot) HasWinner() bool {
	return s != nil && s.Winner != ""
}

// IsTurnOf reports whether the game has started and it is playerID's turn.
func (s *Snapshot) IsTurnOf(playerID string) bool {
	return s != nil && s.GameStarted && playerID != "" && s.CurrentTurn == playerID
}

// HandOf returns the hand of playerID, or nil if the player is unknown.
func (s *Snapshot) HandOf(playerID string) []Card {
	if s == nil {
		return nil
	}
	return s.Players[playerID].Hand
}

// HelperAvailable reports whether c is in the helper pool and has not been consumed.
func (s *Snapshot) HelperAvailable(c Card) bool {
	if s == nil {
		return false
	}
	return slices.Contains(s.HelperCards, c) && !slices.Contains(s.UsedHelperCards, c)
}

// PlayerIDs returns the player ids in a stable order.
func (s *Snapshot) PlayerIDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.Players))
	for id := range s.Players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CanStart reports whether hostID may start the game now.
func (s *Snapshot) CanStart(playerID string) bool {
	if s == nil || s.GameStarted || s.HasWinner() {
		return false
	}
	return s.HostID == playerID && s.CurrentPlayersCount >= s.MinPlayersToStart
}
