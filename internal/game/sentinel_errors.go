package game

import "errors"

// Returned when a local action is attempted outside the player's turn.
var (
	ErrNotYourTurn    = errors.New("not your turn")
	ErrGameNotStarted = errors.New("game not started")
	ErrGameOver       = errors.New("game over")
	ErrNotInGame      = errors.New("not in a game")
)
