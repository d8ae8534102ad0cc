package models

import "errors"

var (
	ErrInvalidJSON      = errors.New("invalid json")
	ErrMissingPlayerID  = errors.New("player id required")
	ErrGameNotFound     = errors.New("game not found")
	ErrGameExists       = errors.New("game already exists")
	ErrPlayerExists     = errors.New("player already in game")
	ErrNotAPlayer       = errors.New("not a player")
	ErrNotHost          = errors.New("only the host can start the game")
	ErrNotEnoughPlayers = errors.New("not enough players")
	ErrAlreadyStarted   = errors.New("game already started")
	ErrNotStarted       = errors.New("game not started")
	ErrGameOver         = errors.New("game over")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrNoMoves          = errors.New("no moves")
	ErrNoHandMove       = errors.New("a turn needs exactly one hand card")
	ErrTooManyMoves     = errors.New("at most one hand and one helper card per turn")
	ErrInvalidMove      = errors.New("invalid move")
	ErrCardNotInHand    = errors.New("card not in hand")
	ErrHelperNotFound   = errors.New("helper card not available")
	ErrEmptyDeck        = errors.New("deck is empty")
	ErrUnknownAction    = errors.New("unknown turn action")
)
