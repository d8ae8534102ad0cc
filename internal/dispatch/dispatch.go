// Package dispatch sends the player's actions to the server and folds the
// answers back into the store.
package dispatch

import (
	"context"
	"errors"
	"sync/atomic"

	"go.uber.org/zap"

	"sekata-go/internal/api"
	"sekata-go/internal/game"
	"sekata-go/internal/state"
	"sekata-go/internal/turn"
)

var (
	ErrNothingToSubmit = errors.New("no cards placed")
	ErrNoHandMove      = errors.New("at least one card from your hand is required")
	ErrSubmitInFlight  = errors.New("a submission is already in progress")
	ErrNotInGame       = game.ErrNotInGame
)

// Backend is the set of server calls the Dispatcher makes.
type Backend interface {
	CreateGame(ctx context.Context, playerID string) (api.Created, error)
	JoinGame(ctx context.Context, gameID, playerID string) (string, error)
	StartGame(ctx context.Context, gameID, playerID string) (string, error)
	SubmitTurn(ctx context.Context, gameID, playerID string, moves []game.Move) (api.Submitted, error)
	CheckTurn(ctx context.Context, gameID, playerID string) (string, error)
}

type Option func(*Dispatcher)

func WithExecutor(exec state.Executor) Option {
	return func(d *Dispatcher) { d.exec = exec }
}

func WithLogger(log *zap.Logger) Option {
	return func(d *Dispatcher) {
		if log != nil {
			d.log = log
		}
	}
}

// Dispatcher may be called from any goroutine; store writes go through its
// executor. Network calls never run on the store owner.
type Dispatcher struct {
	backend Backend
	store   *state.Store
	engine  *turn.Engine
	exec    state.Executor
	log     *zap.Logger

	submitting atomic.Bool
}

func New(backend Backend, store *state.Store, engine *turn.Engine, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		backend: backend,
		store:   store,
		engine:  engine,
		exec:    state.Inline,
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(d)
	}
	d.log = d.log.Named("dispatch")
	return d
}

// Submitting reports whether a SubmitTurn call is waiting on the server.
func (d *Dispatcher) Submitting() bool { return d.submitting.Load() }

func (d *Dispatcher) message(ctx context.Context, text string, level state.Level) {
	_ = d.exec(ctx, func() { d.store.SetMessage(text, level) })
}

func (d *Dispatcher) ids() (gameID, playerID string, err error) {
	gameID, playerID = d.store.GameID.Get(), d.store.PlayerID.Get()
	if gameID == "" || playerID == "" {
		return "", "", ErrNotInGame
	}
	return gameID, playerID, nil
}

// SubmitTurn commits the staged moves. Local precondition failures return
// before any network call. A rejection clears the staging; a transport
// failure keeps it so the player can retry. On success the staging is left
// for the next turn boundary to clear.
func (d *Dispatcher) SubmitTurn(ctx context.Context) (api.Submitted, error) {
	gameID, playerID, err := d.ids()
	if err != nil {
		return api.Submitted{}, err
	}
	ts := d.store.Turn.Get()
	switch {
	case len(ts.Moves) == 0:
		d.message(ctx, "Place at least one card before submitting.", state.LevelError)
		return api.Submitted{}, ErrNothingToSubmit
	case !ts.HasHandMove():
		d.message(ctx, "Use at least one card from your hand.", state.LevelError)
		return api.Submitted{}, ErrNoHandMove
	}

	if !d.submitting.CompareAndSwap(false, true) {
		return api.Submitted{}, ErrSubmitInFlight
	}
	defer d.submitting.Store(false)

	moves := append([]game.Move(nil), ts.Moves...)
	res, err := d.backend.SubmitTurn(ctx, gameID, playerID, moves)
	if err != nil {
		rejected := errors.Is(err, api.ErrRejected)
		d.log.Info("submit failed",
			zap.String("game_id", gameID),
			zap.Bool("rejected", rejected),
			zap.Error(err),
		)
		_ = d.exec(ctx, func() {
			if rejected {
				d.engine.Reset()
			}
			d.store.SetMessage(api.Message(err), state.LevelError)
		})
		return api.Submitted{}, err
	}

	text := res.Message
	if text == "" {
		text = "Turn submitted."
	}
	d.message(ctx, text, state.LevelSuccess)
	return res, nil
}

// CheckTurn passes the turn. Staged moves are left alone.
func (d *Dispatcher) CheckTurn(ctx context.Context) (string, error) {
	gameID, playerID, err := d.ids()
	if err != nil {
		return "", err
	}
	msg, err := d.backend.CheckTurn(ctx, gameID, playerID)
	if err != nil {
		d.message(ctx, api.Message(err), state.LevelError)
		return "", err
	}
	d.message(ctx, msg, state.LevelInfo)
	return msg, nil
}

// CreateGame asks the server for a new game hosted by playerID and, on
// success, switches the store over to it.
func (d *Dispatcher) CreateGame(ctx context.Context, playerID string) (string, error) {
	res, err := d.backend.CreateGame(ctx, playerID)
	if err != nil {
		d.message(ctx, api.Message(err), state.LevelError)
		return "", err
	}
	text := res.Message
	if text == "" {
		text = "Game " + res.GameID + " created. Share the id with other players."
	}
	d.enter(ctx, res.GameID, playerID, text)
	return res.GameID, nil
}

// JoinGame joins an existing game and switches the store over to it.
func (d *Dispatcher) JoinGame(ctx context.Context, gameID, playerID string) error {
	msg, err := d.backend.JoinGame(ctx, gameID, playerID)
	if err != nil {
		d.message(ctx, api.Message(err), state.LevelError)
		return err
	}
	if msg == "" {
		msg = "Joined game " + gameID + "."
	}
	d.enter(ctx, gameID, playerID, msg)
	return nil
}

// StartGame starts the current game; only the host may.
func (d *Dispatcher) StartGame(ctx context.Context) (string, error) {
	gameID, playerID, err := d.ids()
	if err != nil {
		return "", err
	}
	msg, err := d.backend.StartGame(ctx, gameID, playerID)
	if err != nil {
		d.message(ctx, api.Message(err), state.LevelError)
		return "", err
	}
	d.message(ctx, msg, state.LevelSuccess)
	return msg, nil
}

func (d *Dispatcher) enter(ctx context.Context, gameID, playerID, text string) {
	_ = d.exec(ctx, func() {
		d.store.PlayerID.Set(playerID)
		d.store.GameID.Set(gameID)
		d.store.Snapshot.Set(nil)
		d.store.Turn.Set(game.TurnState{})
		d.store.SetMessage(text, state.LevelSuccess)
	})
	d.log.Info("entered game", zap.String("game_id", gameID), zap.String("player_id", playerID))
}
