// Package session wires the store, staging engine, poller and dispatcher for
// one player and serialises every store write on a single owning goroutine.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"sekata-go/internal/api"
	"sekata-go/internal/dispatch"
	"sekata-go/internal/game"
	"sekata-go/internal/poller"
	"sekata-go/internal/state"
	"sekata-go/internal/turn"
)

var ErrClosed = errors.New("session closed")

// Backend is everything a session needs from the server.
type Backend interface {
	dispatch.Backend
	poller.StatusFetcher
}

type Options struct {
	PollInterval time.Duration
	Ticks        poller.TickSource
	Log          *zap.Logger
}

type Session struct {
	store  *state.Store
	engine *turn.Engine
	sync   *poller.Synchronizer
	disp   *dispatch.Dispatcher
	log    *zap.Logger

	inbox  chan func()
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// New starts the owning loop. Call Close to stop it.
func New(parent context.Context, backend Backend, opts Options) *Session {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		store:  state.NewStore(),
		log:    log.Named("session"),
		inbox:  make(chan func(), 64),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.engine = turn.NewEngine(s.store, log)

	popts := []poller.Option{
		poller.WithExecutor(s.Do),
		poller.WithInterval(opts.PollInterval),
		poller.WithLogger(log),
	}
	if opts.Ticks != nil {
		popts = append(popts, poller.WithTicks(opts.Ticks))
	}
	s.sync = poller.New(backend, s.store, s.engine, popts...)
	s.disp = dispatch.New(backend, s.store, s.engine, dispatch.WithExecutor(s.Do), dispatch.WithLogger(log))

	go s.loop()
	return s
}

func (s *Session) loop() {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case fn := <-s.inbox:
			s.run(fn)
		}
	}
}

func (s *Session) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("panic on session loop", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()
	fn()
}

// Store exposes the session state for rendering. Read it freely; writes
// belong to the session.
func (s *Session) Store() *state.Store { return s.store }

// Do runs fn on the owning goroutine and waits for it. It is the
// state.Executor handed to the poller and the dispatcher. Calling Do from a
// store subscriber deadlocks; subscribers already run on the loop.
func (s *Session) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	ran := false
	job := func() {
		defer close(finished)
		if ctx.Err() != nil {
			return
		}
		ran = true
		fn()
	}
	select {
	case s.inbox <- job:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ctx.Done():
		return ErrClosed
	}
	select {
	case <-finished:
		if !ran {
			return ctx.Err()
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ctx.Done():
		return ErrClosed
	}
}

// Create hosts a new game as playerID and starts polling it.
func (s *Session) Create(ctx context.Context, playerID string) (string, error) {
	s.sync.Stop()
	id, err := s.disp.CreateGame(ctx, playerID)
	if err != nil {
		return "", err
	}
	s.sync.Start(s.ctx)
	return id, nil
}

// Join enters gameID as playerID and starts polling it.
func (s *Session) Join(ctx context.Context, gameID, playerID string) error {
	s.sync.Stop()
	if err := s.disp.JoinGame(ctx, gameID, playerID); err != nil {
		return err
	}
	s.sync.Start(s.ctx)
	return nil
}

// Start begins the game; the server only accepts it from the host.
func (s *Session) Start(ctx context.Context) (string, error) {
	msg, err := s.disp.StartGame(ctx)
	if err == nil {
		s.sync.Poke()
	}
	return msg, err
}

// Leave stops polling and clears every slot.
func (s *Session) Leave(ctx context.Context) error {
	s.sync.Stop()
	return s.Do(ctx, s.store.ResetAll)
}

// myTurn must run on the loop.
func (s *Session) myTurn() error {
	snap := s.store.Snapshot.Get()
	switch {
	case !s.store.InGame():
		return game.ErrNotInGame
	case snap.HasWinner():
		return game.ErrGameOver
	case snap == nil || !snap.GameStarted:
		return game.ErrGameNotStarted
	case !snap.IsTurnOf(s.store.PlayerID.Get()):
		return game.ErrNotYourTurn
	}
	return nil
}

// onTurn runs fn on the loop if it is the local player's turn.
func (s *Session) onTurn(ctx context.Context, fn func()) error {
	var gate error
	if err := s.Do(ctx, func() {
		if gate = s.myTurn(); gate == nil {
			fn()
		}
	}); err != nil {
		return err
	}
	return gate
}

// Select stages a card. The bool reports whether staging changed.
func (s *Session) Select(ctx context.Context, card game.Card, kind game.Kind) (bool, error) {
	var changed bool
	err := s.onTurn(ctx, func() { changed = s.engine.Select(card, kind) })
	return changed, err
}

// Place commits the staged card at pos.
func (s *Session) Place(ctx context.Context, pos game.Position) (bool, error) {
	var changed bool
	err := s.onTurn(ctx, func() { changed = s.engine.Place(pos) })
	return changed, err
}

func (s *Session) Deselect(ctx context.Context) (bool, error) {
	var changed bool
	err := s.onTurn(ctx, func() { changed = s.engine.Deselect() })
	return changed, err
}

// ResetTurn discards every staged move.
func (s *Session) ResetTurn(ctx context.Context) error {
	return s.onTurn(ctx, s.engine.Reset)
}

// Submit sends the staged turn. The turn check runs on the loop; the request
// does not.
func (s *Session) Submit(ctx context.Context) (api.Submitted, error) {
	if err := s.onTurn(ctx, func() {}); err != nil {
		return api.Submitted{}, err
	}
	res, err := s.disp.SubmitTurn(ctx)
	if err == nil {
		s.sync.Poke()
	}
	return res, err
}

// Check passes the turn.
func (s *Session) Check(ctx context.Context) (string, error) {
	if err := s.onTurn(ctx, func() {}); err != nil {
		return "", err
	}
	msg, err := s.disp.CheckTurn(ctx)
	if err == nil {
		s.sync.Poke()
	}
	return msg, err
}

// Poke requests an immediate poll, e.g. after a server push.
func (s *Session) Poke() { s.sync.Poke() }

// PollState reports the poller lifecycle and the error that stopped it.
func (s *Session) PollState() (poller.State, error) {
	return s.sync.State(), s.sync.Err()
}

// Submitting reports whether a submission is waiting on the server.
func (s *Session) Submitting() bool { return s.disp.Submitting() }

// Close stops polling and the owning loop. It is safe to call more than once.
func (s *Session) Close() {
	s.once.Do(func() {
		s.sync.Stop()
		s.cancel()
		<-s.done
	})
}
