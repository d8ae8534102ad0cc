// Package poller keeps a Store's snapshot in step with the server by polling
// the game status endpoint.
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"sekata-go/internal/api"
	"sekata-go/internal/config"
	"sekata-go/internal/game"
	"sekata-go/internal/state"
	"sekata-go/internal/turn"
)

// State is the lifecycle of a Synchronizer.
type State int

const (
	Idle State = iota
	Polling
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Polling:
		return "polling"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// StatusFetcher is the slice of api.Client the poller needs.
type StatusFetcher interface {
	GameStatus(ctx context.Context, gameID, playerID string) (*game.Snapshot, error)
}

// TickSource returns a channel of ticks every d and a func that releases it.
type TickSource func(d time.Duration) (<-chan time.Time, func())

func realTicks(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

type Option func(*Synchronizer)

func WithInterval(d time.Duration) Option {
	return func(s *Synchronizer) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithTicks(src TickSource) Option {
	return func(s *Synchronizer) { s.ticks = src }
}

// WithExecutor sets how snapshot results are applied to the store. The
// default runs them inline on the polling goroutine.
func WithExecutor(exec state.Executor) Option {
	return func(s *Synchronizer) { s.exec = exec }
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Synchronizer) {
		if log != nil {
			s.log = log
		}
	}
}

// Synchronizer polls the game status and applies each snapshot to the store,
// resetting the local staging when the turn passes to the local player.
type Synchronizer struct {
	fetcher  StatusFetcher
	store    *state.Store
	engine   *turn.Engine
	exec     state.Executor
	ticks    TickSource
	interval time.Duration
	log      *zap.Logger

	fetchMu sync.Mutex

	mu     sync.Mutex
	state  State
	err    error
	cancel context.CancelFunc
	done   chan struct{}
	poke   chan struct{}
}

func New(fetcher StatusFetcher, store *state.Store, engine *turn.Engine, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		fetcher:  fetcher,
		store:    store,
		engine:   engine,
		exec:     state.Inline,
		ticks:    realTicks,
		interval: config.DefaultPollInterval,
		log:      zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.Named("poller")
	return s
}

// State returns the current lifecycle state.
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error that stopped polling, if any.
func (s *Synchronizer) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Start stops any running loop, waits for it to exit, then polls immediately
// and on every interval until ctx ends, Stop is called, a winner is reported
// or a fetch fails.
func (s *Synchronizer) Start(ctx context.Context) {
	s.Stop()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	poke := make(chan struct{}, 1)

	s.mu.Lock()
	s.state = Polling
	s.err = nil
	s.cancel = cancel
	s.done = done
	s.poke = poke
	s.mu.Unlock()

	s.log.Debug("polling started", zap.Duration("interval", s.interval))
	go s.run(ctx, done, poke)
}

func (s *Synchronizer) run(ctx context.Context, done chan struct{}, poke <-chan struct{}) {
	defer close(done)

	if !s.step(ctx) {
		return
	}
	tick, release := s.ticks(s.interval)
	defer release()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
		case <-poke:
		}
		if !s.step(ctx) {
			return
		}
	}
}

func (s *Synchronizer) step(ctx context.Context) bool {
	if err := s.PollOnce(ctx); err != nil {
		return false
	}
	return s.State() == Polling
}

// Poke asks a running loop for an immediate fetch. It never blocks; pokes
// that arrive while one is pending are merged.
func (s *Synchronizer) Poke() {
	s.mu.Lock()
	poke := s.poke
	polling := s.state == Polling
	s.mu.Unlock()
	if !polling || poke == nil {
		return
	}
	select {
	case poke <- struct{}{}:
	default:
	}
}

// Stop cancels the running loop, if any, and waits for it to exit.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done, s.poke = nil, nil, nil
	if s.state == Polling {
		s.state = Stopped
	}
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// PollOnce performs one fetch and applies it. Only one fetch runs at a time.
// A fetch error or a snapshot with a winner moves the Synchronizer to
// Stopped; a cancelled ctx leaves it untouched.
func (s *Synchronizer) PollOnce(ctx context.Context) error {
	s.fetchMu.Lock()
	defer s.fetchMu.Unlock()

	gameID, playerID := s.store.GameID.Get(), s.store.PlayerID.Get()
	if gameID == "" || playerID == "" {
		s.halt(game.ErrNotInGame)
		return game.ErrNotInGame
	}

	snap, err := s.fetcher.GameStatus(ctx, gameID, playerID)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		s.log.Warn("poll failed, stopping", zap.String("game_id", gameID), zap.Error(err))
		_ = s.exec(ctx, func() { s.store.SetMessage(api.Message(err), state.LevelError) })
		s.halt(err)
		return err
	}

	if err := s.exec(ctx, func() { s.apply(snap) }); err != nil {
		return err
	}

	if snap.HasWinner() {
		s.log.Info("game finished", zap.String("game_id", gameID), zap.String("winner", snap.Winner))
		s.halt(nil)
	}
	return nil
}

// apply runs on the store owner.
func (s *Synchronizer) apply(snap *game.Snapshot) {
	prev := s.store.Snapshot.Get()
	s.store.Snapshot.Set(snap)

	me := s.store.PlayerID.Get()
	prevTurn := ""
	if prev != nil {
		prevTurn = prev.CurrentTurn
	}
	if prevTurn != snap.CurrentTurn && snap.CurrentTurn == me {
		s.log.Debug("turn boundary", zap.String("from", prevTurn), zap.String("to", snap.CurrentTurn))
		s.engine.Reset()
	} else {
		s.engine.Seed()
	}

	if snap.HasWinner() {
		text := "game over, winner: " + snap.Winner
		level := state.LevelInfo
		if snap.Winner == me {
			text, level = "you won!", state.LevelSuccess
		}
		s.store.SetMessage(text, level)
	}
}

// halt records err and moves to Stopped, cancelling the loop without waiting
// for it since halt may run on the loop itself.
func (s *Synchronizer) halt(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Stopped
	if err != nil && !errors.Is(err, context.Canceled) {
		s.err = err
	}
	if s.cancel != nil {
		s.cancel()
	}
}
