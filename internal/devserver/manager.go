package devserver

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sekata-go/internal/game"
	"sekata-go/internal/models"
	ws "sekata-go/pkg/websocket"
)

const gameIDLen = 6

// HubProvider returns the live hub, if any.
type HubProvider func() (*ws.Hub, bool)

// Manager hosts every table in memory.
type Manager struct {
	mu     sync.Mutex
	tables map[string]*Table

	rules   Rules
	archive Archive
	hubs    HubProvider
	log     *zap.Logger
	newID   func() string
}

type ManagerOption func(*Manager)

func WithArchive(a Archive) ManagerOption { return func(m *Manager) { m.archive = a } }

func WithHubProvider(p HubProvider) ManagerOption { return func(m *Manager) { m.hubs = p } }

func WithLogger(log *zap.Logger) ManagerOption {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithIDGenerator replaces the random game id source.
func WithIDGenerator(fn func() string) ManagerOption { return func(m *Manager) { m.newID = fn } }

func NewManager(rules Rules, opts ...ManagerOption) *Manager {
	m := &Manager{
		tables: map[string]*Table{},
		rules:  rules.withDefaults(),
		log:    zap.NewNop(),
		newID:  randomGameID,
	}
	for _, o := range opts {
		o(m)
	}
	m.log = m.log.Named("devserver")
	return m
}

// randomGameID returns six characters of upper-case hex.
func randomGameID() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:gameIDLen]
}

func (m *Manager) Create(ctx context.Context, hostID string) (string, error) {
	if hostID == "" {
		return "", models.ErrMissingPlayerID
	}
	m.mu.Lock()
	var id string
	for i := 0; i < 16; i++ {
		if c := m.newID(); m.tables[c] == nil {
			id = c
			break
		}
	}
	if id == "" {
		m.mu.Unlock()
		return "", models.ErrGameExists
	}
	m.tables[id] = NewTable(id, hostID, m.rules)
	m.mu.Unlock()

	m.log.Info("game created", zap.String("game_id", id), zap.String("host_id", hostID))
	m.record(ctx, "create", func(a Archive) error { return a.GameCreated(ctx, id, hostID) })
	return id, nil
}

func (m *Manager) Join(ctx context.Context, gameID, playerID string) error {
	if playerID == "" {
		return models.ErrMissingPlayerID
	}
	err := m.with(gameID, func(t *Table) error { return t.Join(playerID) })
	if err != nil {
		return err
	}
	m.record(ctx, "join", func(a Archive) error { return a.PlayerJoined(ctx, gameID, playerID) })
	m.notify(gameID)
	return nil
}

func (m *Manager) Start(ctx context.Context, gameID, playerID string) error {
	err := m.with(gameID, func(t *Table) error { return t.Start(playerID) })
	if err != nil {
		return err
	}
	m.log.Info("game started", zap.String("game_id", gameID))
	m.record(ctx, "start", func(a Archive) error { return a.GameStarted(ctx, gameID) })
	m.notify(gameID)
	return nil
}

func (m *Manager) Status(gameID, playerID string) (*game.Snapshot, error) {
	var snap *game.Snapshot
	err := m.with(gameID, func(t *Table) error {
		var err error
		snap, err = t.View(playerID)
		return err
	})
	return snap, err
}

// IsPlayer reports whether playerID sits at gameID.
func (m *Manager) IsPlayer(gameID, playerID string) error {
	return m.with(gameID, func(t *Table) error {
		if !t.IsPlayer(playerID) {
			return models.ErrNotAPlayer
		}
		return nil
	})
}

func (m *Manager) Submit(ctx context.Context, gameID, playerID string, moves []game.Move) (Outcome, error) {
	return m.play(ctx, gameID, playerID, models.ActionSubmit, moves, func(t *Table) (Outcome, error) {
		return t.Submit(playerID, moves)
	})
}

func (m *Manager) Check(ctx context.Context, gameID, playerID string) (Outcome, error) {
	return m.play(ctx, gameID, playerID, models.ActionCheck, nil, func(t *Table) (Outcome, error) {
		return t.Check(playerID)
	})
}

func (m *Manager) play(ctx context.Context, gameID, playerID, action string, moves []game.Move, fn func(*Table) (Outcome, error)) (Outcome, error) {
	var out Outcome
	var scores map[string]int
	err := m.with(gameID, func(t *Table) error {
		var err error
		out, err = fn(t)
		if err == nil && out.Winner != "" {
			scores = t.Scores()
		}
		return err
	})
	if err != nil {
		m.log.Debug("turn rejected",
			zap.String("game_id", gameID), zap.String("player_id", playerID),
			zap.String("action", action), zap.Error(err))
		return Outcome{}, err
	}

	m.record(ctx, action, func(a Archive) error {
		return a.TurnPlayed(ctx, models.GameTurn{
			GameID:      gameID,
			PlayerID:    playerID,
			Action:      action,
			TableBefore: out.TableBefore,
			TableAfter:  out.TableAfter,
			FormedWord:  out.FormedWord,
			Score:       out.Score,
			Moves:       moves,
		})
	})
	if out.Winner != "" {
		m.log.Info("game finished", zap.String("game_id", gameID), zap.String("winner", out.Winner))
		m.record(ctx, "finish", func(a Archive) error { return a.GameFinished(ctx, gameID, out.Winner, scores) })
	}
	m.notify(gameID)
	return out, nil
}

func (m *Manager) with(gameID string, fn func(*Table) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.tables[gameID]
	if t == nil {
		return fmt.Errorf("%s: %w", gameID, models.ErrGameNotFound)
	}
	return fn(t)
}

// record writes to the archive. Failures are logged and never fail the request.
func (m *Manager) record(ctx context.Context, what string, fn func(Archive) error) {
	if m.archive == nil {
		return
	}
	if err := fn(m.archive); err != nil {
		m.log.Warn("archive write failed", zap.String("op", what), zap.Error(err))
	}
}

func (m *Manager) notify(gameID string) {
	if m.hubs == nil {
		return
	}
	hub, ok := m.hubs()
	if !ok {
		return
	}
	hub.Broadcast(ws.RoomForGame(gameID), ws.TypeGameUpdate, map[string]string{"game_id": gameID})
}
