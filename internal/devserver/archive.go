package devserver

import (
	"context"
	"database/sql"

	"sekata-go/internal/models"
)

// Archive records finished work. Play never depends on it.
type Archive interface {
	GameCreated(ctx context.Context, gameID, hostID string) error
	PlayerJoined(ctx context.Context, gameID, playerID string) error
	GameStarted(ctx context.Context, gameID string) error
	TurnPlayed(ctx context.Context, turn models.GameTurn) error
	GameFinished(ctx context.Context, gameID, winner string, scores map[string]int) error
}

// SQLArchive stores games in the SQLite archive.
type SQLArchive struct {
	DB *sql.DB
}

func (a SQLArchive) GameCreated(ctx context.Context, gameID, hostID string) error {
	tx, err := a.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := models.CreateGame(ctx, tx, gameID, hostID); err != nil {
		return err
	}
	if err := models.AddGamePlayer(ctx, tx, gameID, hostID); err != nil {
		return err
	}
	return tx.Commit()
}

func (a SQLArchive) PlayerJoined(ctx context.Context, gameID, playerID string) error {
	return models.AddGamePlayer(ctx, a.DB, gameID, playerID)
}

func (a SQLArchive) GameStarted(ctx context.Context, gameID string) error {
	return models.MarkGameStarted(ctx, a.DB, gameID)
}

func (a SQLArchive) TurnPlayed(ctx context.Context, turn models.GameTurn) error {
	_, err := models.InsertTurn(ctx, a.DB, turn)
	return err
}

func (a SQLArchive) GameFinished(ctx context.Context, gameID, winner string, scores map[string]int) error {
	return models.FinishGame(ctx, a.DB, gameID, winner, scores)
}

// History is the archived record of one game.
type History struct {
	Game    *models.Game        `json:"game"`
	Players []models.GamePlayer `json:"players"`
	Turns   []models.GameTurn   `json:"turns"`
}

func (a SQLArchive) History(ctx context.Context, gameID string) (History, error) {
	g, err := models.GetGame(ctx, a.DB, gameID)
	if err != nil {
		return History{}, err
	}
	players, err := models.ListGamePlayers(ctx, a.DB, gameID)
	if err != nil {
		return History{}, err
	}
	turns, err := models.ListTurns(ctx, a.DB, gameID)
	if err != nil {
		return History{}, err
	}
	return History{Game: g, Players: players, Turns: turns}, nil
}
