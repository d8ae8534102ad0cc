package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const (
	StatusWaiting  = "waiting"
	StatusPlaying  = "playing"
	StatusFinished = "finished"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Game is the archived summary of one hosted game.
type Game struct {
	ID         string     `json:"id"`
	HostID     string     `json:"host_id"`
	Status     string     `json:"status"` // waiting|playing|finished
	Winner     *string    `json:"winner,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

func CreateGame(ctx context.Context, db DBTX, id, hostID string) error {
	_, err := db.ExecContext(ctx, `INSERT INTO games(id, host_id, status) VALUES (?, ?, ?)`, id, hostID, StatusWaiting)
	if IsUniqueConstraint(err) {
		return fmt.Errorf("game %s: %w", id, ErrGameExists)
	}
	return err
}

func GetGame(ctx context.Context, db DBTX, id string) (*Game, error) {
	var g Game
	var winner sql.NullString
	var started, finished sql.NullTime
	err := db.QueryRowContext(ctx,
		`SELECT id, host_id, status, winner, created_at, started_at, finished_at FROM games WHERE id = ?`,
		id,
	).Scan(&g.ID, &g.HostID, &g.Status, &winner, &g.CreatedAt, &started, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if winner.Valid {
		v := winner.String
		g.Winner = &v
	}
	if started.Valid {
		v := started.Time
		g.StartedAt = &v
	}
	if finished.Valid {
		v := finished.Time
		g.FinishedAt = &v
	}
	return &g, nil
}

func MarkGameStarted(ctx context.Context, db DBTX, id string) error {
	return expectOne(db.ExecContext(ctx,
		`UPDATE games SET status = ?, started_at = CURRENT_TIMESTAMP WHERE id = ?`, StatusPlaying, id))
}

// FinishGame records the winner and final scores in one transaction.
func FinishGame(ctx context.Context, db *sql.DB, id, winner string, scores map[string]int) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := expectOne(tx.ExecContext(ctx,
		`UPDATE games SET status = ?, winner = ?, finished_at = CURRENT_TIMESTAMP WHERE id = ?`,
		StatusFinished, winner, id)); err != nil {
		return err
	}
	for playerID, score := range scores {
		if err := UpdatePlayerScore(ctx, tx, id, playerID, score); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func expectOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
