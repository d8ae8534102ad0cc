package models

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sekata-go/internal/game"
)

const (
	ActionSubmit = "submit"
	ActionCheck  = "check"
)

// GameTurn is one archived submit or check.
type GameTurn struct {
	ID          string      `json:"id"`
	GameID      string      `json:"game_id"`
	PlayerID    string      `json:"player_id"`
	Action      string      `json:"action"`
	TableBefore string      `json:"table_before"`
	TableAfter  string      `json:"table_after"`
	FormedWord  string      `json:"formed_word,omitempty"`
	Score       int         `json:"score"`
	Moves       []game.Move `json:"moves,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// InsertTurn stores t, assigning it a fresh id when it has none.
func InsertTurn(ctx context.Context, db DBTX, t GameTurn) (string, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Action != ActionSubmit && t.Action != ActionCheck {
		return "", fmt.Errorf("turn action %q: %w", t.Action, ErrUnknownAction)
	}
	moves := t.Moves
	if moves == nil {
		moves = []game.Move{}
	}
	movesJSON, err := json.Marshal(moves)
	if err != nil {
		return "", fmt.Errorf("encode moves: %w", err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO game_turns(id, game_id, player_id, action, table_before, table_after, formed_word, score, moves_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.GameID, t.PlayerID, t.Action, t.TableBefore, t.TableAfter, t.FormedWord, t.Score, string(movesJSON),
	)
	if err != nil {
		return "", err
	}
	return t.ID, nil
}

// ListTurns returns the turns of gameID in play order.
func ListTurns(ctx context.Context, db DBTX, gameID string) ([]GameTurn, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, game_id, player_id, action, table_before, table_after, formed_word, score, moves_json, created_at
		 FROM game_turns WHERE game_id = ? ORDER BY created_at, rowid`,
		gameID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GameTurn
	for rows.Next() {
		var t GameTurn
		var movesJSON string
		if err := rows.Scan(&t.ID, &t.GameID, &t.PlayerID, &t.Action, &t.TableBefore, &t.TableAfter,
			&t.FormedWord, &t.Score, &movesJSON, &t.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(movesJSON), &t.Moves); err != nil {
			return nil, fmt.Errorf("decode moves of turn %s: %w", t.ID, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
