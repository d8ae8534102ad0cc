package models

import (
	"context"
	"fmt"
	"time"
)

type GamePlayer struct {
	GameID   string    `json:"game_id"`
	PlayerID string    `json:"player_id"`
	Seat     int       `json:"seat"`
	Score    int       `json:"score"`
	JoinedAt time.Time `json:"joined_at"`
}

// AddGamePlayer seats playerID after the players already in the game.
func AddGamePlayer(ctx context.Context, db DBTX, gameID, playerID string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO game_players(game_id, player_id, seat)
		 VALUES (?, ?, (SELECT COUNT(*) FROM game_players WHERE game_id = ?))`,
		gameID, playerID, gameID,
	)
	if IsUniqueConstraint(err) {
		return fmt.Errorf("player %s: %w", playerID, ErrPlayerExists)
	}
	return err
}

func ListGamePlayers(ctx context.Context, db DBTX, gameID string) ([]GamePlayer, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT game_id, player_id, seat, score, joined_at FROM game_players WHERE game_id = ? ORDER BY seat`,
		gameID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GamePlayer
	for rows.Next() {
		var p GamePlayer
		if err := rows.Scan(&p.GameID, &p.PlayerID, &p.Seat, &p.Score, &p.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func UpdatePlayerScore(ctx context.Context, db DBTX, gameID, playerID string, score int) error {
	return expectOne(db.ExecContext(ctx,
		`UPDATE game_players SET score = ? WHERE game_id = ? AND player_id = ?`, score, gameID, playerID))
}
