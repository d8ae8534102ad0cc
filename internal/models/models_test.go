package models

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sekata-go/internal/database"
	"sekata-go/internal/game"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenAndMigrate(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestGameLifecycle(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)

	require.NoError(t, CreateGame(ctx, db, "AB12CD", "alice"))
	require.ErrorIs(t, CreateGame(ctx, db, "AB12CD", "bob"), ErrGameExists)

	require.NoError(t, AddGamePlayer(ctx, db, "AB12CD", "alice"))
	require.NoError(t, AddGamePlayer(ctx, db, "AB12CD", "bob"))
	require.ErrorIs(t, AddGamePlayer(ctx, db, "AB12CD", "bob"), ErrPlayerExists)

	g, err := GetGame(ctx, db, "AB12CD")
	require.NoError(t, err)
	assert.Equal(t, StatusWaiting, g.Status)
	assert.Nil(t, g.StartedAt)
	assert.Nil(t, g.Winner)

	require.NoError(t, MarkGameStarted(ctx, db, "AB12CD"))
	require.NoError(t, FinishGame(ctx, db, "AB12CD", "bob", map[string]int{"alice": 4, "bob": 11}))

	g, err = GetGame(ctx, db, "AB12CD")
	require.NoError(t, err)
	assert.Equal(t, StatusFinished, g.Status)
	require.NotNil(t, g.Winner)
	assert.Equal(t, "bob", *g.Winner)
	assert.NotNil(t, g.StartedAt)
	assert.NotNil(t, g.FinishedAt)

	players, err := ListGamePlayers(ctx, db, "AB12CD")
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.Equal(t, "alice", players[0].PlayerID)
	assert.Equal(t, 0, players[0].Seat)
	assert.Equal(t, 4, players[0].Score)
	assert.Equal(t, "bob", players[1].PlayerID)
	assert.Equal(t, 1, players[1].Seat)
	assert.Equal(t, 11, players[1].Score)
}

func TestMissingGame(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)

	_, err := GetGame(ctx, db, "NOPE")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, MarkGameStarted(ctx, db, "NOPE"), ErrNotFound)
	assert.ErrorIs(t, FinishGame(ctx, db, "NOPE", "x", nil), ErrNotFound)
}

func TestFinishGameRollsBackOnUnknownPlayer(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	require.NoError(t, CreateGame(ctx, db, "G", "alice"))
	require.NoError(t, AddGamePlayer(ctx, db, "G", "alice"))

	err := FinishGame(ctx, db, "G", "alice", map[string]int{"ghost": 3})
	require.ErrorIs(t, err, ErrNotFound)

	g, err := GetGame(ctx, db, "G")
	require.NoError(t, err)
	assert.Equal(t, StatusWaiting, g.Status)
}

func TestTurnsRoundTripInOrder(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	require.NoError(t, CreateGame(ctx, db, "G", "alice"))

	moves := []game.Move{
		{Card: "BARU", Kind: game.KindHand, Position: game.Before},
		{Card: "AN", Kind: game.KindHelper, Position: game.After},
	}
	id1, err := InsertTurn(ctx, db, GameTurn{
		GameID: "G", PlayerID: "alice", Action: ActionSubmit,
		TableBefore: "KATA", TableAfter: "BARU", FormedWord: "BARUKATAAN", Score: 10, Moves: moves,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id1)

	_, err = InsertTurn(ctx, db, GameTurn{GameID: "G", PlayerID: "bob", Action: ActionCheck, TableBefore: "BARU", TableAfter: "BARU"})
	require.NoError(t, err)

	_, err = InsertTurn(ctx, db, GameTurn{GameID: "G", PlayerID: "bob", Action: "steal"})
	require.ErrorIs(t, err, ErrUnknownAction)

	turns, err := ListTurns(ctx, db, "G")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, id1, turns[0].ID)
	assert.Equal(t, moves, turns[0].Moves)
	assert.Equal(t, 10, turns[0].Score)
	assert.Equal(t, ActionCheck, turns[1].Action)
	assert.Empty(t, turns[1].Moves)
}

func TestIsUniqueConstraint(t *testing.T) {
	assert.False(t, IsUniqueConstraint(nil))
	assert.False(t, IsUniqueConstraint(ErrNotFound))
}
