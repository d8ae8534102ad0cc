package devserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sekata-go/internal/api"
	"sekata-go/internal/config"
	"sekata-go/internal/database"
	"sekata-go/internal/game"
	"sekata-go/internal/session"
	ws "sekata-go/pkg/websocket"
)

type testEnv struct {
	srv     *httptest.Server
	client  *api.Client
	manager *Manager
	db      *sql.DB
	hub     *ws.Hub
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenAndMigrate(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	hub := ws.NewHub(nil)
	go hub.Run()
	t.Cleanup(hub.Stop)
	ref := ws.NewHubRef(hub)

	ids := []string{"GAME01", "GAME02", "GAME03"}
	m := NewManager(Rules{Ordered: true},
		WithArchive(SQLArchive{DB: db}),
		WithHubProvider(ref.Get),
		WithIDGenerator(func() string {
			id := ids[0]
			ids = ids[1:]
			return id
		}),
	)
	r := NewRouter(Deps{
		Config:  config.Config{AppEnv: "test"},
		Manager: m,
		DB:      db,
		Hubs:    ref.Get,
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, client: api.New(srv.URL), manager: m, db: db, hub: hub}
}

// startTwoPlayerGame returns a started game where alice moves first.
func (e *testEnv) startTwoPlayerGame(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	created, err := e.client.CreateGame(ctx, "alice")
	require.NoError(t, err)
	_, err = e.client.JoinGame(ctx, created.GameID, "bob")
	require.NoError(t, err)
	_, err = e.client.StartGame(ctx, created.GameID, "alice")
	require.NoError(t, err)
	return created.GameID
}

func postJSON(t *testing.T, url, body string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestHealthz(t *testing.T) {
	e := setupTestEnv(t)
	resp, err := http.Get(e.srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLobbyFlowOverHTTP(t *testing.T) {
	e := setupTestEnv(t)
	ctx := context.Background()

	created, err := e.client.CreateGame(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "GAME01", created.GameID)

	_, err = e.client.StartGame(ctx, created.GameID, "alice")
	require.ErrorIs(t, err, api.ErrRejected)
	assert.Contains(t, api.Message(err), "not enough players")

	_, err = e.client.JoinGame(ctx, created.GameID, "bob")
	require.NoError(t, err)
	_, err = e.client.JoinGame(ctx, created.GameID, "bob")
	require.ErrorIs(t, err, api.ErrRejected)

	_, err = e.client.StartGame(ctx, created.GameID, "bob")
	var rej *api.RejectedError
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, http.StatusForbidden, rej.StatusCode)

	msg, err := e.client.StartGame(ctx, created.GameID, "alice")
	require.NoError(t, err)
	assert.Equal(t, "game started", msg)

	snap, err := e.client.GameStatus(ctx, created.GameID, "bob")
	require.NoError(t, err)
	assert.True(t, snap.GameStarted)
	assert.Equal(t, "alice", snap.CurrentTurn)
	assert.Len(t, snap.HandOf("bob"), 7)
	assert.Empty(t, snap.HandOf("alice"))
}

func TestStatusErrors(t *testing.T) {
	e := setupTestEnv(t)
	ctx := context.Background()

	_, err := e.client.GameStatus(ctx, "NOPE", "alice")
	var rej *api.RejectedError
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, http.StatusNotFound, rej.StatusCode)

	id := e.startTwoPlayerGame(t)
	_, err = e.client.GameStatus(ctx, id, "mallory")
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, http.StatusForbidden, rej.StatusCode)
}

func TestMalformedRequests(t *testing.T) {
	e := setupTestEnv(t)

	status, body := postJSON(t, e.srv.URL+"/create_game", "{")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "invalid json", body["message"])

	status, body = postJSON(t, e.srv.URL+"/create_game", `{"player_id":"  "}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "player id required", body["message"])
}

func TestSubmitAndCheckOverHTTP(t *testing.T) {
	e := setupTestEnv(t)
	ctx := context.Background()
	id := e.startTwoPlayerGame(t)

	_, err := e.client.SubmitTurn(ctx, id, "bob", []game.Move{{Card: "SELALU", Kind: game.KindHand, Position: game.After}})
	require.ErrorIs(t, err, api.ErrRejected)
	assert.Equal(t, "not your turn", api.Message(err))

	res, err := e.client.SubmitTurn(ctx, id, "alice", []game.Move{
		{Card: "BARU", Kind: game.KindHand, Position: game.Before},
		{Card: "TIDAK", Kind: game.KindHelper, Position: game.After},
	})
	require.NoError(t, err)
	assert.Equal(t, 13, res.ScoreEarned)
	assert.Equal(t, "formed BARUBISATIDAK", res.Message)
	assert.Empty(t, res.Winner)

	msg, err := e.client.CheckTurn(ctx, id, "bob")
	require.NoError(t, err)
	assert.Equal(t, "turn passed", msg)

	snap, err := e.client.GameStatus(ctx, id, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", snap.CurrentTurn)
	assert.Equal(t, 1, snap.CheckCount)
	assert.Equal(t, []game.Card{"TIDAK"}, snap.UsedHelperCards)
	assert.Equal(t, 13, snap.Players["alice"].Score)
}

func TestHistoryIsArchived(t *testing.T) {
	e := setupTestEnv(t)
	ctx := context.Background()
	id := e.startTwoPlayerGame(t)

	_, err := e.client.SubmitTurn(ctx, id, "alice", []game.Move{{Card: "BARU", Kind: game.KindHand, Position: game.After}})
	require.NoError(t, err)
	_, err = e.client.CheckTurn(ctx, id, "bob")
	require.NoError(t, err)

	resp, err := http.Get(e.srv.URL + "/history/" + id)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success bool    `json:"success"`
		Data    History `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, "playing", body.Data.Game.Status)
	require.Len(t, body.Data.Players, 2)
	require.Len(t, body.Data.Turns, 2)
	assert.Equal(t, "BISABARU", body.Data.Turns[0].FormedWord)
	assert.Equal(t, "check", body.Data.Turns[1].Action)

	resp2, err := http.Get(e.srv.URL + "/history/NOPE")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestWinnerIsArchived(t *testing.T) {
	e := setupTestEnv(t)
	ctx := context.Background()
	e.manager.rules.HandSize = 1

	id := e.startTwoPlayerGame(t)
	snap, err := e.client.GameStatus(ctx, id, "alice")
	require.NoError(t, err)
	card := snap.HandOf("alice")[0]

	res, err := e.client.SubmitTurn(ctx, id, "alice", []game.Move{{Card: card, Kind: game.KindHand, Position: game.After}})
	require.NoError(t, err)
	assert.Equal(t, "alice", res.Winner)

	h, err := SQLArchive{DB: e.db}.History(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "finished", h.Game.Status)
	require.NotNil(t, h.Game.Winner)
	assert.Equal(t, "alice", *h.Game.Winner)
}

func dialGame(t *testing.T, e *testEnv, gameID, playerID string) *websocket.Conn {
	t.Helper()
	u, err := ws.WatchURL(e.srv.URL, gameID, playerID)
	require.NoError(t, err)
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.Eventually(t, func() bool { return e.hub.Clients() == 1 }, time.Second, 5*time.Millisecond)
	return conn
}

func TestWebSocketPushesGameUpdates(t *testing.T) {
	e := setupTestEnv(t)
	ctx := context.Background()
	id := e.startTwoPlayerGame(t)
	conn := dialGame(t, e, id, "bob")

	_, err := e.client.CheckTurn(ctx, id, "alice")
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg ws.Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, ws.TypeGameUpdate, msg.Type)
	assert.JSONEq(t, `{"game_id":"`+id+`"}`, string(msg.Payload))
}

func TestWebSocketRejectsStrangers(t *testing.T) {
	e := setupTestEnv(t)
	id := e.startTwoPlayerGame(t)

	u, err := ws.WatchURL(e.srv.URL, id, "mallory")
	require.NoError(t, err)
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestWatcherNotifiesOnUpdates(t *testing.T) {
	e := setupTestEnv(t)
	ctx := context.Background()
	id := e.startTwoPlayerGame(t)

	u, err := ws.WatchURL(e.srv.URL, id, "bob")
	require.NoError(t, err)
	updates := make(chan struct{}, 8)
	w := &ws.Watcher{URL: u, OnUpdate: func() { updates <- struct{}{} }}

	wctx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- w.Run(wctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// One nudge on connect.
	select {
	case <-updates:
	case <-time.After(2 * time.Second):
		t.Fatal("no update on connect")
	}
	require.Eventually(t, func() bool { return e.hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	_, err = e.client.CheckTurn(ctx, id, "alice")
	require.NoError(t, err)
	select {
	case <-updates:
	case <-time.After(2 * time.Second):
		t.Fatal("no update after check")
	}
}

func TestSessionsPlayAgainstServer(t *testing.T) {
	e := setupTestEnv(t)
	ctx := context.Background()

	alice := session.New(ctx, e.client, session.Options{PollInterval: 10 * time.Millisecond})
	t.Cleanup(alice.Close)
	bob := session.New(ctx, e.client, session.Options{PollInterval: 10 * time.Millisecond})
	t.Cleanup(bob.Close)

	id, err := alice.Create(ctx, "alice")
	require.NoError(t, err)
	require.NoError(t, bob.Join(ctx, id, "bob"))
	_, err = alice.Start(ctx)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return alice.Store().IsMyTurn() }, 2*time.Second, 5*time.Millisecond)

	_, err = bob.Select(ctx, "SELALU", game.KindHand)
	require.Error(t, err)

	changed, err := alice.Select(ctx, "BARU", game.KindHand)
	require.NoError(t, err)
	require.True(t, changed)
	_, err = alice.Place(ctx, game.Before)
	require.NoError(t, err)
	assert.Equal(t, "BARUBISA", alice.Store().Turn.Get().Preview)

	res, err := alice.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, res.ScoreEarned)

	require.Eventually(t, func() bool { return bob.Store().IsMyTurn() }, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return bob.Store().Turn.Get().Preview == "BARU" }, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		snap := alice.Store().Snapshot.Get()
		return snap != nil && snap.CardOnTable == "BARU" && !alice.Store().IsMyTurn()
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 8, alice.Store().Snapshot.Get().Players["alice"].Score)
}
