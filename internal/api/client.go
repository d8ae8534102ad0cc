// Package api is the HTTP client for the game server's JSON endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"sekata-go/internal/game"
	"sekata-go/internal/tracing"
)

const maxBodyBytes = 1 << 20

// Client talks to one game server. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Second},
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	c.log = c.log.Named("api")
	return c
}

// BaseURL returns the server root the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

// Created is the answer to CreateGame.
type Created struct {
	GameID  string
	Message string
}

// Submitted is the answer to SubmitTurn.
type Submitted struct {
	Message     string
	ScoreEarned int
	Winner      string
}

type envelope struct {
	Success     *bool           `json:"success"`
	Message     string          `json:"message"`
	GameID      string          `json:"game_id"`
	Data        json.RawMessage `json:"data"`
	ScoreEarned int             `json:"score_earned"`
	Winner      string          `json:"winner"`
}

type playerRequest struct {
	PlayerID string `json:"player_id"`
}

type submitRequest struct {
	PlayerID string      `json:"player_id"`
	Moves    []game.Move `json:"moves"`
}

func (c *Client) CreateGame(ctx context.Context, playerID string) (Created, error) {
	env, err := c.do(ctx, "CreateGame", http.MethodPost, "/create_game", "", playerID, playerRequest{PlayerID: playerID})
	if err != nil {
		return Created{}, err
	}
	if env.GameID == "" {
		return Created{}, &TransportError{Op: "CreateGame", Err: errors.New("response has no game_id")}
	}
	return Created{GameID: env.GameID, Message: env.Message}, nil
}

func (c *Client) JoinGame(ctx context.Context, gameID, playerID string) (string, error) {
	env, err := c.do(ctx, "JoinGame", http.MethodPost, "/join_game/"+url.PathEscape(gameID), gameID, playerID, playerRequest{PlayerID: playerID})
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

func (c *Client) StartGame(ctx context.Context, gameID, playerID string) (string, error) {
	env, err := c.do(ctx, "StartGame", http.MethodPost, "/start_game/"+url.PathEscape(gameID), gameID, playerID, playerRequest{PlayerID: playerID})
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// GameStatus fetches the snapshot of gameID as seen by playerID.
func (c *Client) GameStatus(ctx context.Context, gameID, playerID string) (*game.Snapshot, error) {
	path := "/game_status/" + url.PathEscape(gameID) + "?" + url.Values{"player_id": {playerID}}.Encode()
	env, err := c.do(ctx, "GameStatus", http.MethodGet, path, gameID, playerID, nil)
	if err != nil {
		return nil, err
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, &TransportError{Op: "GameStatus", Err: errors.New("response has no data")}
	}
	var snap game.Snapshot
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		return nil, &TransportError{Op: "GameStatus", Err: fmt.Errorf("decode data: %w", err)}
	}
	return &snap, nil
}

// SubmitTurn commits moves as one turn.
func (c *Client) SubmitTurn(ctx context.Context, gameID, playerID string, moves []game.Move) (Submitted, error) {
	env, err := c.do(ctx, "SubmitTurn", http.MethodPost, "/submit_turn/"+url.PathEscape(gameID), gameID, playerID,
		submitRequest{PlayerID: playerID, Moves: moves})
	if err != nil {
		return Submitted{}, err
	}
	return Submitted{Message: env.Message, ScoreEarned: env.ScoreEarned, Winner: env.Winner}, nil
}

// CheckTurn passes the turn without playing.
func (c *Client) CheckTurn(ctx context.Context, gameID, playerID string) (string, error) {
	env, err := c.do(ctx, "CheckTurn", http.MethodPost, "/check_turn/"+url.PathEscape(gameID), gameID, playerID, playerRequest{PlayerID: playerID})
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

func (c *Client) do(ctx context.Context, op, method, path, gameID, playerID string, body any) (env envelope, err error) {
	ctx, span := tracing.StartSpan(ctx, "api."+op, gameID, playerID)
	defer func() { tracing.EndSpan(span, err) }()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return envelope{}, &TransportError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return envelope{}, &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed", zap.String("op", op), zap.Error(err))
		return envelope{}, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return envelope{}, &TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	c.log.Debug("response",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	// A JSON envelope carrying "success" is authoritative whatever the status.
	if jerr := json.Unmarshal(raw, &env); jerr != nil || env.Success == nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return envelope{}, &TransportError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
		}
		if jerr == nil {
			jerr = errors.New(`response has no "success" field`)
		}
		return envelope{}, &TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", jerr)}
	}
	if !*env.Success {
		return envelope{}, &RejectedError{Op: op, StatusCode: resp.StatusCode, Message: env.Message}
	}
	return env, nil
}
