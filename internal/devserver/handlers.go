package devserver

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sekata-go/internal/game"
	"sekata-go/internal/models"
)

type playerRequest struct {
	PlayerID string `json:"player_id"`
}

type submitRequest struct {
	PlayerID string      `json:"player_id"`
	Moves    []game.Move `json:"moves"`
}

func bindPlayer(c *gin.Context, dst *string, req any) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return models.ErrInvalidJSON
	}
	*dst = strings.TrimSpace(*dst)
	if *dst == "" {
		return models.ErrMissingPlayerID
	}
	return nil
}

func ok(c *gin.Context, body gin.H) {
	body["success"] = true
	c.JSON(http.StatusOK, body)
}

func CreateGameHandler(m *Manager, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req playerRequest
		if err := bindPlayer(c, &req.PlayerID, &req); err != nil {
			writeAPIError(c, log, err)
			return
		}
		id, err := m.Create(c.Request.Context(), req.PlayerID)
		if err != nil {
			writeAPIError(c, log, err)
			return
		}
		ok(c, gin.H{"message": "game created", "game_id": id})
	}
}

func JoinGameHandler(m *Manager, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req playerRequest
		if err := bindPlayer(c, &req.PlayerID, &req); err != nil {
			writeAPIError(c, log, err)
			return
		}
		if err := m.Join(c.Request.Context(), c.Param("id"), req.PlayerID); err != nil {
			writeAPIError(c, log, err)
			return
		}
		ok(c, gin.H{"message": "joined game"})
	}
}

func StartGameHandler(m *Manager, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req playerRequest
		if err := bindPlayer(c, &req.PlayerID, &req); err != nil {
			writeAPIError(c, log, err)
			return
		}
		if err := m.Start(c.Request.Context(), c.Param("id"), req.PlayerID); err != nil {
			writeAPIError(c, log, err)
			return
		}
		ok(c, gin.H{"message": "game started"})
	}
}

func GameStatusHandler(m *Manager, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID := strings.TrimSpace(c.Query("player_id"))
		if playerID == "" {
			writeAPIError(c, log, models.ErrMissingPlayerID)
			return
		}
		snap, err := m.Status(c.Param("id"), playerID)
		if err != nil {
			writeAPIError(c, log, err)
			return
		}
		ok(c, gin.H{"data": snap})
	}
}

func SubmitTurnHandler(m *Manager, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req submitRequest
		if err := bindPlayer(c, &req.PlayerID, &req); err != nil {
			writeAPIError(c, log, err)
			return
		}
		out, err := m.Submit(c.Request.Context(), c.Param("id"), req.PlayerID, req.Moves)
		if err != nil {
			writeAPIError(c, log, err)
			return
		}
		if out.Winner != "" {
			ok(c, gin.H{
				"message":      fmt.Sprintf("you win! last word: %s", out.FormedWord),
				"score_earned": out.Score,
				"winner":       out.Winner,
			})
			return
		}
		ok(c, gin.H{
			"message":      fmt.Sprintf("formed %s", out.FormedWord),
			"score_earned": out.Score,
		})
	}
}

func CheckTurnHandler(m *Manager, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req playerRequest
		if err := bindPlayer(c, &req.PlayerID, &req); err != nil {
			writeAPIError(c, log, err)
			return
		}
		out, err := m.Check(c.Request.Context(), c.Param("id"), req.PlayerID)
		if err != nil {
			writeAPIError(c, log, err)
			return
		}
		if out.Winner != "" {
			ok(c, gin.H{"message": "turn passed. game over, winner: " + out.Winner, "winner": out.Winner})
			return
		}
		ok(c, gin.H{"message": "turn passed"})
	}
}

// HistoryHandler serves the archived record of a game.
func HistoryHandler(a SQLArchive, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		h, err := a.History(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeAPIError(c, log, err)
			return
		}
		ok(c, gin.H{"data": h})
	}
}
