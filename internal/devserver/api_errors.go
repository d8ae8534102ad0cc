package devserver

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sekata-go/internal/models"
)

var badRequest = []error{
	models.ErrInvalidJSON,
	models.ErrMissingPlayerID,
	models.ErrPlayerExists,
	models.ErrAlreadyStarted,
	models.ErrNotStarted,
	models.ErrNotEnoughPlayers,
	models.ErrGameOver,
	models.ErrNoMoves,
	models.ErrNoHandMove,
	models.ErrTooManyMoves,
	models.ErrInvalidMove,
	models.ErrCardNotInHand,
	models.ErrHelperNotFound,
	models.ErrEmptyDeck,
}

var forbidden = []error{
	models.ErrNotAPlayer,
	models.ErrNotHost,
	models.ErrNotYourTurn,
}

// writeAPIError answers with the {success:false,message} envelope. Known
// sentinels are echoed; anything else is logged and hidden.
func writeAPIError(c *gin.Context, log *zap.Logger, err error) {
	status := http.StatusInternalServerError
	msg := "internal server error"

	switch {
	case err == nil:
	case errors.Is(err, models.ErrGameNotFound), errors.Is(err, models.ErrNotFound), errors.Is(err, sql.ErrNoRows):
		status, msg = http.StatusNotFound, err.Error()
	case isAny(err, forbidden):
		status, msg = http.StatusForbidden, err.Error()
	case isAny(err, badRequest):
		status, msg = http.StatusBadRequest, err.Error()
	default:
		log.Error("internal error", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": msg})
}

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}
