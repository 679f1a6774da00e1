package server

import (
	"errors"
	"net/http"

	"top-ten/internal/catalog"
	"top-ten/internal/game"
	"top-ten/internal/metrics"

	"github.com/gin-gonic/gin"
)

func writeError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"error": message,
	})
}

// roundErrorStatus maps a rejected transition to a response status.
func roundErrorStatus(err error) int {
	switch {
	case errors.Is(err, errRoundNotFound), errors.Is(err, errGroupNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrUnknownItem),
		errors.Is(err, game.ErrUnknownPlayer),
		errors.Is(err, game.ErrInvalidDraftType),
		errors.Is(err, game.ErrJudgeNotInRoster),
		errors.Is(err, game.ErrRosterTooSmall),
		errors.Is(err, game.ErrDuplicatePlayer):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrNotSetup),
		errors.Is(err, game.ErrNotPlaying),
		errors.Is(err, game.ErrNotCompleted),
		errors.Is(err, game.ErrNoList),
		errors.Is(err, game.ErrEmptyList),
		errors.Is(err, game.ErrAlreadyGuessed),
		errors.Is(err, game.ErrJudgeCannotScore):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeRoundError(c *gin.Context, err error) {
	status := roundErrorStatus(err)
	if status == http.StatusInternalServerError {
		writeError(c, status, "failed to update round")
		return
	}
	writeError(c, status, err.Error())
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, game.ErrAlreadyGuessed):
		return "already_guessed"
	case errors.Is(err, game.ErrJudgeCannotScore):
		return "judge"
	case errors.Is(err, game.ErrNotPlaying):
		return "not_playing"
	case errors.Is(err, game.ErrUnknownItem):
		return "unknown_item"
	case errors.Is(err, game.ErrUnknownPlayer):
		return "unknown_player"
	default:
		return "other"
	}
}

func recordRejectedGuess(err error) {
	metrics.RejectedGuesses.WithLabelValues(rejectionReason(err)).Inc()
}

// writeCatalogError maps repository errors onto response codes and
// user-facing messages.
func writeCatalogError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		writeError(c, http.StatusNotFound, "Not found")
	case errors.Is(err, catalog.ErrNoListsAvailable):
		writeError(c, http.StatusNotFound, "No lists available yet")
	case errors.Is(err, catalog.ErrCategoryIncomplete):
		writeError(c, http.StatusBadRequest, "Category name and icon are required")
	case errors.Is(err, catalog.ErrListIncomplete):
		writeError(c, http.StatusBadRequest, "List title and category are required")
	case errors.Is(err, catalog.ErrItemNameRequired):
		writeError(c, http.StatusBadRequest, "All items must have a name")
	case errors.Is(err, catalog.ErrItemNameMissing):
		writeError(c, http.StatusBadRequest, "Item name is required")
	case errors.Is(err, catalog.ErrInvalidRank):
		writeError(c, http.StatusBadRequest, "Item rank must be positive")
	case errors.Is(err, catalog.ErrItemNotInList):
		writeError(c, http.StatusBadRequest, "Item does not belong to this list")
	case errors.Is(err, catalog.ErrDuplicateRank):
		writeError(c, http.StatusConflict, "An item with that rank already exists")
	case errors.Is(err, catalog.ErrDuplicateCategory):
		writeError(c, http.StatusConflict, "A category with that name already exists")
	default:
		writeError(c, http.StatusInternalServerError, fallback)
	}
}
