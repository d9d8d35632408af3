// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ridecore/internal/modules/booking"
	"ridecore/internal/modules/location"
	"ridecore/internal/modules/review"
	"ridecore/internal/modules/vehicle"
)

type errorResponse struct {
	Error string `json:"error"`
}

// isValidID accepts vehicle IDs and UUIDs: up to 64 letters, digits, '-' or '_'.
func isValidID(v string) bool {
	if v == "" || len(v) > 64 {
		return false
	}
	for _, c := range v {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '-' || c == '_' {
			continue
		}
		return false
	}
	return true
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// writeServiceError maps module sentinel errors to HTTP statuses. Anything
// unrecognised is a 500 and is attached to the context for the request log.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, vehicle.ErrNotFound), errors.Is(err, review.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, vehicle.ErrAlreadyBooked),
		errors.Is(err, vehicle.ErrNotBooked),
		errors.Is(err, vehicle.ErrConflict),
		errors.Is(err, review.ErrAlreadyCompleted):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, review.ErrInvalidRating),
		errors.Is(err, review.ErrBadRequest),
		errors.Is(err, booking.ErrBadRequest),
		errors.Is(err, location.ErrBadRequest),
		errors.Is(err, location.ErrInvalidPosition):
		writeError(c, http.StatusBadRequest, err.Error())
	default:
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
