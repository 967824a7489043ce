package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	availabilityapp "hotelcore/internal/app/availability"
	"hotelcore/internal/domain/blocking"
	"hotelcore/internal/domain/history"
	"hotelcore/internal/domain/room"
	"hotelcore/internal/domain/shared/daterange"
	inframongo "hotelcore/internal/infra/db/mongo"
)

func handleDomainError(c *gin.Context, logger *slog.Logger, err error) {
	status := statusFor(err)
	if logger != nil && status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err, "path", c.FullPath())
	}
	var transition *room.InvalidTransitionError
	if errors.As(err, &transition) {
		allowed := make([]string, 0, len(transition.Allowed))
		for _, a := range transition.Allowed {
			allowed = append(allowed, string(a))
		}
		c.JSON(status, gin.H{"error": err.Error(), "allowed_actions": allowed})
		return
	}
	var overlap *blocking.OverlapConflictError
	if errors.As(err, &overlap) {
		conflicts := make([]string, 0, len(overlap.Conflicts))
		for _, b := range overlap.Conflicts {
			conflicts = append(conflicts, string(b.ID))
		}
		c.JSON(status, gin.H{"error": err.Error(), "conflicts": conflicts})
		return
	}
	var unavailable *availabilityapp.NotAvailableError
	if errors.As(err, &unavailable) {
		c.JSON(status, gin.H{"error": err.Error(), "reasons": unavailable.Reasons})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, room.ErrRoomNotFound), errors.Is(err, blocking.ErrIntervalNotFound):
		return http.StatusNotFound
	case errors.Is(err, room.ErrDuplicateRoom), errors.Is(err, inframongo.ErrConcurrentUpdate):
		return http.StatusConflict
	case errors.Is(err, daterange.ErrInvalidSpan), errors.Is(err, history.ErrNoChanges):
		return http.StatusBadRequest
	case errors.Is(err, room.ErrNoStatusChange):
		return http.StatusUnprocessableEntity
	}
	var transition *room.InvalidTransitionError
	if errors.As(err, &transition) {
		return http.StatusUnprocessableEntity
	}
	var overlap *blocking.OverlapConflictError
	if errors.As(err, &overlap) {
		return http.StatusConflict
	}
	var terminal *blocking.AlreadyTerminalError
	if errors.As(err, &terminal) {
		return http.StatusConflict
	}
	var unavailable *availabilityapp.NotAvailableError
	if errors.As(err, &unavailable) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
