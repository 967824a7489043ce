package ginserver

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	availabilityapp "hotelcore/internal/app/availability"
	"hotelcore/internal/app/dto"
	"hotelcore/internal/domain/room"
)

type AvailabilityHandler struct {
	Availability *availabilityapp.Service
	Logger       *slog.Logger
}

func (h AvailabilityHandler) Check(c *gin.Context) {
	start, end, ok := h.requireRange(c)
	if !ok {
		return
	}
	result, err := h.Availability.CheckAvailability(c.Request.Context(), room.RoomID(c.Param("id")), start, end)
	if err != nil {
		handleDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewAvailability(result))
}

func (h AvailabilityHandler) Fleet(c *gin.Context) {
	start, end, ok := h.requireRange(c)
	if !ok {
		return
	}
	filter := room.ListFilter{RoomType: strings.TrimSpace(c.Query("room_type"))}
	if raw := c.Query("floor"); raw != "" {
		floor, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "floor must be an integer"})
			return
		}
		filter.Floor = &floor
	}
	results, err := h.Availability.FleetAvailability(c.Request.Context(), start, end, filter)
	if err != nil {
		handleDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewFleetAvailabilityReport(results))
}

type reserveRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	GuestRef  string `json:"guest_ref"`
	Notes     string `json:"notes"`
}

func (h AvailabilityHandler) Reserve(c *gin.Context) {
	var req reserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, ok := parseDay(req.StartDate)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidDate("start_date").Error()})
		return
	}
	end, ok := parseDay(req.EndDate)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidDate("end_date").Error()})
		return
	}
	r, err := h.Availability.Reserve(c.Request.Context(), room.RoomID(c.Param("id")), start, end, req.GuestRef, req.Notes)
	if err != nil {
		handleDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewRoom(r))
}

type cancelReservationRequest struct {
	Reason string `json:"reason"`
}

func (h AvailabilityHandler) CancelReservation(c *gin.Context) {
	var req cancelReservationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	r, err := h.Availability.CancelReservation(c.Request.Context(), room.RoomID(c.Param("id")), req.Reason)
	if err != nil {
		handleDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewRoom(r))
}

func (h AvailabilityHandler) requireRange(c *gin.Context) (time.Time, time.Time, bool) {
	start, ok := parseDay(c.Query("start"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidDate("start").Error()})
		return time.Time{}, time.Time{}, false
	}
	end, ok := parseDay(c.Query("end"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidDate("end").Error()})
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

var _ AvailabilityHTTP = AvailabilityHandler{}
