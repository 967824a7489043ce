package ginserver

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"hotelcore/internal/app/dto"
	roomsapp "hotelcore/internal/app/rooms"
	"hotelcore/internal/domain/history"
	"hotelcore/internal/domain/room"
)

type RoomHandler struct {
	Rooms  *roomsapp.Service
	Logger *slog.Logger
}

type createRoomRequest struct {
	RoomNumber   string `json:"room_number"`
	Floor        int    `json:"floor"`
	RoomType     string `json:"room_type"`
	MaxOccupancy int    `json:"max_occupancy"`
}

func (h RoomHandler) Create(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	r, err := h.Rooms.CreateRoom(c.Request.Context(), roomsapp.CreateRoomParams{
		RoomNumber:   req.RoomNumber,
		Floor:        req.Floor,
		RoomType:     req.RoomType,
		MaxOccupancy: req.MaxOccupancy,
	})
	if err != nil {
		handleDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewRoom(r))
}

func (h RoomHandler) List(c *gin.Context) {
	filter := room.ListFilter{RoomType: strings.TrimSpace(c.Query("room_type"))}
	if raw := c.Query("floor"); raw != "" {
		floor, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "floor must be an integer"})
			return
		}
		filter.Floor = &floor
	}
	for _, raw := range c.QueryArray("state") {
		state := room.State(raw)
		if !room.ValidState(state) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown state " + raw})
			return
		}
		filter.States = append(filter.States, state)
	}
	rooms, err := h.Rooms.List(c.Request.Context(), filter)
	if err != nil {
		handleDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewRoomCollection(rooms))
}

func (h RoomHandler) Get(c *gin.Context) {
	r, err := h.Rooms.Get(c.Request.Context(), room.RoomID(c.Param("id")))
	if err != nil {
		handleDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewRoom(r))
}

type roomActionRequest struct {
	Actor  string `json:"actor"`
	Reason string `json:"reason"`
	Notes  string `json:"notes"`
}

func (h RoomHandler) Action(c *gin.Context) {
	action := room.Action(c.Param("action"))
	if !room.ValidAction(action) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown action " + c.Param("action")})
		return
	}
	var req roomActionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	r, err := h.Rooms.Apply(c.Request.Context(), room.RoomID(c.Param("id")), action, roomsapp.ActionParams{
		Actor:  req.Actor,
		Reason: req.Reason,
		Notes:  req.Notes,
	})
	if err != nil {
		handleDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewRoom(r))
}

func (h RoomHandler) History(c *gin.Context) {
	filter := history.Filter{ChangeType: history.ChangeType(c.Query("change_type"))}
	if limit := parseInt(c.Query("limit")); limit > 0 {
		filter.Limit = limit
	}
	from, to, err := parseDayRange(c.Query("from"), c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	filter.From, filter.To = from, to
	entries, err := h.Rooms.HistoryFor(c.Request.Context(), room.RoomID(c.Param("id")), filter)
	if err != nil {
		handleDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewHistoryCollection(entries))
}

func (h RoomHandler) Timeline(c *gin.Context) {
	from, to, err := parseDayRange(c.Query("from"), c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entries, err := h.Rooms.Timeline(c.Request.Context(), room.RoomID(c.Param("id")), from, to)
	if err != nil {
		handleDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewHistoryCollection(entries))
}

func (h RoomHandler) StatusSummary(c *gin.Context) {
	days := parseIntWithDefault(c.Query("days"), 30)
	summary, err := h.Rooms.StatusSummary(c.Request.Context(), room.RoomID(c.Param("id")), days)
	if err != nil {
		handleDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewHistorySummary(summary))
}

func parseInt(raw string) int {
	v, _ := strconv.Atoi(strings.TrimSpace(raw))
	return v
}

func parseIntWithDefault(raw string, def int) int {
	if v := parseInt(raw); v > 0 {
		return v
	}
	return def
}

func parseDay(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func parseDayRange(fromRaw, toRaw string) (time.Time, time.Time, error) {
	var from, to time.Time
	if fromRaw != "" {
		t, ok := parseDay(fromRaw)
		if !ok {
			return time.Time{}, time.Time{}, errInvalidDate("from")
		}
		from = t
	}
	if toRaw != "" {
		t, ok := parseDay(toRaw)
		if !ok {
			return time.Time{}, time.Time{}, errInvalidDate("to")
		}
		to = t
	}
	return from, to, nil
}

type invalidDateError string

func (e invalidDateError) Error() string {
	return string(e) + " must be a YYYY-MM-DD or RFC3339 date"
}

func errInvalidDate(field string) error { return invalidDateError(field) }

var _ RoomHTTP = RoomHandler{}
