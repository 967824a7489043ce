package ginserver

import (
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	blockingsapp "hotelcore/internal/app/blockings"
	"hotelcore/internal/app/dto"
	"hotelcore/internal/domain/blocking"
)

type BlockingHandler struct {
	Blockings *blockingsapp.Service
	Logger    *slog.Logger
}

type createBlockingRequest struct {
	RoomID          string `json:"room_id"`
	Name            string `json:"name"`
	Type            string `json:"type"`
	Status          string `json:"status"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
	Reason          string `json:"reason"`
	ResponsibleUser string `json:"responsible_user"`
}

func (h BlockingHandler) Create(c *gin.Context) {
	var req createBlockingRequest
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
	params := blockingsapp.CreateParams{
		RoomID:          req.RoomID,
		Name:            req.Name,
		Type:            blocking.Type(req.Type),
		Status:          blocking.Status(req.Status),
		Start:           start,
		End:             end,
		Reason:          req.Reason,
		ResponsibleUser: req.ResponsibleUser,
	}
	b, err := h.Blockings.Create(c.Request.Context(), params)
	if err != nil {
		handleDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewBlocking(b))
}

func (h BlockingHandler) Get(c *gin.Context) {
	b, err := h.Blockings.Get(c.Request.Context(), blocking.IntervalID(c.Param("id")))
	if err != nil {
		handleDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewBlocking(b))
}

func (h BlockingHandler) ByRoom(c *gin.Context) {
	list, err := h.Blockings.ByRoom(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewBlockingCollection(list))
}

func (h BlockingHandler) Activate(c *gin.Context) {
	b, err := h.Blockings.Activate(c.Request.Context(), blocking.IntervalID(c.Param("id")))
	if err != nil {
		handleDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewBlocking(b))
}

func (h BlockingHandler) Complete(c *gin.Context) {
	b, err := h.Blockings.Complete(c.Request.Context(), blocking.IntervalID(c.Param("id")))
	if err != nil {
		handleDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewBlocking(b))
}

type cancelBlockingRequest struct {
	Reason string `json:"reason"`
}

func (h BlockingHandler) Cancel(c *gin.Context) {
	var req cancelBlockingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	b, err := h.Blockings.Cancel(c.Request.Context(), blocking.IntervalID(c.Param("id")), req.Reason)
	if err != nil {
		handleDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewBlocking(b))
}

type changeTypeRequest struct {
	Type string `json:"type"`
}

func (h BlockingHandler) ChangeType(c *gin.Context) {
	var req changeTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b, err := h.Blockings.ChangeType(c.Request.Context(), blocking.IntervalID(c.Param("id")), blocking.Type(req.Type))
	if err != nil {
		handleDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewBlocking(b))
}

type rescheduleRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func (h BlockingHandler) Reschedule(c *gin.Context) {
	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var start, end time.Time
	var ok bool
	if start, ok = parseDay(req.StartDate); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidDate("start_date").Error()})
		return
	}
	if end, ok = parseDay(req.EndDate); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidDate("end_date").Error()})
		return
	}
	b, err := h.Blockings.Reschedule(c.Request.Context(), blocking.IntervalID(c.Param("id")), start, end)
	if err != nil {
		handleDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewBlocking(b))
}

var _ BlockingHTTP = BlockingHandler{}
