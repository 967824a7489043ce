package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"hotelcore/internal/infra/config"
	"hotelcore/internal/infra/obs"
)

type RoomHTTP interface {
	Create(c *gin.Context)
	List(c *gin.Context)
	Get(c *gin.Context)
	Action(c *gin.Context)
	History(c *gin.Context)
	Timeline(c *gin.Context)
	StatusSummary(c *gin.Context)
}

type BlockingHTTP interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	ByRoom(c *gin.Context)
	Activate(c *gin.Context)
	Complete(c *gin.Context)
	Cancel(c *gin.Context)
	ChangeType(c *gin.Context)
	Reschedule(c *gin.Context)
}

type AvailabilityHTTP interface {
	Check(c *gin.Context)
	Fleet(c *gin.Context)
	Reserve(c *gin.Context)
	CancelReservation(c *gin.Context)
}

type SettingsHTTP interface {
	GetPolicy(c *gin.Context)
	PutPolicy(c *gin.Context)
}

type Handlers struct {
	Room         RoomHTTP
	Blocking     BlockingHTTP
	Availability AvailabilityHTTP
	Settings     SettingsHTTP
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Room != nil {
		api.POST("/rooms", h.Room.Create)
		api.GET("/rooms", h.Room.List)
		api.GET("/rooms/:id", h.Room.Get)
		api.POST("/rooms/:id/actions/:action", h.Room.Action)
		api.GET("/rooms/:id/history", h.Room.History)
		api.GET("/rooms/:id/timeline", h.Room.Timeline)
		api.GET("/rooms/:id/status-summary", h.Room.StatusSummary)
	}
	if h.Blocking != nil {
		api.POST("/blockings", h.Blocking.Create)
		api.GET("/blockings/:id", h.Blocking.Get)
		api.GET("/rooms/:id/blockings", h.Blocking.ByRoom)
		api.POST("/blockings/:id/activate", h.Blocking.Activate)
		api.POST("/blockings/:id/complete", h.Blocking.Complete)
		api.POST("/blockings/:id/cancel", h.Blocking.Cancel)
		api.PATCH("/blockings/:id/type", h.Blocking.ChangeType)
		api.PATCH("/blockings/:id/schedule", h.Blocking.Reschedule)
	}
	if h.Availability != nil {
		api.GET("/rooms/:id/availability", h.Availability.Check)
		api.GET("/availability", h.Availability.Fleet)
		api.POST("/rooms/:id/reserve", h.Availability.Reserve)
		api.POST("/rooms/:id/cancel-reservation", h.Availability.CancelReservation)
	}
	if h.Settings != nil {
		api.GET("/settings/policy", h.Settings.GetPolicy)
		api.PUT("/settings/policy", h.Settings.PutPolicy)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
