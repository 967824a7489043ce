package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"hotelcore/internal/domain/policy"
)

type SettingsHandler struct {
	Policies policy.Store
	Logger   *slog.Logger
}

func (h SettingsHandler) GetPolicy(c *gin.Context) {
	p, err := h.Policies.Load(c.Request.Context())
	if err != nil {
		handleDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h SettingsHandler) PutPolicy(c *gin.Context) {
	var p policy.Policy
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Policies.Save(c.Request.Context(), p); err != nil {
		handleDomainError(c, h.Logger, err)
		return
	}
	if h.Logger != nil {
		h.Logger.Info("inventory policy updated",
			"require_inspected_to_sell", p.RequireInspectedToSell,
			"event_closes_inventory", p.EventClosesInventory)
	}
	c.JSON(http.StatusOK, p)
}

var _ SettingsHTTP = SettingsHandler{}
