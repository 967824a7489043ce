package obs

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const probeTimeout = 2 * time.Second

// Check is one named readiness probe: the storage connection, the broker, or
// whatever else the process cannot serve without.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// HealthHandlers reports liveness unconditionally and readiness per check, so
// a degraded dependency shows up by name in the /readyz body.
type HealthHandlers struct {
	Checks []Check
}

func (h HealthHandlers) Livez(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "up"})
}

func (h HealthHandlers) Readyz(c *gin.Context) {
	status := http.StatusOK
	report := gin.H{}
	for _, chk := range h.Checks {
		ctx, cancel := context.WithTimeout(c.Request.Context(), probeTimeout)
		err := chk.Probe(ctx)
		cancel()
		if err != nil {
			status = http.StatusServiceUnavailable
			report[chk.Name] = err.Error()
			continue
		}
		report[chk.Name] = "ok"
	}
	if status == http.StatusOK {
		report["status"] = "ready"
	} else {
		report["status"] = "not ready"
	}
	c.JSON(status, report)
}
