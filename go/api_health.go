package checkoutserver

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// HealthAPI reports process and dependency health.
type HealthAPI struct {
	checks  map[string]HealthCheck
	timeout time.Duration
}

// NewHealthAPI runs every check on each probe. A nil map reports only liveness.
func NewHealthAPI(checks map[string]HealthCheck) HealthAPI {
	return HealthAPI{checks: checks, timeout: 2 * time.Second}
}

// Get /healthz
func (api *HealthAPI) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), api.timeout)
	defer cancel()

	names := make([]string, 0, len(api.checks))
	for name := range api.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "ok"
	dependencies := make(map[string]string, len(names))
	for _, name := range names {
		if err := api.checks[name](ctx); err != nil {
			dependencies[name] = err.Error()
			status = "degraded"
			continue
		}
		dependencies[name] = "ok"
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status, "dependencies": dependencies})
}
