package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

// checkTimeout bounds each dependency check so a hung database cannot stall /health.
const checkTimeout = 2 * time.Second

// dependencyCheck checks one backing service.
type dependencyCheck struct {
	name  string
	check func(ctx context.Context) error
}

// HealthController reports whether the catalog database and, when enabled,
// the task queue answer.
type HealthController struct {
	checks  []dependencyCheck
	version string
}

// NewHealthController checks db and, when non-nil, the task queue.
func NewHealthController(db Pinger, queue TaskQueue, version string) *HealthController {
	h := &HealthController{version: version}
	if db != nil {
		h.checks = append(h.checks, dependencyCheck{name: "database", check: func(context.Context) error {
			return db.Ping()
		}})
	}
	if queue != nil {
		h.checks = append(h.checks, dependencyCheck{name: "task_queue", check: func(ctx context.Context) error {
			// any id works; an unknown one still round-trips through the task database
			_, err := queue.Status(ctx, "health")
			return err
		}})
	}
	return h
}

// Status handles GET /health. Any failing check makes the response 503.
func (h *HealthController) Status(c *gin.Context) {
	results := make([]error, len(h.checks))

	var g errgroup.Group
	for i, p := range h.checks {
		g.Go(func() error {
			ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
			defer cancel()
			results[i] = p.check(ctx)
			return nil
		})
	}
	_ = g.Wait()

	checks := map[string]string{}
	healthy := true
	for i, p := range h.checks {
		if err := results[i]; err != nil {
			checks[p.name] = "error: " + err.Error()
			healthy = false
			continue
		}
		checks[p.name] = "ok"
	}
	if len(h.checks) == 0 {
		checks["database"] = "not configured"
	}

	resp := HealthResponse{
		Status:  "healthy",
		Time:    time.Now().UTC().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}
	code := http.StatusOK
	if !healthy {
		resp.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, resp)
}
