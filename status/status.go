// Package status exposes the daemon's operational state over HTTP: a
// liveness probe and per-task tick counters.
package status

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/paykit/tasks"
)

// NewRouter builds the ops router over the given tasks.
func NewRouter(reg ...tasks.Task) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	r.GET("/status", func(c *gin.Context) {
		out := make(map[string]tasks.Snapshot, len(reg))
		for _, t := range reg {
			out[t.Name()] = t.Stats().Snapshot()
		}
		c.JSON(http.StatusOK, out)
	})

	return r
}
