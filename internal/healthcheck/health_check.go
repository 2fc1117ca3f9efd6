// Package healthcheck serves the /healthz endpoint.
package healthcheck

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ladeflyt/grunnlag/internal/build"
)

// Client defines health check behavior for a service dependency.
type Client interface {
	// IsHealthy returns true if the dependency is usable, else false.
	IsHealthy(context.Context) bool
}

// NewHandler returns a gin.HandlerFunc that provides a health check endpoint behavior. On each
// request it queries store.IsHealthy and api.IsHealthy; it returns a 200 if the store is
// healthy, else a 500. API reachability is reported but does not fail the check as the service
// can still serve logged-in pages while the Zaptec cloud is down.
func NewHandler(store, api Client) gin.HandlerFunc {
	start := time.Now()
	return func(ctx *gin.Context) {
		storeHealthy := store.IsHealthy(ctx)

		res := struct {
			GitRev          string  `json:"git_rev"`
			Uptime          float64 `json:"uptime"`
			Goroutines      int     `json:"goroutines"`
			StoreAvailable  bool    `json:"store_available"`
			ZaptecReachable bool    `json:"zaptec_reachable"`
		}{
			GitRev:          build.GetGitRevision(),
			Uptime:          time.Since(start).Seconds(),
			Goroutines:      runtime.NumGoroutine(),
			StoreAvailable:  storeHealthy,
			ZaptecReachable: api.IsHealthy(ctx),
		}

		status := http.StatusOK
		if !storeHealthy {
			status = http.StatusInternalServerError
		}

		ctx.JSON(status, res)
	}
}
