package healthcheck

import "github.com/gin-gonic/gin"

// Configure configures router with a /healthz endpoint using a handler created with NewHandler.
func Configure(router gin.IRouter, store, api Client) {
	router.GET("/healthz", NewHandler(store, api))
}
