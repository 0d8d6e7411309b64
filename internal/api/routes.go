package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the planning endpoints on a /v1 group.
//
//	POST /v1/setup          - build a complete trade setup
//	POST /v1/levels         - derive stop and targets for an entry
//	GET  /v1/assets/:symbol - contract and market parameters
func RegisterRoutes(rg *gin.RouterGroup, h *Handlers) {
	rg.POST("/setup", h.HandleSetup)
	rg.POST("/levels", h.HandleLevels)
	rg.GET("/assets/:symbol", h.HandleAsset)
}

// NewRouter builds the engine with the API plus /health and /metrics
func NewRouter(h *Handlers, health, metrics http.Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	RegisterRoutes(router.Group("/v1"), h)
	if health != nil {
		router.GET("/health", gin.WrapH(health))
	}
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}
	return router
}
