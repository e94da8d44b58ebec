package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter builds a gin engine with CORS for the given origins and every API
// route attached.
func NewRouter(handler *Handler, allowedOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = allowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	router.Use(cors.New(corsConfig))

	SetupRoutes(router, handler)
	return router
}

func SetupRoutes(router *gin.Engine, handler *Handler) {
	api := router.Group("/api")
	{
		api.GET("/health", handler.HealthCheck)

		api.POST("/listings", handler.IngestListings)
		api.GET("/listings", handler.GetListings)
		api.GET("/listings/:id", handler.GetListing)

		api.GET("/stats", handler.GetMarketStats)

		api.POST("/cmas", handler.CreateCMA)
		api.GET("/cmas", handler.ListCMAs)
		api.GET("/cmas/:id", handler.GetCMA)
		api.DELETE("/cmas/:id", handler.DeleteCMA)
		api.GET("/cmas/:id/summary", handler.GetCMASummary)
		api.PUT("/cmas/:id/rates", handler.UpdateCMARates)
		api.PUT("/cmas/:id/overrides/:compId", handler.UpdateCMAOverrides)
		api.PUT("/cmas/:id/price", handler.EditPrice)
		api.POST("/cmas/:id/price/undo", handler.UndoPrice)
		api.POST("/cmas/:id/price/recalculate", handler.RecalculatePrice)
	}
}
