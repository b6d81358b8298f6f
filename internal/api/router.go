package api

import (
	"github.com/gin-gonic/gin"
	"github.com/timmy/vendorseo/internal/api/handler"
	"github.com/timmy/vendorseo/internal/api/middleware"
	"github.com/timmy/vendorseo/internal/config"
	"github.com/timmy/vendorseo/internal/service"
	"github.com/timmy/vendorseo/internal/telemetry"
)

// RouterDeps carries what SetupRouter wires into handlers. Metrics and Ping
// may be nil.
type RouterDeps struct {
	SEO       *service.SEOService
	Locations *service.LocationService
	Metrics   *telemetry.Metrics
	Ping      handler.PingFunc
	Server    config.ServerConfig
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(deps RouterDeps) *gin.Engine {
	switch deps.Server.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(deps.Server.CORS))
	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	healthHandler := handler.NewHealthHandler(deps.Ping)
	seoHandler := handler.NewSEOHandler(deps.SEO)
	locationHandler := handler.NewLocationHandler(deps.Locations)

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")
	{
		api.POST("/ai/seo-keywords", seoHandler.GenerateKeywords)
		api.GET("/debug/competitors", seoHandler.DebugCompetitors)

		api.POST("/locations", locationHandler.AddAreas)
		api.GET("/locations", locationHandler.ListLocations)

		vendors := api.Group("/vendors/:vendorId")
		vendors.GET("/seo-keywords", seoHandler.GetVendorKeywords)
		vendors.GET("/seo-logs", seoHandler.ListVendorLogs)
		vendors.GET("/runs/*key", seoHandler.GetVendorRun)
	}

	return r
}
