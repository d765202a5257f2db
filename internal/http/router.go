package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/voicelens/backend/internal/config"
	"github.com/voicelens/backend/internal/http/handlers"
	"github.com/voicelens/backend/internal/http/middleware"
	"github.com/voicelens/backend/internal/insight"
	"github.com/voicelens/backend/internal/observability"
	"github.com/voicelens/backend/internal/predict"
	"github.com/voicelens/backend/internal/warehouse"

	_ "github.com/voicelens/backend/docs"
)

func Router(cfg config.Config, gateway warehouse.Gateway, health handlers.Pinger, insights *insight.Service, predictor predict.Client, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(observability.Middleware())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Admin-Key", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Insights:  insights,
		Predict:   predictor,
		Gateway:   gateway,
		Health:    health,
		Validator: validator.New(),
		Schema:    cfg.WarehouseSchema,
		Logger:    logger,
	}

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", observability.Handler())

	api := r.Group("/api")
	{
		api.GET("/insights/root-cause", h.RootCause)
		api.GET("/insights/geo-hotspots", h.GeoHotspots)
		api.GET("/insights/product-features", h.ProductFeatures)
		api.GET("/insights/emerging-trends", h.EmergingTrends)
		api.GET("/insights/competitors", h.Competitors)
		api.POST("/predict", h.PredictReviews)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.GET("/debug/tables", h.DebugTables)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
