package api

import (
	"fmt"
	"time"

	"greenbite/internal/api/handlers/datasets"
	footprintHandler "greenbite/internal/api/handlers/footprint"
	"greenbite/internal/api/handlers/health"
	"greenbite/internal/api/middleware"
	"greenbite/internal/core/cache"
	"greenbite/internal/infrastructure/config"
	"greenbite/internal/infrastructure/dataset"
	"greenbite/internal/infrastructure/metrics"
	"greenbite/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies 路由需要的服務
type Dependencies struct {
	Service footprintHandler.Service
	Store   *dataset.Store
	Metrics *metrics.Metrics
	Cache   cache.Cache
}

// corsConfig 依設定的來源建立 CORS 設定；含 "*" 時允許所有來源且不帶憑證
func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			c.AllowAllOrigins = true
			c.AllowCredentials = false
			return c
		}
	}
	c.AllowOrigins = origins
	return c
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, deps Dependencies) (*gin.Engine, error) {
	if deps.Service == nil || deps.Store == nil {
		return nil, fmt.Errorf("router requires a footprint service and a dataset store")
	}

	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.NoRoute(func(c *gin.Context) { common.RespondError(c, common.ErrNotFound) })
	router.NoMethod(func(c *gin.Context) { common.RespondError(c, common.ErrMethodNotAllowed) })

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.Logger())
	router.Use(cors.New(corsConfig(cfg.CORS.AllowOrigins)))
	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))
	if deps.Metrics != nil {
		router.Use(middleware.Metrics(deps.Metrics))
	}
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window, cfg.RateLimit.Burst))
	}
	router.Use(middleware.NewDeduplicator(cfg.DedupWindow).Middleware())
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	// 設置配置
	router.Use(func(c *gin.Context) {
		c.Set("config", cfg)
		c.Next()
	})

	// 健康檢查路由
	healthH := health.NewHandler(cfg, deps.Store)
	if sp, ok := deps.Cache.(health.StatsProvider); ok {
		healthH.WithCacheStats(sp)
	}
	router.GET("/health", healthH.HealthCheck)
	router.GET("/ready", healthH.ReadinessCheck)
	router.GET("/live", healthH.LivenessCheck)
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	fp := footprintHandler.NewHandler(deps.Service)
	ds := datasets.NewHandler(deps.Store, deps.Metrics)

	// 與既有前端相容的根路徑
	router.POST("/search", fp.HandleSearch)
	router.POST("/emissions", fp.HandleEmissions)
	router.POST("/predict", fp.HandlePredict)
	router.POST("/compare-dishes", fp.HandleCompare)

	// API 路由組
	api := router.Group("/api/v1")
	{
		footprintGroup := api.Group("/footprint")
		{
			footprintGroup.POST("/search", fp.HandleSearch)
			footprintGroup.POST("/emissions", fp.HandleEmissions)
			footprintGroup.POST("/predict", fp.HandlePredict)
			footprintGroup.POST("/analyze", fp.HandleAnalyze)
			footprintGroup.POST("/compare-dishes", fp.HandleCompare)
		}

		datasetGroup := api.Group("/datasets")
		{
			datasetGroup.GET("", ds.HandleStatus)
			datasetGroup.POST("/reload", ds.HandleReload)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.Bool("metrics", deps.Metrics != nil),
		zap.Duration("timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return router, nil
}
