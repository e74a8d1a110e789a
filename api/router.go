package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BinLe1988/media-moderation/api/handlers"
	"github.com/BinLe1988/media-moderation/api/middleware"
)

// RouterConfig 路由依赖
type RouterConfig struct {
	Moderation     *handlers.ModerationHandler
	Lexicon        *handlers.LexiconHandler
	Ready          func() bool
	AllowedOrigins []string
	Logger         *zap.Logger
}

// NewRouter 创建 gin 实例并设置路由
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	SetupRouter(router, cfg)
	return router
}

// SetupRouter 设置API路由
func SetupRouter(router *gin.Engine, cfg RouterConfig) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	}

	router.Use(
		middleware.Logger(logger),
		middleware.Recovery(logger),
		cors.New(corsConfig),
		middleware.ErrorHandler(logger),
	)

	router.GET("/health", handlers.Health(cfg.Ready))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	cfg.Moderation.RegisterRoutes(router, middleware.Readiness(cfg.Ready))
	if cfg.Lexicon != nil {
		cfg.Lexicon.RegisterRoutes(router)
	}

	router.NoRoute(handlers.NotFound)
}
