package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/BinLe1988/media-moderation/api"
	"github.com/BinLe1988/media-moderation/api/handlers"
	"github.com/BinLe1988/media-moderation/configs"
	"github.com/BinLe1988/media-moderation/database"
	"github.com/BinLe1988/media-moderation/pkg/detector"
	"github.com/BinLe1988/media-moderation/pkg/filter"
	"github.com/BinLe1988/media-moderation/pkg/logger"
	"github.com/BinLe1988/media-moderation/pkg/media"
	"github.com/BinLe1988/media-moderation/pkg/metrics"
	"github.com/BinLe1988/media-moderation/pkg/moderation"
)

func main() {
	// .env 可选
	_ = godotenv.Load()

	// 加载配置
	cfg, err := configs.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化数据库连接并加载词表
	if err := database.Initialize(cfg.Database, log); err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer database.Close(log)

	if err := database.SeedLexicon(database.DB, filter.DefaultLexicon()); err != nil {
		log.Fatal("failed to seed lexicon", zap.Error(err))
	}
	lexicon, err := database.LoadLexicon(database.DB)
	if err != nil {
		log.Fatal("failed to load lexicon", zap.Error(err))
	}

	textModerator, err := filter.NewTextModerator(lexicon, nil, nil)
	if err != nil {
		log.Fatal("invalid lexicon", zap.Error(err))
	}

	// 检测模型异步加载，就绪前分析接口返回 503
	loader, err := detector.NewLoader(detector.BackendConfig{
		Type:      detector.BackendType(cfg.Detector.Backend),
		ObjectURL: cfg.Detector.ObjectURL,
		FaceURL:   cfg.Detector.FaceURL,
		Timeout:   cfg.Detector.Timeout,
		Retries:   cfg.Detector.Retries,
	}, log)
	if err != nil {
		log.Fatal("invalid detector backend", zap.Error(err))
	}
	registry := detector.NewRegistry(loader, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := registry.Load(ctx); err != nil {
			log.Error("models unavailable", zap.Error(err))
			return
		}
		metrics.ModelsLoaded.Set(1)
	}()

	cache := filter.NewCacheManager(cfg.Cache.MaxEntries, cfg.Cache.TTL)
	monitor := filter.NewCacheMonitor(cache, filter.MonitorConfig{Interval: cfg.Cache.MonitorInterval}, log)
	monitor.Start()
	defer monitor.Stop()

	service := moderation.NewService(moderation.Config{
		Registry:       registry,
		Text:           textModerator,
		Image:          filter.NewImageModerator(filter.DefaultObjectRules()),
		Transcoder:     media.NewFFmpeg(cfg.Media.FFmpegPath, cfg.Media.FFprobePath, cfg.Media.FrameSize, log),
		Cache:          cache,
		FramesDir:      cfg.Server.FramesDir,
		MaxConcurrency: cfg.Detector.MaxConcurrency,
		Logger:         log,
	})

	router := api.NewRouter(api.RouterConfig{
		Moderation: handlers.NewModerationHandler(service, handlers.ModerationHandlerConfig{
			UploadDir:        cfg.Server.UploadDir,
			MaxUploadBytes:   cfg.Server.MaxUploadMB << 20,
			MaxTextBytes:     cfg.Moderation.MaxTextBytes,
			TextPreviewChars: cfg.Moderation.TextPreviewChars,
		}, log),
		Lexicon:        handlers.NewLexiconHandler(database.DB, textModerator),
		Ready:          registry.Ready,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         log,
	})
	router.MaxMultipartMemory = 32 << 20

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// 启动服务器
	go func() {
		log.Info("video moderation API running", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}

	if err := os.RemoveAll(cfg.Server.FramesDir); err != nil {
		log.Warn("could not clean up frames directory", zap.Error(err))
	}
}
