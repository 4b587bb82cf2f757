package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"greenbite/internal/api"
	"greenbite/internal/core/cache"
	"greenbite/internal/core/emissions"
	"greenbite/internal/core/footprint"
	"greenbite/internal/core/predictor"
	"greenbite/internal/infrastructure/config"
	"greenbite/internal/infrastructure/dataset"
	"greenbite/internal/infrastructure/metrics"
	"greenbite/internal/pkg/common"

	"go.uber.org/zap"
)

func main() {
	// 載入設定（含 .env）
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(common.LogOptions{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Service:    cfg.App.Name,
	}); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	common.LogMode = cfg.Log.Mode
	defer common.Sync()

	common.LogInfo("載入設定", zap.Any("config", cfg.Summary()))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	m := metrics.New()

	// 載入參考資料集；缺檔時仍啟動，/ready 回報 503 直到重新載入成功
	loader := dataset.NewLoader(cfg.Datasets)
	store := dataset.NewStore(loader)
	store.OnSwap(func(snap *dataset.Snapshot) {
		m.RecordReload(true, snap.Recipes.Len(), snap.Emissions.Len())
	})
	if _, err := store.Reload(ctx); err != nil {
		m.RecordReload(false, 0, 0)
		common.LogWarn("Initial dataset load failed", zap.Error(err))
	}

	if cfg.Datasets.Watch {
		watcher, err := dataset.NewWatcher(store, loader.Paths(), cfg.Datasets.WatchDebounce)
		if err != nil {
			common.LogWarn("Dataset watcher disabled", zap.Error(err))
		} else {
			go watcher.Run(ctx)
		}
	}

	// 初始化快取；Redis 無法連線時退回記憶體快取
	analysisCache, err := cache.New(ctx, cfg)
	if err != nil {
		common.LogWarn("Cache backend unavailable, using in-memory cache",
			zap.String("backend", cfg.Cache.Backend),
			zap.Error(err),
		)
		analysisCache = cache.NewManager(cfg.Cache)
	}
	if analysisCache != nil {
		defer analysisCache.Close()
	}

	policy, err := emissions.ParseDuplicatePolicy(cfg.Matching.DuplicatePolicy)
	if err != nil {
		common.LogFatal("Invalid duplicate policy", zap.Error(err))
	}

	var model footprint.Predictor
	if cfg.Predictor.Enabled {
		model = predictor.NewClient(cfg.Predictor)
	}

	svc := footprint.NewService(store, footprint.Options{
		RecipeThreshold:        cfg.Matching.RecipeThreshold,
		CandidateLimit:         cfg.Matching.CandidateLimit,
		EmissionsMinConfidence: cfg.Matching.EmissionsMinConfidence,
		DuplicatePolicy:        policy,
	}, analysisCache, model, m)

	// 設置路由
	router, err := api.SetupRouter(cfg, api.Dependencies{
		Service: svc,
		Store:   store,
		Metrics: m,
		Cache:   analysisCache,
	})
	if err != nil {
		common.LogError("Failed to setup router", zap.Error(err))
		os.Exit(1)
	}

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Int("port", cfg.Server.Port),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			common.LogError("Failed to start server", zap.Error(err))
			os.Exit(1)
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")
	stop()

	// 設置關閉超時
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
		os.Exit(1)
	}

	common.LogInfo("Server exited")
}
