package health

import (
	"net/http"
	"runtime"
	"time"

	"greenbite/internal/infrastructure/config"
	"greenbite/internal/infrastructure/dataset"
	"greenbite/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Datasets  *dataset.Status        `json:"datasets,omitempty"`
	Cache     map[string]interface{} `json:"cache,omitempty"`
}

// SnapshotSource 提供目前的資料快照
type SnapshotSource interface {
	Current() *dataset.Snapshot
}

// StatsProvider 提供快取統計
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// Handler 健康檢查處理器
type Handler struct {
	cfg    *config.Config
	source SnapshotSource
	stats  StatsProvider
}

// NewHandler 創建健康檢查處理器
func NewHandler(cfg *config.Config, source SnapshotSource) *Handler {
	return &Handler{cfg: cfg, source: source}
}

// WithCacheStats 在健康檢查中附上快取統計
func (h *Handler) WithCacheStats(sp StatsProvider) *Handler {
	h.stats = sp
	return h
}

func (h *Handler) datasetStatus() *dataset.Status {
	if h.source == nil {
		return nil
	}
	snap := h.source.Current()
	if snap == nil {
		return nil
	}
	st := snap.Status()
	return &st
}

// HealthCheck 健康檢查處理器
func (h *Handler) HealthCheck(c *gin.Context) {
	// 獲取運行時信息
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	version := ""
	if h.cfg != nil {
		version = h.cfg.App.Version
	}

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
		Datasets: h.datasetStatus(),
	}
	if h.stats != nil {
		response.Cache = h.stats.GetStats()
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 兩份參考資料都載入後才回應 ready
func (h *Handler) ReadinessCheck(c *gin.Context) {
	var snap *dataset.Snapshot
	if h.source != nil {
		snap = h.source.Current()
	}
	if snap == nil || !snap.Ready() {
		body := gin.H{"status": "not_ready"}
		if snap != nil {
			body["datasets"] = snap.Status()
		}
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "ready",
		"version": snap.Version,
	})
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
