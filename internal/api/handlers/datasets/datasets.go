// Package datasets 參考資料集狀態與重新載入
package datasets

import (
	"context"
	"net/http"

	"greenbite/internal/infrastructure/dataset"
	"greenbite/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Store 資料快照存放區
type Store interface {
	Current() *dataset.Snapshot
	Reload(ctx context.Context) (*dataset.Snapshot, error)
}

// ReloadRecorder 記錄重新載入失敗；成功的切換由快照回呼記錄
type ReloadRecorder interface {
	RecordReload(ok bool, recipes, emissionsRows int)
}

// Handler 資料集處理程序
type Handler struct {
	store    Store
	recorder ReloadRecorder
}

// NewHandler 創建資料集處理程序，recorder 可為 nil
func NewHandler(store Store, recorder ReloadRecorder) *Handler {
	return &Handler{store: store, recorder: recorder}
}

// HandleStatus 目前快照的狀態
func (h *Handler) HandleStatus(c *gin.Context) {
	snap := h.store.Current()
	if snap == nil {
		common.RespondError(c, common.ErrDatasetUnavailable)
		return
	}
	c.JSON(http.StatusOK, snap.Status())
}

// HandleReload 重新讀取資料檔；失敗時沿用舊快照並回應 503。
// 載入不受請求期限影響，以免大型語料在中途被取消。
func (h *Handler) HandleReload(c *gin.Context) {
	snap, err := h.store.Reload(context.WithoutCancel(c.Request.Context()))
	if err != nil {
		common.LogWarn("Dataset reload request failed",
			zap.String("request_id", requestid.Get(c)),
			zap.Error(err),
		)
		if h.recorder != nil {
			h.recorder.RecordReload(false, 0, 0)
		}
		common.RespondError(c, common.ErrDatasetUnavailable.Wrap(err))
		return
	}

	common.LogInfo("Dataset reload requested",
		zap.String("request_id", requestid.Get(c)),
		zap.String("version", snap.Version),
	)
	c.JSON(http.StatusOK, snap.Status())
}
