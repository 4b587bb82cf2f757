// Package footprint 料理碳足跡 API
package footprint

import (
	"context"
	"net/http"
	"strings"

	"greenbite/internal/core/emissions"
	core "greenbite/internal/core/footprint"
	"greenbite/internal/core/predictor"
	"greenbite/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Service 處理程序所需的服務操作
type Service interface {
	Search(ctx context.Context, query string, threshold int) (*core.SearchResult, error)
	Emissions(ctx context.Context, ingredients []string) (*core.EmissionsReport, error)
	Predict(ctx context.Context, f predictor.Features) (*core.Prediction, error)
	Analyze(ctx context.Context, dish string) (*core.DishAnalysis, error)
	Compare(ctx context.Context, dish1, dish2 string) (*core.Comparison, error)
}

// SearchRequest 料理搜尋請求
type SearchRequest struct {
	Query     string `json:"query"`
	Threshold int    `json:"threshold,omitempty"`
}

// EmissionsRequest 排放計算請求；元素必須為字串
type EmissionsRequest struct {
	Ingredients []interface{} `json:"ingredients"`
}

// PredictRequest 直接給定八個特徵，或給定 /emissions 回傳的 breakdown
type PredictRequest struct {
	LandUseChange     *float64           `json:"land_use_change"`
	Feed              *float64           `json:"feed"`
	Farm              *float64           `json:"farm"`
	Processing        *float64           `json:"processing"`
	Transport         *float64           `json:"transport"`
	Packaging         *float64           `json:"packaging"`
	Retail            *float64           `json:"retail"`
	TotalLandToRetail *float64           `json:"total_land_to_retail"`
	Breakdown         map[string]float64 `json:"breakdown"`
}

// AnalyzeRequest 單一料理分析請求
type AnalyzeRequest struct {
	Dish string `json:"dish"`
}

// CompareRequest 料理比較請求
type CompareRequest struct {
	Dish1 string `json:"dish1"`
	Dish2 string `json:"dish2"`
}

// Handler 碳足跡處理程序
type Handler struct {
	svc Service
}

// NewHandler 創建處理程序
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// bind 解析 JSON 請求體，格式錯誤時回應 400
func bind(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		common.LogWarn("請求格式無效",
			zap.Error(err),
			zap.String("request_id", requestid.Get(c)),
			zap.String("path", c.Request.URL.Path),
		)
		common.RespondError(c, common.NewValidationError("invalid request format"))
		return false
	}
	return true
}

// HandleSearch 依料理名稱搜尋食譜與食材
func (h *Handler) HandleSearch(c *gin.Context) {
	var req SearchRequest
	if !bind(c, &req) {
		return
	}

	res, err := h.svc.Search(c.Request.Context(), req.Query, req.Threshold)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.LogInfo("Search completed",
		zap.String("request_id", requestid.Get(c)),
		zap.String("query", req.Query),
		zap.Int("recipes", len(res.Recipes)),
	)
	c.JSON(http.StatusOK, res)
}

// HandleEmissions 計算食材清單的排放
func (h *Handler) HandleEmissions(c *gin.Context) {
	var req EmissionsRequest
	if !bind(c, &req) {
		return
	}
	if req.Ingredients == nil {
		common.RespondError(c, common.NewValidationError("ingredients must be a list"))
		return
	}

	ingredients := make([]string, 0, len(req.Ingredients))
	for _, v := range req.Ingredients {
		s, ok := v.(string)
		if !ok {
			common.RespondError(c, common.NewValidationError("ingredients must be strings"))
			return
		}
		ingredients = append(ingredients, s)
	}

	report, err := h.svc.Emissions(c.Request.Context(), ingredients)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Features 取得模型特徵；兩種格式都不完整時回傳 false
func (r PredictRequest) Features() (predictor.Features, bool) {
	direct := []*float64{
		r.LandUseChange, r.Feed, r.Farm, r.Processing,
		r.Transport, r.Packaging, r.Retail, r.TotalLandToRetail,
	}
	complete := true
	for _, v := range direct {
		if v == nil {
			complete = false
			break
		}
	}
	if complete {
		return predictor.Features{
			LandUseChange:     *r.LandUseChange,
			Feed:              *r.Feed,
			Farm:              *r.Farm,
			Processing:        *r.Processing,
			Transport:         *r.Transport,
			Packaging:         *r.Packaging,
			Retail:            *r.Retail,
			TotalLandToRetail: *r.TotalLandToRetail,
		}, true
	}

	if r.Breakdown == nil {
		return predictor.Features{}, false
	}
	b := r.Breakdown
	return predictor.Features{
		LandUseChange:     b[emissions.LandUseChange.Column()],
		Feed:              b[emissions.Feed.Column()],
		Farm:              b[emissions.Farm.Column()],
		Processing:        b[emissions.Processing.Column()],
		Transport:         b[emissions.Transport.Column()],
		Packaging:         b[emissions.Packaging.Column()],
		Retail:            b[emissions.Retail.Column()],
		TotalLandToRetail: b[emissions.TotalLandToRetail.Column()],
	}, true
}

// HandlePredict 由排放特徵計算永續分數
func (h *Handler) HandlePredict(c *gin.Context) {
	var req PredictRequest
	if !bind(c, &req) {
		return
	}
	features, ok := req.Features()
	if !ok {
		common.RespondError(c, common.NewValidationError("no valid emissions data found"))
		return
	}

	res, err := h.svc.Predict(c.Request.Context(), features)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// HandleAnalyze 分析單一料理
func (h *Handler) HandleAnalyze(c *gin.Context) {
	var req AnalyzeRequest
	if !bind(c, &req) {
		return
	}

	res, err := h.svc.Analyze(c.Request.Context(), req.Dish)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// HandleCompare 比較兩道料理
func (h *Handler) HandleCompare(c *gin.Context) {
	var req CompareRequest
	if !bind(c, &req) {
		return
	}
	if strings.TrimSpace(req.Dish1) == "" || strings.TrimSpace(req.Dish2) == "" {
		common.RespondError(c, common.NewValidationError("both dish names are required"))
		return
	}

	res, err := h.svc.Compare(c.Request.Context(), req.Dish1, req.Dish2)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.LogInfo("Dishes compared",
		zap.String("request_id", requestid.Get(c)),
		zap.String("dish1", res.Dish1.Title),
		zap.String("dish2", res.Dish2.Title),
		zap.Stringer("winner", res.Winner),
	)
	c.JSON(http.StatusOK, res)
}
