// Package predictor 呼叫外部迴歸模型服務取得永續分數。
package predictor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"greenbite/internal/infrastructure/config"
	"greenbite/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ErrModelUnavailable 模型服務回報模型未載入或回傳錯誤
var ErrModelUnavailable = errors.New("prediction model unavailable")

// Features 模型的八個輸入特徵 (kg CO2e / kg)
type Features struct {
	LandUseChange     float64 `json:"land_use_change"`
	Feed              float64 `json:"feed"`
	Farm              float64 `json:"farm"`
	Processing        float64 `json:"processing"`
	Transport         float64 `json:"transport"`
	Packaging         float64 `json:"packaging"`
	Retail            float64 `json:"retail"`
	TotalLandToRetail float64 `json:"total_land_to_retail"`
}

// Sum 八個特徵的總和
func (f Features) Sum() float64 {
	return f.LandUseChange + f.Feed + f.Farm + f.Processing +
		f.Transport + f.Packaging + f.Retail + f.TotalLandToRetail
}

// Client 模型服務客戶端
type Client struct {
	client *resty.Client
}

// NewClient 創建模型服務客戶端
func NewClient(cfg config.PredictorConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := resty.New().
		SetBaseURL(cfg.URL).
		SetTimeout(timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(100*time.Millisecond).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "greenbite")

	return &Client{client: client}
}

// Predict 取得模型分數
func (c *Client) Predict(ctx context.Context, f Features) (float64, error) {
	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(f).
		Post("/predict")
	if err != nil {
		return 0, fmt.Errorf("failed to send request to predictor: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return 0, fmt.Errorf("predictor returned status %d: %s", resp.StatusCode(), resp.String())
	}

	// 解析回應
	var result struct {
		Score *float64 `json:"sustainability_score"`
		Error string   `json:"error"`
	}
	if err := common.ParseJSON(resp.String(), &result); err != nil {
		return 0, fmt.Errorf("failed to parse predictor response: %w", err)
	}
	if result.Error != "" {
		return 0, fmt.Errorf("%w: %s", ErrModelUnavailable, result.Error)
	}
	if result.Score == nil {
		return 0, fmt.Errorf("%w: empty response", ErrModelUnavailable)
	}

	common.LogDebug("Predictor responded",
		zap.Float64("score", *result.Score),
		zap.Duration("duration", time.Since(start)),
	)
	return *result.Score, nil
}
