package common

import (
	"context"
	"errors"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RespondError 將錯誤轉換成 JSON 錯誤響應
func RespondError(c *gin.Context, err error) {
	resp := ErrorResponse{
		Code:    ErrCodeInternalError,
		Message: "internal server error",
	}
	status := http.StatusInternalServerError

	if errors.Is(err, context.DeadlineExceeded) {
		err = ErrGatewayTimeout.Wrap(err)
	}

	var custom *CustomError
	switch {
	case IsValidationError(err):
		status = http.StatusBadRequest
		resp.Code = ErrCodeInvalidRequest
		resp.Message = err.Error()
	case errors.As(err, &custom):
		status = custom.Status
		resp.Code = custom.Code
		resp.Message = custom.Message
		if custom.Err != nil && gin.Mode() == gin.DebugMode {
			resp.Details = custom.Err.Error()
		}
	}

	if status >= http.StatusInternalServerError {
		LogError("Request failed",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
			zap.String("code", resp.Code),
		)
	}

	c.AbortWithStatusJSON(status, resp)
}

// Round 四捨五入到指定小數位數
func Round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
