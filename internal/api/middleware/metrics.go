package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// RequestObserver 接收每個請求的結果
type RequestObserver interface {
	ObserveRequest(method, route string, status int, d time.Duration)
}

// Metrics 以路由樣板（而非實際路徑）記錄請求指標
func Metrics(o RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		o.ObserveRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
