package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"greenbite/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// bufferedWriter 暫存回應，直到確認請求未逾時才寫出
type bufferedWriter struct {
	gin.ResponseWriter
	body   bytes.Buffer
	status int
	wrote  bool
}

func (w *bufferedWriter) WriteHeader(code int) {
	if code > 0 {
		w.status = code
	}
}

func (w *bufferedWriter) WriteHeaderNow() {
	w.wrote = true
}

func (w *bufferedWriter) Write(b []byte) (int, error) {
	w.wrote = true
	return w.body.Write(b)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	w.wrote = true
	return w.body.WriteString(s)
}

func (w *bufferedWriter) Status() int {
	return w.status
}

func (w *bufferedWriter) Size() int {
	if !w.wrote {
		return -1
	}
	return w.body.Len()
}

func (w *bufferedWriter) Written() bool {
	return w.wrote
}

// Flush 暫存期間不提前送出
func (w *bufferedWriter) Flush() {}

// Timeout 為請求設定期限；期限已過時丟棄處理結果並回傳 504
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		orig := c.Writer
		buf := &bufferedWriter{ResponseWriter: orig, status: http.StatusOK}
		c.Writer = buf
		defer func() {
			// panic 交給外層 Recovery 以原始 writer 回應
			if r := recover(); r != nil {
				c.Writer = orig
				panic(r)
			}
		}()

		c.Next()

		c.Writer = orig
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.Duration("timeout", d),
				zap.Int("discarded_status", buf.status),
			)
			orig.Header().Del("Content-Type")
			orig.Header().Del("Content-Length")
			common.RespondError(c, common.ErrGatewayTimeout)
			return
		}

		orig.WriteHeader(buf.status)
		if buf.body.Len() > 0 {
			if _, err := orig.Write(buf.body.Bytes()); err != nil {
				common.LogWarn("Failed to write response", zap.Error(err))
			}
			return
		}
		orig.WriteHeaderNow()
	}
}
