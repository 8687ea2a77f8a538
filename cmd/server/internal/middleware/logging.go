package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/houzhh15/resumedit/pkg/logger"
)

const requestIDKey = "request_id"

// RequestLogger 写入结构化请求日志并注入 request_id
// 客户端传入的 X-Request-ID 会被沿用
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(requestIDKey, reqID)
		c.Writer.Header().Set("X-Request-ID", reqID)

		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= 500 {
			level = slog.LevelWarn
		}
		logger.L().Log(c.Request.Context(), level, "http_request",
			"rid", reqID,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"bytes_in", c.Request.ContentLength,
			"client_ip", c.ClientIP(),
		)
	}
}

// RequestID 返回当前请求的 request_id，未经过 RequestLogger 时为空
func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
