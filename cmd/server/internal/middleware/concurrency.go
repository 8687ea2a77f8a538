package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"

	"github.com/houzhh15/resumedit/pkg/logger"
)

// DefaultAcquireTimeout is how long a request waits for a free diff slot.
const DefaultAcquireTimeout = 30 * time.Second

// ConcurrencyLimiter bounds the number of diff and edit computations running
// at once.
type ConcurrencyLimiter struct {
	sem     *semaphore.Weighted
	timeout time.Duration
}

// NewConcurrencyLimiter creates a limiter with maxConcurrent slots.
func NewConcurrencyLimiter(maxConcurrent int64, timeout time.Duration) *ConcurrencyLimiter {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	if timeout <= 0 {
		timeout = DefaultAcquireTimeout
	}
	return &ConcurrencyLimiter{
		sem:     semaphore.NewWeighted(maxConcurrent),
		timeout: timeout,
	}
}

// Acquire blocks until a slot is available, ctx is done, or the timeout is
// reached.
func (l *ConcurrencyLimiter) Acquire(ctx context.Context) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	if err := l.sem.Acquire(timeoutCtx, 1); err != nil {
		return fmt.Errorf("failed to acquire diff slot: %w", err)
	}
	return nil
}

// Release 释放一个槽位，必须与 Acquire 成对调用
func (l *ConcurrencyLimiter) Release() {
	l.sem.Release(1)
}

// Middleware 超过并发上限且等待超时时返回 503
func (l *ConcurrencyLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := l.Acquire(c.Request.Context()); err != nil {
			logger.L().Warn("concurrency limit reached",
				"rid", RequestID(c),
				"path", c.FullPath(),
				"error", err,
			)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "server busy, retry later"})
			return
		}
		defer l.Release()
		c.Next()
	}
}

// BodyLimit 限制请求体大小，超限时读取请求体返回 *http.MaxBytesError
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
