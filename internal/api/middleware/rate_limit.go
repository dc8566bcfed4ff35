package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"meal-planner/internal/pkg/common"
)

// tokenBucket 簡單的令牌桶。主要護住會打到付費模型的生成端點，
// 其餘寫入端點都很便宜，共用同一個桶就夠了
type tokenBucket struct {
	mu       sync.Mutex
	tokens   int
	capacity int
	refill   float64 // 每秒補充的令牌數
	last     time.Time
}

func newTokenBucket(requests int, window time.Duration) *tokenBucket {
	return &tokenBucket{
		tokens:   requests,
		capacity: requests,
		refill:   float64(requests) / window.Seconds(),
		last:     time.Now(),
	}
}

func (b *tokenBucket) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(b.last).Seconds()
	b.last = now

	if refilled := int(elapsed * b.refill); refilled > 0 {
		b.tokens = min(b.capacity, b.tokens+refilled)
	}

	if b.tokens > 0 {
		b.tokens--
		return true
	}
	return false
}

// RateLimit 限流中間件，超量回 429 並附 Retry-After
func RateLimit(requests int, window time.Duration) gin.HandlerFunc {
	bucket := newTokenBucket(requests, window)

	return func(c *gin.Context) {
		if !bucket.allow() {
			common.LogInfo("Rate limit exceeded",
				zap.String("ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
			)

			c.Header("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests",
				"retry_after": window.Seconds(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
