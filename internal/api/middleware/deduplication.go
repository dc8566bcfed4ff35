package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"meal-planner/internal/infrastructure/config"
	"meal-planner/internal/pkg/common"
)

// 重送保護的預設窗格，設定檔可調
const defaultDedupWindow = time.Second

// dedupState 記錄每個請求指紋最後出現的時間
type dedupState struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

// Deduplication 擋下短時間內重送的同一個 POST，
// 像連點兩下生成按鈕或同一筆評分送了兩次
func Deduplication(cfg *config.Config) gin.HandlerFunc {
	window := defaultDedupWindow
	if cfg != nil && cfg.DedupWindow > 0 {
		window = cfg.DedupWindow
	}

	state := &dedupState{seen: make(map[string]time.Time)}
	go state.cleanup(10 * window)

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		fingerprint, err := requestFingerprint(c)
		if err != nil {
			common.LogError("讀取請求體失敗", zap.Error(err))
			c.Next()
			return
		}

		now := time.Now()
		state.mu.Lock()
		last, exists := state.seen[fingerprint]
		if exists && now.Sub(last) <= window {
			state.mu.Unlock()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Request too frequent",
				"code":  "TOO_MANY_REQUESTS",
			})
			c.Abort()
			return
		}
		state.seen[fingerprint] = now
		state.mu.Unlock()

		c.Next()
	}
}

// requestFingerprint 方法 + 路徑 + 請求體雜湊
func requestFingerprint(c *gin.Context) (string, error) {
	fingerprint := c.Request.Method + ":" + c.Request.URL.Path
	if c.Request.Body == nil {
		return fingerprint, nil
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return "", err
	}
	// 讀完要放回去給 handler 用
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

	if len(body) == 0 {
		return fingerprint, nil
	}
	sum := sha256.Sum256(body)
	return fingerprint + ":" + hex.EncodeToString(sum[:]), nil
}

// cleanup 定期掃掉過期的指紋，窗格的十倍以前的都不可能再撞到
func (s *dedupState) cleanup(maxAge time.Duration) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-maxAge)
		s.mu.Lock()
		for k, t := range s.seen {
			if t.Before(cutoff) {
				delete(s.seen, k)
			}
		}
		s.mu.Unlock()
	}
}
