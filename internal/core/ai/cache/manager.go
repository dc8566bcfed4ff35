package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"meal-planner/internal/infrastructure/config"
	"meal-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// Cache AI 回應快取的介面，記憶體版和 Redis 版都實作這組
type Cache interface {
	Get(ctx context.Context, prompt string) (string, error)
	Set(ctx context.Context, prompt, value string) error
	Close() error
}

// Manager 記憶體快取，以 prompt 雜湊為鍵
type Manager struct {
	config *config.Config
	mu     sync.Mutex
	store  map[string]cacheEntry
	stats  cacheStats
	stop   chan struct{}
}

type cacheEntry struct {
	value       string
	expiresAt   time.Time
	createdAt   time.Time
	lastAccess  time.Time
	accessCount int
}

type cacheStats struct {
	hits      int64
	misses    int64
	evictions int64
	errors    int64
}

// NewManager 創建記憶體快取管理員
func NewManager(cfg *config.Config) *Manager {
	m := &Manager{
		config: cfg,
		store:  make(map[string]cacheEntry),
		stop:   make(chan struct{}),
	}

	// 背景清理過期條目
	go m.startCleanup()

	common.LogInfo("快取管理員已初始化",
		zap.Int("最大容量", cfg.Cache.MaxSize),
		zap.Duration("存活時間", cfg.Cache.TTL),
		zap.Duration("清理間隔", cfg.Cache.CleanupInterval),
	)

	return m
}

// Get 查快取，未命中回 ErrCacheMiss
func (m *Manager) Get(ctx context.Context, prompt string) (string, error) {
	key := cacheKey(prompt)

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.store[key]
	if !exists {
		m.stats.misses++
		common.LogCacheMiss("memory", key)
		return "", common.ErrCacheMiss
	}

	if time.Now().After(entry.expiresAt) {
		delete(m.store, key)
		m.stats.evictions++
		m.stats.misses++
		common.LogInfo("快取已過期", zap.String("鍵", key))
		return "", common.ErrCacheMiss
	}

	entry.lastAccess = time.Now()
	entry.accessCount++
	m.store[key] = entry
	m.stats.hits++
	common.LogCacheHit("memory", key)
	return entry.value, nil
}

// Set 寫入快取，滿了先清過期再做 LRU 淘汰
func (m *Manager) Set(ctx context.Context, prompt, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.store) >= m.config.Cache.MaxSize {
		evicted := m.cleanupLocked()
		common.LogInfo("快取清理執行", zap.Int("清理數量", evicted))

		if len(m.store) >= m.config.Cache.MaxSize {
			m.evictLRULocked()
		}
		if len(m.store) >= m.config.Cache.MaxSize {
			m.stats.errors++
			common.LogWarn("快取已滿", zap.Int("目前容量", len(m.store)))
			return common.ErrCacheFull
		}
	}

	now := time.Now()
	m.store[cacheKey(prompt)] = cacheEntry{
		value:      value,
		expiresAt:  now.Add(m.config.Cache.TTL),
		createdAt:  now,
		lastAccess: now,
	}
	return nil
}

// cacheKey prompt 的 SHA-256。不要先壓空白，排版不同就是不同請求
func cacheKey(prompt string) string {
	hash := sha256.Sum256([]byte(prompt))
	return fmt.Sprintf("prompt:%s", hex.EncodeToString(hash[:]))
}

func (m *Manager) startCleanup() {
	ticker := time.NewTicker(m.config.Cache.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			m.cleanupLocked()
			m.mu.Unlock()
		case <-m.stop:
			return
		}
	}
}

func (m *Manager) cleanupLocked() int {
	now := time.Now()
	count := 0

	for key, entry := range m.store {
		if now.After(entry.expiresAt) {
			delete(m.store, key)
			count++
			m.stats.evictions++
		}
	}
	return count
}

// evictLRULocked 淘汰訪問次數最少、最久沒碰的條目
func (m *Manager) evictLRULocked() {
	var oldestKey string
	var oldestAccess time.Time
	var lowestAccessCount int

	for key, entry := range m.store {
		if oldestKey == "" ||
			entry.accessCount < lowestAccessCount ||
			(entry.accessCount == lowestAccessCount && entry.lastAccess.Before(oldestAccess)) {
			oldestKey = key
			oldestAccess = entry.lastAccess
			lowestAccessCount = entry.accessCount
		}
	}

	if oldestKey != "" {
		delete(m.store, oldestKey)
		m.stats.evictions++
		common.LogInfo("快取已淘汰(LRU)", zap.String("鍵", oldestKey))
	}
}

// Stats 快取統計
func (m *Manager) Stats() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := m.stats.hits + m.stats.misses
	ratio := 0.0
	if total > 0 {
		ratio = float64(m.stats.hits) / float64(total)
	}
	return map[string]interface{}{
		"size":      len(m.store),
		"max_size":  m.config.Cache.MaxSize,
		"hits":      m.stats.hits,
		"misses":    m.stats.misses,
		"evictions": m.stats.evictions,
		"errors":    m.stats.errors,
		"hit_ratio": ratio,
	}
}

// Close 停掉清理協程並清空快取
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case <-m.stop:
	default:
		close(m.stop)
	}
	m.store = make(map[string]cacheEntry)
	common.LogInfo("快取管理員已關閉",
		zap.Int64("命中次數", m.stats.hits),
		zap.Int64("未命中次數", m.stats.misses),
		zap.Int64("淘汰次數", m.stats.evictions),
	)
	return nil
}
