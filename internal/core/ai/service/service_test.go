package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"meal-planner/internal/infrastructure/config"
	"meal-planner/internal/pkg/common"
)

func TestMain(m *testing.M) {
	common.Logger = zap.NewNop()
	os.Exit(m.Run())
}

// stubCache 固定回應的快取
type stubCache struct {
	value string
	sets  map[string]string
}

func (c *stubCache) Get(ctx context.Context, prompt string) (string, error) {
	if c.value == "" {
		return "", common.ErrCacheMiss
	}
	return c.value, nil
}

func (c *stubCache) Set(ctx context.Context, prompt, value string) error {
	if c.sets == nil {
		c.sets = make(map[string]string)
	}
	c.sets[prompt] = value
	return nil
}

func (c *stubCache) Close() error { return nil }

func TestCompleteServesFromCache(t *testing.T) {
	cfg := &config.Config{}
	cfg.Cache.Enabled = true

	// 快取命中時不會打上游，所以不需要任何網路
	s := NewService(cfg, &stubCache{value: `[{"title": "Cached Dish"}]`})

	content, err := s.Complete(context.Background(), "the exact prompt")
	require.NoError(t, err)
	assert.Equal(t, `[{"title": "Cached Dish"}]`, content)
}

func TestCacheEnabled(t *testing.T) {
	cfg := &config.Config{}

	s := NewService(cfg, &stubCache{})
	assert.False(t, s.cacheEnabled())

	cfg.Cache.Enabled = true
	assert.True(t, s.cacheEnabled())

	s = NewService(cfg, nil)
	assert.False(t, s.cacheEnabled())
}

func TestRequestRateGuard(t *testing.T) {
	cfg := &config.Config{}
	cfg.Generation.MinInterval = 50 * time.Millisecond
	s := NewService(cfg, nil)

	require.NoError(t, s.checkRequestRate())

	err := s.checkRequestRate()
	require.Error(t, err)
	assert.Equal(t, "request rate limit exceeded", err.Error())

	time.Sleep(60 * time.Millisecond)
	assert.NoError(t, s.checkRequestRate())
}

func TestRequestRateGuardDisabled(t *testing.T) {
	s := NewService(&config.Config{}, nil)

	// 沒設定最小間隔就完全不擋
	for i := 0; i < 5; i++ {
		assert.NoError(t, s.checkRequestRate())
	}
}
