package cache

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

func testConfig(maxSize int, ttl time.Duration) *config.Config {
	return &config.Config{
		Cache: config.CacheConfig{
			Enabled:         true,
			Backend:         "memory",
			MaxSize:         maxSize,
			TTL:             ttl,
			CleanupInterval: time.Hour,
		},
	}
}

func TestManagerSetAndGet(t *testing.T) {
	m := NewManager(testConfig(10, time.Minute))
	defer m.Close()
	ctx := context.Background()

	_, err := m.Get(ctx, "some prompt")
	assert.ErrorIs(t, err, common.ErrCacheMiss)

	require.NoError(t, m.Set(ctx, "some prompt", "cached response"))

	value, err := m.Get(ctx, "some prompt")
	require.NoError(t, err)
	assert.Equal(t, "cached response", value)
}

func TestManagerKeyIsExactPromptText(t *testing.T) {
	m := NewManager(testConfig(10, time.Minute))
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "line one\nline two", "v1"))

	// 排版不同就是不同請求，不共用快取
	_, err := m.Get(ctx, "line one line two")
	assert.ErrorIs(t, err, common.ErrCacheMiss)

	value, err := m.Get(ctx, "line one\nline two")
	require.NoError(t, err)
	assert.Equal(t, "v1", value)
}

func TestManagerExpiry(t *testing.T) {
	m := NewManager(testConfig(10, 20*time.Millisecond))
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "short lived", "v1"))
	time.Sleep(40 * time.Millisecond)

	_, err := m.Get(ctx, "short lived")
	assert.ErrorIs(t, err, common.ErrCacheMiss)
}

func TestManagerLRUEviction(t *testing.T) {
	m := NewManager(testConfig(2, time.Minute))
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", "va"))
	require.NoError(t, m.Set(ctx, "b", "vb"))

	// 碰一下 a，讓 b 變成淘汰對象
	_, err := m.Get(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, m.Set(ctx, "c", "vc"))

	_, err = m.Get(ctx, "b")
	assert.ErrorIs(t, err, common.ErrCacheMiss)

	value, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "va", value)
}

func TestManagerStats(t *testing.T) {
	m := NewManager(testConfig(10, time.Minute))
	defer m.Close()
	ctx := context.Background()

	_, _ = m.Get(ctx, "missing")
	require.NoError(t, m.Set(ctx, "hit me", "v"))
	_, _ = m.Get(ctx, "hit me")

	stats := m.Stats()
	assert.Equal(t, 1, stats["size"])
	assert.Equal(t, int64(1), stats["hits"])
	assert.Equal(t, int64(1), stats["misses"])
	assert.Equal(t, 0.5, stats["hit_ratio"])
}

func TestManagerCloseIsIdempotent(t *testing.T) {
	m := NewManager(testConfig(10, time.Minute))
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
}
