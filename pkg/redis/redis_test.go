package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundamenta/pkg/config"
)

func disabledClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(context.Background(), &config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)
	return client
}

func TestNewClient_Disabled(t *testing.T) {
	client := disabledClient(t)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")
	ctx := context.Background()

	var result string
	found, err := cache.Get(ctx, "key", &result)
	require.NoError(t, err)
	assert.False(t, found, "expected cache miss when Redis disabled")

	assert.NoError(t, cache.Set(ctx, "key", "value", time.Minute))
	assert.NoError(t, cache.Delete(ctx, "key"))
}

func TestCacheKeys(t *testing.T) {
	cache := NewCache(disabledClient(t), "fundamenta")

	assert.Equal(t, "history:statusinvest:PETR4", HistoryKey("statusinvest", "petr4"))
	assert.Equal(t, "reported:statusinvest:ITUB4", ReportedKey("statusinvest", "itub4"))
	assert.Equal(t, "fundamenta:cache:history:fixture:VALE3", cache.key(HistoryKey("fixture", "VALE3")))
}
