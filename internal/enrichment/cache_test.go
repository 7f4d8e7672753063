package enrichment

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/grant-matcher/internal/ai"
	"github.com/spigell/grant-matcher/internal/applicant"
)

type countingAnalyzer struct {
	calls    int
	insights *ai.Insights
	err      error
}

func (c *countingAnalyzer) Analyze(context.Context, applicant.Profile) (*ai.Insights, error) {
	c.calls++
	return c.insights, c.err
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func TestCacheStoresAndReusesInsights(t *testing.T) {
	mr, client := newRedis(t)
	next := &countingAnalyzer{insights: &ai.Insights{
		ConciseSummary: "Pensioner needs dentures.",
		ExtraKeywords:  []string{"denture"},
	}}

	cache := NewCache(next, client, time.Hour, zap.NewNop())
	ctx := context.Background()

	first, err := cache.Analyze(ctx, profile())
	require.NoError(t, err)
	second, err := cache.Analyze(ctx, profile())
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, first, second)

	key, err := Key(profile())
	require.NoError(t, err)
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Hour, mr.TTL(key))
}

func TestCacheKeyDependsOnProfile(t *testing.T) {
	a, err := Key(profile())
	require.NoError(t, err)

	other := profile()
	other.Description = "I need glasses."
	b, err := Key(other)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "grant-matcher:insights:")
}

func TestCacheDoesNotStoreErrors(t *testing.T) {
	mr, client := newRedis(t)
	next := &countingAnalyzer{err: errors.New("boom")}

	_, err := NewCache(next, client, 0, nil).Analyze(context.Background(), profile())
	require.Error(t, err)

	key, err := Key(profile())
	require.NoError(t, err)
	assert.False(t, mr.Exists(key))
}

func TestCacheBypassesUnavailableRedis(t *testing.T) {
	mr, client := newRedis(t)
	mr.Close()

	next := &countingAnalyzer{insights: &ai.Insights{ConciseSummary: "ok"}}
	insights, err := NewCache(next, client, time.Minute, zap.NewNop()).Analyze(context.Background(), profile())

	require.NoError(t, err)
	assert.Equal(t, "ok", insights.ConciseSummary)
	assert.Equal(t, 1, next.calls)
}

func TestCacheDropsUnreadableEntries(t *testing.T) {
	mr, client := newRedis(t)
	key, err := Key(profile())
	require.NoError(t, err)
	require.NoError(t, mr.Set(key, "not json"))

	next := &countingAnalyzer{insights: &ai.Insights{ConciseSummary: "fresh"}}
	insights, err := NewCache(next, client, time.Minute, zap.NewNop()).Analyze(context.Background(), profile())

	require.NoError(t, err)
	assert.Equal(t, "fresh", insights.ConciseSummary)
	assert.Equal(t, 1, next.calls)
}

func TestConnect(t *testing.T) {
	mr, _ := newRedis(t)

	client, err := Connect(context.Background(), RedisOptions{Address: mr.Addr()})
	require.NoError(t, err)
	require.NoError(t, client.Close())

	mr.Close()
	_, err = Connect(context.Background(), RedisOptions{Address: mr.Addr()})
	assert.Error(t, err)
}

func TestCacheHitSkipsAnalyzer(t *testing.T) {
	client, mock := redismock.NewClientMock()

	key, err := Key(profile())
	require.NoError(t, err)

	mock.ExpectGet(key).SetVal(`{"concise_summary":"cached","extra_keywords":["denture"]}`)

	next := &countingAnalyzer{insights: &ai.Insights{ConciseSummary: "fresh"}}
	insights, err := NewCache(next, client, time.Minute, zap.NewNop()).Analyze(context.Background(), profile())

	require.NoError(t, err)
	assert.Equal(t, "cached", insights.ConciseSummary)
	assert.Equal(t, []string{"denture"}, insights.ExtraKeywords)
	assert.Zero(t, next.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheMissWritesWithTTL(t *testing.T) {
	client, mock := redismock.NewClientMock()

	key, err := Key(profile())
	require.NoError(t, err)

	fresh := &ai.Insights{ConciseSummary: "fresh"}
	body, err := json.Marshal(fresh)
	require.NoError(t, err)

	mock.ExpectGet(key).RedisNil()
	mock.ExpectSet(key, body, 30*time.Minute).SetVal("OK")

	next := &countingAnalyzer{insights: fresh}
	_, err = NewCache(next, client, 30*time.Minute, zap.NewNop()).Analyze(context.Background(), profile())

	require.NoError(t, err)
	assert.Equal(t, 1, next.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}
