package store

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assurbot/internal/config"
	"assurbot/internal/models"
)

func testRedisConfig() config.RedisConfig {
	return config.RedisConfig{Host: "localhost", Port: 6379, DB: 1}
}

func setupRedisStore(t *testing.T) *RedisLeadStore {
	t.Helper()

	cfg := testRedisConfig()
	probe := redis.NewClient(&redis.Options{Addr: cfg.Addr(), DB: cfg.DB})
	ctx := context.Background()
	if err := probe.Ping(ctx).Err(); err != nil {
		probe.Close()
		t.Skipf("redis not available: %v", err)
	}
	require.NoError(t, probe.FlushDB(ctx).Err())
	probe.Close()

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	s, err := NewRedisLeadStore(cfg, logger, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleLead(source string) models.Lead {
	return models.Lead{
		ID:     uuid.NewString(),
		Source: source,
		Fields: map[string]string{
			"firstname": "Jean",
			"email":     "jean@example.com",
			"phone":     "0600000000",
			"consent":   "true",
		},
		CreatedAt: time.Now().Truncate(time.Second),
	}
}

func TestRedisLeadStoreRoundTrip(t *testing.T) {
	s := setupRedisStore(t)
	ctx := context.Background()

	first := sampleLead("chat")
	second := sampleLead("qcm")
	require.NoError(t, s.SubmitLead(first))
	require.NoError(t, s.SubmitLead(second))

	leads, err := s.Leads(ctx)
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, first.ID, leads[0].ID)
	assert.Equal(t, first.Fields, leads[0].Fields)
	assert.Equal(t, second.ID, leads[1].ID)

	chatCount, err := s.Count(ctx, "chat")
	require.NoError(t, err)
	assert.Equal(t, int64(1), chatCount)

	qcmCount, err := s.Count(ctx, "qcm")
	require.NoError(t, err)
	assert.Equal(t, int64(1), qcmCount)
}

func TestRedisLeadStoreCountMissingSource(t *testing.T) {
	s := setupRedisStore(t)

	n, err := s.Count(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestMemoryLeadStore(t *testing.T) {
	s := NewMemoryLeadStore()

	first := sampleLead("chat")
	second := sampleLead("chat")
	require.NoError(t, s.SubmitLead(first))
	require.NoError(t, s.SubmitLead(second))

	leads := s.Leads()
	require.Len(t, leads, 2)
	assert.Equal(t, first.ID, leads[0].ID)
	assert.Equal(t, second.ID, leads[1].ID)
}
