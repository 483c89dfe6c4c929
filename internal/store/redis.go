// Package store persists captured leads.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"assurbot/internal/config"
	"assurbot/internal/metrics"
	"assurbot/internal/models"
)

// Redis keys.
const (
	leadIndexKey  = "leads:index"   // list of lead ids, insertion order
	leadHashKey   = "leads:records" // id -> json record
	leadCountKey  = "leads:count:"  // + source, counter per source
	submitTimeout = 5 * time.Second
)

// RedisLeadStore stores leads in redis: a json record per lead, an
// insertion-ordered index and a per-source counter.
type RedisLeadStore struct {
	rdb     *redis.Client
	logger  *logrus.Logger
	metrics *metrics.Metrics
}

// NewRedisLeadStore connects to redis and verifies the connection.
// The metrics argument may be nil.
func NewRedisLeadStore(cfg config.RedisConfig, logger *logrus.Logger, m *metrics.Metrics) (*RedisLeadStore, error) {
	if logger == nil {
		logger = logrus.New()
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisLeadStore{rdb: rdb, logger: logger, metrics: m}, nil
}

// SubmitLead persists one captured lead.
func (s *RedisLeadStore) SubmitLead(lead models.Lead) error {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.StoreOpDuration.WithLabelValues("submit_lead").Observe(time.Since(start).Seconds())
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()

	body, err := json.Marshal(lead)
	if err != nil {
		return fmt.Errorf("marshal lead: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.HSet(ctx, leadHashKey, lead.ID, body)
	pipe.RPush(ctx, leadIndexKey, lead.ID)
	pipe.Incr(ctx, leadCountKey+lead.Source)
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.WithError(err).WithField("lead_id", lead.ID).Error("Failed to persist lead")
		return fmt.Errorf("persist lead: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"lead_id": lead.ID,
		"source":  lead.Source,
	}).Info("Lead stored")
	return nil
}

// Leads returns all stored leads in insertion order.
func (s *RedisLeadStore) Leads(ctx context.Context) ([]models.Lead, error) {
	ids, err := s.rdb.LRange(ctx, leadIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read lead index: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	records, err := s.rdb.HMGet(ctx, leadHashKey, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("read lead records: %w", err)
	}

	leads := make([]models.Lead, 0, len(records))
	for _, raw := range records {
		body, ok := raw.(string)
		if !ok {
			continue
		}
		var lead models.Lead
		if err := json.Unmarshal([]byte(body), &lead); err != nil {
			s.logger.WithError(err).Warn("Skipping unreadable lead record")
			continue
		}
		leads = append(leads, lead)
	}
	return leads, nil
}

// Count returns the number of leads captured from the given source.
func (s *RedisLeadStore) Count(ctx context.Context, source string) (int64, error) {
	n, err := s.rdb.Get(ctx, leadCountKey+source).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read lead count: %w", err)
	}
	return n, nil
}

// Close releases the redis connection.
func (s *RedisLeadStore) Close() error {
	return s.rdb.Close()
}
