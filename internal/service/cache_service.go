package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/course-registration-api/internal/models"
)

const currentPeriodCacheKey = "registration:period:current"

// CacheService caches registration period resolution in Redis. Cache
// failures degrade to the database; they are logged, never surfaced.
type CacheService struct {
	client  *redis.Client
	ttl     time.Duration
	metrics *MetricsService
	logger  *zap.Logger
}

// NewCacheService constructs CacheService. A nil client disables caching.
func NewCacheService(client *redis.Client, ttl time.Duration, metrics *MetricsService, logger *zap.Logger) *CacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{client: client, ttl: ttl, metrics: metrics, logger: logger}
}

// GetPeriod returns the cached current period, if present.
func (s *CacheService) GetPeriod(ctx context.Context) (*models.RegistrationPeriod, bool) {
	if s == nil || s.client == nil {
		return nil, false
	}
	payload, err := s.client.Get(ctx, currentPeriodCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("period cache read failed", zap.Error(err))
		}
		s.metrics.RecordCacheOperation(false)
		return nil, false
	}
	var period models.RegistrationPeriod
	if err := json.Unmarshal(payload, &period); err != nil {
		s.logger.Warn("period cache payload corrupt", zap.Error(err))
		s.metrics.RecordCacheOperation(false)
		return nil, false
	}
	s.metrics.RecordCacheOperation(true)
	return &period, true
}

// SetPeriod stores the current period with the configured TTL.
func (s *CacheService) SetPeriod(ctx context.Context, period *models.RegistrationPeriod) {
	if s == nil || s.client == nil || period == nil {
		return
	}
	payload, err := json.Marshal(period)
	if err != nil {
		s.logger.Warn("period cache encode failed", zap.Error(err))
		return
	}
	if err := s.client.Set(ctx, currentPeriodCacheKey, payload, s.ttl).Err(); err != nil {
		s.logger.Warn("period cache write failed", zap.Error(err))
	}
}
