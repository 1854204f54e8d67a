package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/railmetrics/ohespeed/internal/pkg/constants"
	"github.com/railmetrics/ohespeed/internal/pkg/models"
)

// GetCachedResultSet returns the memoized result set for a content key,
// or nil on a miss.
func (r *AnalysisRepo) GetCachedResultSet(ctx context.Context, contentKey string) (*models.ResultSet, error) {
	key := fmt.Sprintf(constants.KeyAnalysisMemo, contentKey)

	data, err := r.redisClient.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read memoized result set: %w", err)
	}

	var rs models.ResultSet
	if err := json.Unmarshal([]byte(data), &rs); err != nil {
		return nil, fmt.Errorf("failed to decode memoized result set: %w", err)
	}

	return &rs, nil
}

// StoreCachedResultSet memoizes a result set under its content key.
func (r *AnalysisRepo) StoreCachedResultSet(ctx context.Context, contentKey string, rs models.ResultSet) error {
	key := fmt.Sprintf(constants.KeyAnalysisMemo, contentKey)

	data, err := json.Marshal(rs)
	if err != nil {
		return fmt.Errorf("failed to encode result set: %w", err)
	}

	ttl := time.Duration(r.cfg.Analysis.CacheTTLMinutes) * time.Minute
	if err := r.redisClient.Set(ctx, key, data, ttl); err != nil {
		return fmt.Errorf("failed to memoize result set: %w", err)
	}

	return nil
}
