package cache

import (
	"context"
	"errors"
	"fmt"
	"safe-route-service/internal/domain"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const assessmentKeyPrefix = "saferoute:assessment:"

type cachedAssessment struct {
	Score        int      `json:"score"`
	RiskFactors  []string `json:"risk_factors"`
	FriendlyTips []string `json:"friendly_tips,omitempty"`
	Summary      string   `json:"summary,omitempty"`
	IncidentIDs  []string `json:"incident_ids,omitempty"`
}

// RedisAssessmentCache stores safety assessments in Redis with a fixed TTL.
type RedisAssessmentCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisAssessmentCache(client redis.Cmdable, ttl time.Duration) *RedisAssessmentCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &RedisAssessmentCache{client: client, ttl: ttl}
}

func (c *RedisAssessmentCache) Get(ctx context.Context, key string) (domain.SafetyAssessment, bool, error) {
	raw, err := c.client.Get(ctx, assessmentKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.SafetyAssessment{}, false, nil
	}
	if err != nil {
		return domain.SafetyAssessment{}, false, fmt.Errorf("assessment cache get: %w", err)
	}

	var ca cachedAssessment
	if err := json.Unmarshal(raw, &ca); err != nil {
		// Treat undecodable entries as misses; the next Put overwrites them.
		return domain.SafetyAssessment{}, false, nil
	}

	return domain.SafetyAssessment{
		Score:        ca.Score,
		RiskFactors:  ca.RiskFactors,
		FriendlyTips: ca.FriendlyTips,
		Summary:      ca.Summary,
		IncidentIDs:  ca.IncidentIDs,
	}, true, nil
}

func (c *RedisAssessmentCache) Put(ctx context.Context, key string, a domain.SafetyAssessment) error {
	raw, err := json.Marshal(cachedAssessment{
		Score:        a.Score,
		RiskFactors:  a.RiskFactors,
		FriendlyTips: a.FriendlyTips,
		Summary:      a.Summary,
		IncidentIDs:  a.IncidentIDs,
	})
	if err != nil {
		return fmt.Errorf("assessment cache encode: %w", err)
	}

	if err := c.client.Set(ctx, assessmentKeyPrefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("assessment cache set: %w", err)
	}
	return nil
}
