package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"eat2fit/fitness/internal/domain"
	"eat2fit/fitness/internal/repository"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanKeyPrefix namespaces catalog entries in redis.
const PlanKeyPrefix = "fitness:plan:"

// PlanCache is a read-through redis cache in front of the plan catalog.
// Redis failures are logged and fall back to the wrapped repository.
type PlanCache struct {
	next   repository.PlanRepository
	client *redis.Client
	ttl    time.Duration
}

var _ repository.PlanRepository = (*PlanCache)(nil)

func NewPlanCache(next repository.PlanRepository, client *redis.Client, ttl time.Duration) *PlanCache {
	return &PlanCache{next: next, client: client, ttl: ttl}
}

func planKey(id primitive.ObjectID) string {
	return PlanKeyPrefix + id.Hex()
}

func detailsKey(id primitive.ObjectID) string {
	return PlanKeyPrefix + id.Hex() + ":details"
}

func (c *PlanCache) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutPlan, error) {
	var plan domain.WorkoutPlan
	if c.get(ctx, planKey(id), &plan) {
		return &plan, nil
	}

	p, err := c.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.set(ctx, planKey(id), p)
	return p, nil
}

func (c *PlanCache) GetDetails(ctx context.Context, planID primitive.ObjectID) ([]domain.PlanDetail, error) {
	var details []domain.PlanDetail
	if c.get(ctx, detailsKey(planID), &details) {
		return details, nil
	}

	details, err := c.next.GetDetails(ctx, planID)
	if err != nil {
		return nil, err
	}
	c.set(ctx, detailsKey(planID), details)
	return details, nil
}

// GetDetail looks the slot up in the cached schedule.
func (c *PlanCache) GetDetail(ctx context.Context, planID primitive.ObjectID, slot domain.Slot) (*domain.PlanDetail, error) {
	details, err := c.GetDetails(ctx, planID)
	if err != nil {
		return nil, err
	}
	for i := range details {
		if details[i].Slot() == slot {
			return &details[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

// Invalidate drops the cached plan and its schedule.
func (c *PlanCache) Invalidate(ctx context.Context, planID primitive.ObjectID) error {
	return c.client.Del(ctx, planKey(planID), detailsKey(planID)).Err()
}

func (c *PlanCache) get(ctx context.Context, key string, dst any) bool {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warnf("plan cache get %s: %s", key, err)
		}
		return false
	}
	if err := json.Unmarshal([]byte(val), dst); err != nil {
		log.Warnf("plan cache decode %s: %s", key, err)
		return false
	}
	return true
}

func (c *PlanCache) set(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Warnf("plan cache encode %s: %s", key, err)
		return
	}
	if err := c.client.Set(ctx, key, string(data), c.ttl).Err(); err != nil {
		log.Warnf("plan cache set %s: %s", key, err)
	}
}
