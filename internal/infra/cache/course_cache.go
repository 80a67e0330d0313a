package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"academy/internal/domain/model"
	repo "academy/internal/repository"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CourseCache は講座カタログの読み取りをRedisで包む。
// Redisが落ちていてもDBにフォールバックする
type CourseCache struct {
	next    repo.CourseRepository
	client  *redis.Client
	baseTTL time.Duration
	log     *zap.Logger
}

func NewCourseCache(next repo.CourseRepository, client *redis.Client, baseTTL time.Duration, log *zap.Logger) *CourseCache {
	if baseTTL <= 0 {
		baseTTL = time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CourseCache{next: next, client: client, baseTTL: baseTTL, log: log}
}

func (c *CourseCache) FindByID(ctx context.Context, id int64) (model.Course, error) {
	data, err := c.client.Get(ctx, cacheKey(id)).Bytes()
	switch {
	case err == nil:
		var course model.Course
		if err := json.Unmarshal(data, &course); err == nil {
			return course, nil
		}
		c.log.Warn("broken course cache entry", zap.Int64("course_id", id))
	case !errors.Is(err, redis.Nil):
		c.log.Warn("redis get failed", zap.Error(err))
	}

	course, err := c.next.FindByID(ctx, id)
	if err != nil {
		return model.Course{}, err
	}
	c.set(ctx, course)
	return course, nil
}

func (c *CourseCache) FindByIDs(ctx context.Context, ids []int64) ([]model.Course, error) {
	if len(ids) == 0 {
		return []model.Course{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = cacheKey(id)
	}

	found := make([]model.Course, 0, len(ids))
	missing := ids
	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		c.log.Warn("redis mget failed", zap.Error(err))
	} else {
		missing = make([]int64, 0)
		for i, v := range vals {
			s, ok := v.(string)
			if !ok {
				missing = append(missing, ids[i])
				continue
			}
			var course model.Course
			if err := json.Unmarshal([]byte(s), &course); err != nil {
				missing = append(missing, ids[i])
				continue
			}
			found = append(found, course)
		}
	}

	if len(missing) > 0 {
		fetched, err := c.next.FindByIDs(ctx, missing)
		if err != nil {
			return nil, err
		}
		for _, course := range fetched {
			c.set(ctx, course)
		}
		found = append(found, fetched...)
	}

	sort.Slice(found, func(i, j int) bool { return found[i].ID < found[j].ID })
	return found, nil
}

func (c *CourseCache) set(ctx context.Context, course model.Course) {
	data, err := json.Marshal(course)
	if err != nil {
		return
	}
	jitter := time.Duration(rand.Intn(10)) * time.Second
	if err := c.client.Set(ctx, cacheKey(course.ID), data, c.baseTTL+jitter).Err(); err != nil {
		c.log.Warn("redis set failed", zap.Error(err))
	}
}

func cacheKey(id int64) string {
	return fmt.Sprintf("course:%d", id)
}
