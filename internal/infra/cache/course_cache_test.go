package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"academy/internal/domain/model"
	repo "academy/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 呼ばれた回数を数える講座リポジトリ
type countingCourses struct {
	courses map[int64]model.Course
	calls   int
}

func (r *countingCourses) FindByID(ctx context.Context, id int64) (model.Course, error) {
	r.calls++
	c, ok := r.courses[id]
	if !ok {
		return model.Course{}, repo.ErrNotFound
	}
	return c, nil
}

func (r *countingCourses) FindByIDs(ctx context.Context, ids []int64) ([]model.Course, error) {
	r.calls++
	out := []model.Course{}
	for _, id := range ids {
		if c, ok := r.courses[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func setupTestCache(t *testing.T) (*CourseCache, *countingCourses, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	next := &countingCourses{courses: map[int64]model.Course{
		1: {ID: 1, Title: "Go", NormalPrice: 5000, IsPublished: true},
		2: {ID: 2, Title: "SQL", NormalPrice: 3000, IsPublished: true},
	}}
	return NewCourseCache(next, client, time.Minute, nil), next, mr
}

func TestCourseCache_FindByID_ReadThrough(t *testing.T) {
	c, next, mr := setupTestCache(t)
	ctx := context.Background()

	got, err := c.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Go", got.Title)
	assert.True(t, mr.Exists(cacheKey(1)))

	got, err = c.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), got.NormalPrice)
	assert.Equal(t, 1, next.calls)
}

func TestCourseCache_FindByID_NotFoundIsNotCached(t *testing.T) {
	c, _, mr := setupTestCache(t)

	_, err := c.FindByID(context.Background(), 99)
	assert.ErrorIs(t, err, repo.ErrNotFound)
	assert.False(t, mr.Exists(cacheKey(99)))
}

func TestCourseCache_FindByIDs_MixesHitsAndMisses(t *testing.T) {
	c, next, mr := setupTestCache(t)
	ctx := context.Background()

	cached, _ := json.Marshal(model.Course{ID: 2, Title: "SQL (cached)", NormalPrice: 3000})
	require.NoError(t, mr.Set(cacheKey(2), string(cached)))

	got, err := c.FindByIDs(ctx, []int64{2, 1, 404})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, "SQL (cached)", got[1].Title)
	assert.Equal(t, 1, next.calls)
	assert.True(t, mr.Exists(cacheKey(1)))
}

func TestCourseCache_FallsBackWhenRedisDown(t *testing.T) {
	c, next, mr := setupTestCache(t)
	mr.Close()

	got, err := c.FindByID(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "SQL", got.Title)

	list, err := c.FindByIDs(context.Background(), []int64{1, 2})
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, 2, next.calls)
}
