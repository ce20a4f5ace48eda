package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quizdeck/internal/domain"
)

// CourseLoader fetches the catalog from its source of truth.
type CourseLoader interface {
	LoadCourses(ctx context.Context) ([]domain.Course, error)
}

// CatalogRepository caches the catalog in Redis and falls back to a loader on
// cache miss. Each course is stored as a field of one hash, with the display
// order kept in a list:
//
//	HSET catalog:courses {courseID} {course JSON}
//	RPUSH catalog:courses:order {courseID}...
type CatalogRepository struct {
	client *redis.Client
	loader CourseLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewCatalogRepository(client *redis.Client, loader CourseLoader, ttl time.Duration) *CatalogRepository {
	return &CatalogRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *CatalogRepository) LoadCourses(ctx context.Context) ([]domain.Course, error) {
	if courses, ok := r.fromCache(ctx); ok {
		return courses, nil
	}

	result, err, _ := r.sf.Do("courses", func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if courses, ok := r.fromCache(ctx); ok {
			return courses, nil
		}

		courses, err := r.loader.LoadCourses(ctx)
		if err != nil {
			return nil, err
		}
		r.store(ctx, courses)
		return courses, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Course), nil
}

// Invalidate removes the cached catalog.
func (r *CatalogRepository) Invalidate(ctx context.Context) error {
	return r.client.Del(ctx, coursesKey, orderKey).Err()
}

const (
	coursesKey = "catalog:courses"
	orderKey   = "catalog:courses:order"
)

func (r *CatalogRepository) fromCache(ctx context.Context) ([]domain.Course, bool) {
	order, err := r.client.LRange(ctx, orderKey, 0, -1).Result()
	if err != nil || len(order) == 0 {
		return nil, false
	}
	raw, err := r.client.HGetAll(ctx, coursesKey).Result()
	if err != nil {
		return nil, false
	}

	courses := make([]domain.Course, 0, len(order))
	for _, id := range order {
		data, ok := raw[id]
		if !ok {
			return nil, false
		}
		var course domain.Course
		if err := json.Unmarshal([]byte(data), &course); err != nil {
			return nil, false
		}
		courses = append(courses, course)
	}
	return courses, true
}

// store is best effort; a failed write only costs another load later.
func (r *CatalogRepository) store(ctx context.Context, courses []domain.Course) {
	if r.ttl <= 0 || len(courses) == 0 {
		return
	}
	ttl := r.ttlWithJitter()

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, coursesKey, orderKey)
	for _, course := range courses {
		data, err := json.Marshal(course)
		if err != nil {
			return
		}
		pipe.HSet(ctx, coursesKey, course.ID, data)
		pipe.RPush(ctx, orderKey, course.ID)
	}
	pipe.Expire(ctx, coursesKey, ttl)
	pipe.Expire(ctx, orderKey, ttl)
	_, _ = pipe.Exec(ctx)
}

func (r *CatalogRepository) ttlWithJitter() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
