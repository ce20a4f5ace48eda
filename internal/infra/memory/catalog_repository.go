package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quizdeck/internal/domain"
)

// CourseLoader fetches the course catalog from a backing store (directory tree, Postgres).
type CourseLoader interface {
	LoadCourses(ctx context.Context) ([]domain.Course, error)
}

// CatalogRepository caches the catalog with a TTL to avoid re-walking the
// source on every request. A non-positive TTL disables caching.
type CatalogRepository struct {
	loader CourseLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu      sync.RWMutex
	courses []domain.Course
	expires time.Time
}

func NewCatalogRepository(loader CourseLoader, ttl time.Duration) *CatalogRepository {
	return &CatalogRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *CatalogRepository) LoadCourses(ctx context.Context) ([]domain.Course, error) {
	if courses, ok := r.cached(r.clock()); ok {
		return courses, nil
	}

	result, err, _ := r.sf.Do("courses", func() (interface{}, error) {
		now := r.clock()
		if courses, ok := r.cached(now); ok {
			return courses, nil
		}

		courses, err := r.loader.LoadCourses(ctx)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.courses = courses
		r.expires = now.Add(r.ttlWithJitter())
		r.mu.Unlock()
		return courses, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Course), nil
}

// Invalidate drops the cached catalog.
func (r *CatalogRepository) Invalidate() {
	r.mu.Lock()
	r.courses = nil
	r.expires = time.Time{}
	r.mu.Unlock()
}

func (r *CatalogRepository) cached(now time.Time) ([]domain.Course, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.courses != nil && r.expires.After(now) {
		return r.courses, true
	}
	return nil, false
}

func (r *CatalogRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticCourseLoader is a simple loader backed by an in-memory slice (useful for tests/demos).
type StaticCourseLoader struct {
	courses []domain.Course
}

func NewStaticCourseLoader(courses ...domain.Course) *StaticCourseLoader {
	return &StaticCourseLoader{courses: courses}
}

func (l *StaticCourseLoader) LoadCourses(_ context.Context) ([]domain.Course, error) {
	return l.courses, nil
}
