package memory

import (
	"context"
	"math/rand"
	"slices"
	"sync"
	"time"

	"event-trivia-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// CatalogLoader fetches the question catalog from its source (file, Postgres).
type CatalogLoader interface {
	LoadCatalog(ctx context.Context) ([]domain.Question, error)
}

// CatalogRepository caches the catalog with a TTL so resets do not hit the
// source every time.
type CatalogRepository struct {
	loader CatalogLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	questions []domain.Question
	expiresAt time.Time
}

func NewCatalogRepository(loader CatalogLoader, ttl time.Duration) *CatalogRepository {
	return &CatalogRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *CatalogRepository) GetCatalog(ctx context.Context) ([]domain.Question, error) {
	if questions, ok := r.cached(r.clock()); ok {
		return questions, nil
	}

	result, err, _ := r.sf.Do("catalog", func() (interface{}, error) {
		now := r.clock()
		if questions, ok := r.cached(now); ok {
			return questions, nil
		}

		questions, err := r.loader.LoadCatalog(ctx)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.questions = questions
		r.expiresAt = now.Add(r.ttlWithJitter())
		r.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(result.([]domain.Question)), nil
}

func (r *CatalogRepository) cached(now time.Time) ([]domain.Question, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.questions == nil || !r.expiresAt.After(now) {
		return nil, false
	}
	return slices.Clone(r.questions), true
}

// StaticCatalogLoader serves a fixed catalog (tests, demos).
type StaticCatalogLoader struct {
	questions []domain.Question
}

func NewStaticCatalogLoader(questions []domain.Question) *StaticCatalogLoader {
	return &StaticCatalogLoader{questions: domain.IndexQuestions(questions)}
}

func (l *StaticCatalogLoader) LoadCatalog(context.Context) ([]domain.Question, error) {
	return slices.Clone(l.questions), nil
}

// GetCatalog lets the static loader stand in for a repository directly.
func (l *StaticCatalogLoader) GetCatalog(ctx context.Context) ([]domain.Question, error) {
	return l.LoadCatalog(ctx)
}

func (r *CatalogRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// up to 10% jitter
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
