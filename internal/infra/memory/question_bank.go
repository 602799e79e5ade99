package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-battle-service/internal/domain"
)

// QuestionLoader fetches a single question from a backing store.
type QuestionLoader interface {
	LoadQuestion(ctx context.Context, id string) (domain.QuestionSnapshot, error)
}

// StaticQuestionBank is a question bank backed by a fixed slice (useful for tests/demos).
// It samples inline snapshots since it already holds the full questions.
type StaticQuestionBank struct {
	questions []domain.QuestionSnapshot
	byID      map[string]domain.QuestionSnapshot

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewStaticQuestionBank(questions []domain.QuestionSnapshot) *StaticQuestionBank {
	byID := make(map[string]domain.QuestionSnapshot, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	return &StaticQuestionBank{
		questions: questions,
		byID:      byID,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Sample returns up to count distinct matching questions in random order.
func (b *StaticQuestionBank) Sample(_ context.Context, filter domain.QuestionFilter, count int) ([]domain.QuestionSource, error) {
	matching := make([]domain.QuestionSnapshot, 0, len(b.questions))
	for _, q := range b.questions {
		if filter.Subject != "" && q.Subject != filter.Subject {
			continue
		}
		if filter.Difficulty != "" && q.Difficulty != filter.Difficulty {
			continue
		}
		matching = append(matching, q)
	}

	b.mu.Lock()
	b.rnd.Shuffle(len(matching), func(i, j int) { matching[i], matching[j] = matching[j], matching[i] })
	b.mu.Unlock()

	if len(matching) > count {
		matching = matching[:count]
	}
	out := make([]domain.QuestionSource, len(matching))
	for i, q := range matching {
		out[i] = domain.InlineQuestion{Snapshot: q}
	}
	return out, nil
}

func (b *StaticQuestionBank) LoadQuestion(_ context.Context, id string) (domain.QuestionSnapshot, error) {
	if q, ok := b.byID[id]; ok {
		return q, nil
	}
	return domain.QuestionSnapshot{}, domain.ErrQuestionNotFound
}

// QuestionCache caches question snapshots with TTL to avoid repeated DB hits.
type QuestionCache struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[string]cachedQuestion
}

type cachedQuestion struct {
	question  domain.QuestionSnapshot
	expiresAt time.Time
}

func NewQuestionCache(loader QuestionLoader, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedQuestion),
	}
}

func (c *QuestionCache) GetQuestion(ctx context.Context, id string) (domain.QuestionSnapshot, error) {
	if q, ok := c.lookup(id); ok {
		return q, nil
	}

	result, err, _ := c.sf.Do(id, func() (interface{}, error) {
		if q, ok := c.lookup(id); ok {
			return q, nil
		}
		q, err := c.loader.LoadQuestion(ctx, id)
		if err != nil {
			return domain.QuestionSnapshot{}, err
		}

		c.mu.Lock()
		c.cache[id] = cachedQuestion{
			question:  q,
			expiresAt: c.clock().Add(c.ttlWithJitterLocked()),
		}
		c.mu.Unlock()
		return q, nil
	})
	if err != nil {
		return domain.QuestionSnapshot{}, err
	}
	return result.(domain.QuestionSnapshot), nil
}

func (c *QuestionCache) lookup(id string) (domain.QuestionSnapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[id]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return domain.QuestionSnapshot{}, false
	}
	return entry.question, true
}

func (c *QuestionCache) ttlWithJitterLocked() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
