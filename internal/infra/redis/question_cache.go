package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiz-battle-service/internal/domain"
)

// QuestionLoader fetches a question from a backing store (e.g. Postgres).
type QuestionLoader interface {
	LoadQuestion(ctx context.Context, id string) (domain.QuestionSnapshot, error)
}

// QuestionCache caches question snapshots in Redis and falls back to a loader on miss.
// Snapshots are stored as JSON: SET battle:question:{id} {snapshot} EX ttl
type QuestionCache struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuestionCache(client *redis.Client, loader QuestionLoader, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) GetQuestion(ctx context.Context, id string) (domain.QuestionSnapshot, error) {
	if q, ok := c.cached(ctx, id); ok {
		return q, nil
	}

	result, err, _ := c.sf.Do(id, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if q, ok := c.cached(ctx, id); ok {
			return q, nil
		}

		q, err := c.loader.LoadQuestion(ctx, id)
		if err != nil {
			return domain.QuestionSnapshot{}, err
		}
		if raw, err := json.Marshal(q); err == nil {
			_ = c.client.Set(ctx, c.key(id), raw, c.ttlWithJitter()).Err()
		}
		return q, nil
	})
	if err != nil {
		return domain.QuestionSnapshot{}, err
	}
	return result.(domain.QuestionSnapshot), nil
}

// Invalidate drops a cached snapshot after the bank question changes.
// Rooms that already started keep their frozen copy.
func (c *QuestionCache) Invalidate(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.key(id)).Err()
}

func (c *QuestionCache) cached(ctx context.Context, id string) (domain.QuestionSnapshot, bool) {
	raw, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		return domain.QuestionSnapshot{}, false
	}
	var q domain.QuestionSnapshot
	if err := json.Unmarshal(raw, &q); err != nil {
		return domain.QuestionSnapshot{}, false
	}
	return q, true
}

func (c *QuestionCache) key(id string) string {
	return "battle:question:" + id
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
