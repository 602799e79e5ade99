package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"quiz-battle-service/internal/domain"
)

func bankQuestions() []domain.QuestionSnapshot {
	var out []domain.QuestionSnapshot
	for i, subject := range []string{"math", "math", "math", "science", "science"} {
		difficulty := domain.DifficultyEasy
		if i%2 == 1 {
			difficulty = domain.DifficultyHard
		}
		out = append(out, domain.QuestionSnapshot{
			ID:            fmt.Sprintf("q%d", i),
			Subject:       subject,
			Difficulty:    difficulty,
			CorrectAnswer: "a",
		})
	}
	return out
}

func TestSampleFiltersAndNeverRepeats(t *testing.T) {
	bank := NewStaticQuestionBank(bankQuestions())
	ctx := context.Background()

	sources, err := bank.Sample(ctx, domain.QuestionFilter{Subject: "math"}, 10)
	if err != nil {
		t.Fatalf("sample failed: %v", err)
	}
	if len(sources) != 3 {
		t.Fatalf("expected the 3 math questions without padding, got %d", len(sources))
	}
	seen := map[string]bool{}
	for _, src := range sources {
		q, ok := src.(domain.InlineQuestion)
		if !ok {
			t.Fatalf("expected inline questions, got %T", src)
		}
		if q.Snapshot.Subject != "math" || seen[q.Snapshot.ID] {
			t.Fatalf("unexpected sample entry %+v", q.Snapshot)
		}
		seen[q.Snapshot.ID] = true
	}

	sources, _ = bank.Sample(ctx, domain.QuestionFilter{Subject: "math", Difficulty: domain.DifficultyHard}, 10)
	if len(sources) != 1 {
		t.Fatalf("expected 1 hard math question, got %d", len(sources))
	}

	sources, _ = bank.Sample(ctx, domain.QuestionFilter{}, 2)
	if len(sources) != 2 {
		t.Fatalf("expected sample trimmed to 2, got %d", len(sources))
	}
}

func TestLoadQuestion(t *testing.T) {
	bank := NewStaticQuestionBank(bankQuestions())
	if q, err := bank.LoadQuestion(context.Background(), "q3"); err != nil || q.Subject != "science" {
		t.Fatalf("unexpected load result %+v, %v", q, err)
	}
	if _, err := bank.LoadQuestion(context.Background(), "nope"); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

type slowLoader struct {
	calls atomic.Int32
}

func (l *slowLoader) LoadQuestion(_ context.Context, id string) (domain.QuestionSnapshot, error) {
	l.calls.Add(1)
	time.Sleep(20 * time.Millisecond)
	return domain.QuestionSnapshot{ID: id}, nil
}

func TestQuestionCacheCollapsesConcurrentLoads(t *testing.T) {
	loader := &slowLoader{}
	cache := NewQuestionCache(loader, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.GetQuestion(context.Background(), "q1"); err != nil {
				t.Errorf("get failed: %v", err)
			}
		}()
	}
	wg.Wait()
	if _, err := cache.GetQuestion(context.Background(), "q1"); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got := loader.calls.Load(); got != 1 {
		t.Fatalf("expected a single load, got %d", got)
	}
}

func TestQuestionCacheExpires(t *testing.T) {
	loader := &slowLoader{}
	cache := NewQuestionCache(loader, time.Minute)
	now := time.Now()
	cache.clock = func() time.Time { return now }

	if _, err := cache.GetQuestion(context.Background(), "q1"); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := cache.GetQuestion(context.Background(), "q1"); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got := loader.calls.Load(); got != 2 {
		t.Fatalf("expected reload after expiry, got %d loads", got)
	}
}
