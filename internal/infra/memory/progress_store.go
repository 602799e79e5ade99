package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"quiz-battle-service/internal/domain"
)

// UserProgress is the accumulated progress of one user.
type UserProgress struct {
	XP                 int
	QuestionsAttempted int
	QuestionsCorrect   int
}

// ProgressStore is an in-memory create-or-increment progress ledger.
type ProgressStore struct {
	mu    sync.Mutex
	users map[string]UserProgress
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{users: make(map[string]UserProgress)}
}

func (s *ProgressStore) UpsertIncrement(_ context.Context, userID string, delta domain.ProgressDelta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.users[userID]
	p.XP += delta.XPDelta
	p.QuestionsAttempted += delta.QuestionsAttemptedDelta
	p.QuestionsCorrect += delta.QuestionsCorrectDelta
	s.users[userID] = p
	return nil
}

// Get returns the progress for a user.
func (s *ProgressStore) Get(userID string) (UserProgress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.users[userID]
	return p, ok
}

// AchievementStore keeps at most one achievement per (user, type).
type AchievementStore struct {
	mu           sync.Mutex
	achievements map[string]map[string]domain.Achievement // user -> type -> grant
}

func NewAchievementStore() *AchievementStore {
	return &AchievementStore{achievements: make(map[string]map[string]domain.Achievement)}
}

func (s *AchievementStore) CountByTypeForUser(_ context.Context, userID, achievementType string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.achievements[userID][achievementType]; ok {
		return 1, nil
	}
	return 0, nil
}

// Grant is idempotent: a repeated grant returns the existing achievement.
func (s *AchievementStore) Grant(_ context.Context, userID string, grant domain.AchievementGrant) (domain.Achievement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byType, ok := s.achievements[userID]
	if !ok {
		byType = make(map[string]domain.Achievement)
		s.achievements[userID] = byType
	}
	if existing, ok := byType[grant.Type]; ok {
		return existing, nil
	}
	a := domain.Achievement{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      grant.Type,
		Title:     grant.Title,
		Metadata:  grant.Metadata,
		GrantedAt: time.Now(),
	}
	byType[grant.Type] = a
	return a, nil
}
