package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-battle-service/internal/domain"
)

// ProgressRepository applies progress increments with an upsert.
type ProgressRepository struct {
	pool *pgxpool.Pool
}

func NewProgressRepository(pool *pgxpool.Pool) *ProgressRepository {
	return &ProgressRepository{pool: pool}
}

func (r *ProgressRepository) UpsertIncrement(ctx context.Context, userID string, delta domain.ProgressDelta) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_progress (user_id, xp, questions_attempted, questions_correct, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (user_id) DO UPDATE SET
			xp = user_progress.xp + EXCLUDED.xp,
			questions_attempted = user_progress.questions_attempted + EXCLUDED.questions_attempted,
			questions_correct = user_progress.questions_correct + EXCLUDED.questions_correct,
			updated_at = now()`,
		userID, delta.XPDelta, delta.QuestionsAttemptedDelta, delta.QuestionsCorrectDelta)
	if err != nil {
		return fmt.Errorf("upsert progress for %s: %w", userID, err)
	}
	return nil
}

// AchievementRepository stores achievements; the (user_id, type) unique
// constraint makes Grant idempotent.
type AchievementRepository struct {
	pool *pgxpool.Pool
}

func NewAchievementRepository(pool *pgxpool.Pool) *AchievementRepository {
	return &AchievementRepository{pool: pool}
}

func (r *AchievementRepository) CountByTypeForUser(ctx context.Context, userID, achievementType string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM achievements WHERE user_id=$1 AND type=$2`, userID, achievementType).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count achievements: %w", err)
	}
	return count, nil
}

func (r *AchievementRepository) Grant(ctx context.Context, userID string, grant domain.AchievementGrant) (domain.Achievement, error) {
	metadata, err := json.Marshal(grant.Metadata)
	if err != nil {
		return domain.Achievement{}, fmt.Errorf("marshal metadata: %w", err)
	}

	a := domain.Achievement{
		ID:       uuid.NewString(),
		UserID:   userID,
		Type:     grant.Type,
		Title:    grant.Title,
		Metadata: grant.Metadata,
	}
	err = r.pool.QueryRow(ctx, `
		INSERT INTO achievements (id, user_id, type, title, metadata)
		VALUES ($1, $2, $3, $4, $5::jsonb)
		ON CONFLICT (user_id, type) DO NOTHING
		RETURNING granted_at`,
		a.ID, userID, grant.Type, grant.Title, string(metadata)).Scan(&a.GrantedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// Someone else won the race; return their grant.
		return r.find(ctx, userID, grant.Type)
	}
	if err != nil {
		return domain.Achievement{}, fmt.Errorf("grant achievement: %w", err)
	}
	return a, nil
}

func (r *AchievementRepository) find(ctx context.Context, userID, achievementType string) (domain.Achievement, error) {
	var (
		a         domain.Achievement
		metadata  []byte
		grantedAt time.Time
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, user_id, type, title, metadata, granted_at
		FROM achievements WHERE user_id=$1 AND type=$2`, userID, achievementType).
		Scan(&a.ID, &a.UserID, &a.Type, &a.Title, &metadata, &grantedAt)
	if err != nil {
		return domain.Achievement{}, fmt.Errorf("load achievement: %w", err)
	}
	a.GrantedAt = grantedAt
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &a.Metadata); err != nil {
			return domain.Achievement{}, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return a, nil
}
