package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"quiz-battle-service/internal/domain"
)

// DefaultRewardConcurrency bounds concurrent collaborator calls per battle.
const DefaultRewardConcurrency = 4

// ProgressRecorder applies create-or-increment progress updates.
type ProgressRecorder interface {
	UpsertIncrement(ctx context.Context, userID string, delta domain.ProgressDelta) error
}

// AchievementStore persists achievements. Grant must be idempotent per
// (user, type); the count check before it is only an optimization.
type AchievementStore interface {
	CountByTypeForUser(ctx context.Context, userID, achievementType string) (int, error)
	Grant(ctx context.Context, userID string, grant domain.AchievementGrant) (domain.Achievement, error)
}

// RewardOutcome reports what happened for one ranked player.
type RewardOutcome struct {
	UserID             string               `json:"userId"`
	Rank               int                  `json:"rank"`
	Progress           domain.ProgressDelta `json:"progress"`
	AchievementGranted bool                 `json:"achievementGranted"`
	Err                error                `json:"-"`
}

// RewardDistributor forwards final rankings to the progress collaborators.
type RewardDistributor struct {
	progress     ProgressRecorder
	achievements AchievementStore
	logger       *zap.Logger
	concurrency  int
}

func NewRewardDistributor(progress ProgressRecorder, achievements AchievementStore, logger *zap.Logger, concurrency int) *RewardDistributor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency <= 0 {
		concurrency = DefaultRewardConcurrency
	}
	return &RewardDistributor{
		progress:     progress,
		achievements: achievements,
		logger:       logger,
		concurrency:  concurrency,
	}
}

// Distribute emits one progress increment per ranked player and a first-win
// achievement for rank 1. Players are handled independently: a failure for
// one is recorded in its outcome and does not affect the others.
func (d *RewardDistributor) Distribute(ctx context.Context, result domain.BattleResult) []RewardOutcome {
	outcomes := make([]RewardOutcome, len(result.Rankings))

	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i, ranking := range result.Rankings {
		i, ranking := i, ranking
		g.Go(func() error {
			outcomes[i] = d.reward(ctx, result, ranking)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (d *RewardDistributor) reward(ctx context.Context, result domain.BattleResult, ranking domain.Ranking) RewardOutcome {
	userID := ranking.Player.UserID
	outcome := RewardOutcome{
		UserID: userID,
		Rank:   ranking.Rank,
		Progress: domain.ProgressDelta{
			XPDelta:                 ranking.XPEarned,
			QuestionsAttemptedDelta: result.QuestionsCount,
			QuestionsCorrectDelta:   ranking.Player.CorrectAnswers,
		},
	}

	if err := d.progress.UpsertIncrement(ctx, userID, outcome.Progress); err != nil {
		outcome.Err = fmt.Errorf("progress: %w", err)
		d.logger.Warn("progress update failed",
			zap.String("code", result.Code), zap.String("user_id", userID), zap.Error(err))
	}

	if ranking.Rank != 1 {
		return outcome
	}
	granted, err := d.grantFirstWin(ctx, result, userID)
	if err != nil {
		outcome.Err = errors.Join(outcome.Err, fmt.Errorf("achievement: %w", err))
		d.logger.Warn("winner achievement failed",
			zap.String("code", result.Code), zap.String("user_id", userID), zap.Error(err))
	}
	outcome.AchievementGranted = granted
	return outcome
}

func (d *RewardDistributor) grantFirstWin(ctx context.Context, result domain.BattleResult, userID string) (bool, error) {
	count, err := d.achievements.CountByTypeForUser(ctx, userID, domain.AchievementBattleWinner)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	_, err = d.achievements.Grant(ctx, userID, domain.AchievementGrant{
		Type:        domain.AchievementBattleWinner,
		Title:       "Battle Winner",
		Description: "Won a quiz battle for the first time",
		Metadata:    map[string]string{"roomCode": result.Code},
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
