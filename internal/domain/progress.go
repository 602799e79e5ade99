package domain

import "time"

// AchievementBattleWinner is granted once, on a user's first battle win.
const AchievementBattleWinner = "battle_winner"

// ProgressDelta is applied as an atomic increment to a user's progress.
type ProgressDelta struct {
	XPDelta                 int `json:"xpDelta"`
	QuestionsAttemptedDelta int `json:"questionsAttemptedDelta"`
	QuestionsCorrectDelta   int `json:"questionsCorrectDelta"`
}

// AchievementGrant describes an achievement to award.
type AchievementGrant struct {
	Type        string            `json:"type"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Achievement is a persisted grant.
type Achievement struct {
	ID        string            `json:"id"`
	UserID    string            `json:"userId"`
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	GrantedAt time.Time         `json:"grantedAt"`
}
