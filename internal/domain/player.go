package domain

import "time"

// Profile is the caller-supplied presentation of a user.
type Profile struct {
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar,omitempty"`
}

// Player is a room participant with running battle stats.
type Player struct {
	UserID             string    `json:"userId"`
	DisplayName        string    `json:"displayName"`
	Avatar             string    `json:"avatar,omitempty"`
	Score              int       `json:"score"`
	CorrectAnswers     int       `json:"correctAnswers"`
	AverageTimeSeconds float64   `json:"averageTimeSeconds"`
	AnsweredCount      int       `json:"answeredCount"`
	Ready              bool      `json:"ready"`
	Online             bool      `json:"online"`
	JoinedAt           time.Time `json:"joinedAt"`
}

func newPlayer(userID string, profile Profile, joinedAt time.Time) Player {
	return Player{
		UserID:      userID,
		DisplayName: profile.DisplayName,
		Avatar:      profile.Avatar,
		Online:      true,
		JoinedAt:    joinedAt,
	}
}

// recordAnswer folds one accepted answer into the running stats.
func (p *Player) recordAnswer(correct bool, awarded int, seconds float64) {
	p.Score += awarded
	if correct {
		p.CorrectAnswers++
	}
	n := float64(p.AnsweredCount)
	p.AverageTimeSeconds = (p.AverageTimeSeconds*n + seconds) / (n + 1)
	p.AnsweredCount++
}
