package domain

import "sort"

// XPSchedule maps rank (1-based) to XP. Ranks past the table earn XPFloor.
var XPSchedule = []int{100, 60, 40, 25, 15, 10, 5, 5, 5, 5}

const XPFloor = 5

// XPForRank returns the XP reward for a final rank.
func XPForRank(rank int) int {
	if rank >= 1 && rank <= len(XPSchedule) {
		return XPSchedule[rank-1]
	}
	return XPFloor
}

// Standing is one row of the live scoreboard.
type Standing struct {
	Position           int     `json:"position"`
	UserID             string  `json:"userId"`
	DisplayName        string  `json:"displayName"`
	Score              int     `json:"score"`
	CorrectAnswers     int     `json:"correctAnswers"`
	AverageTimeSeconds float64 `json:"averageTimeSeconds"`
}

// Ranking is one row of the final outcome.
type Ranking struct {
	Rank     int    `json:"rank"`
	Player   Player `json:"player"`
	XPEarned int    `json:"xpEarned"`
}

// LiveStandings orders players by score, keeping join order for ties.
func LiveStandings(players []Player) []Standing {
	ordered := make([]Player, len(players))
	copy(ordered, players)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Score > ordered[j].Score
	})

	out := make([]Standing, len(ordered))
	for i, p := range ordered {
		out[i] = Standing{
			Position:           i + 1,
			UserID:             p.UserID,
			DisplayName:        p.DisplayName,
			Score:              p.Score,
			CorrectAnswers:     p.CorrectAnswers,
			AverageTimeSeconds: p.AverageTimeSeconds,
		}
	}
	return out
}

// FinalRankings orders players by score, then by faster average time, then join order.
func FinalRankings(players []Player) []Ranking {
	ordered := make([]Player, len(players))
	copy(ordered, players)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Score != ordered[j].Score {
			return ordered[i].Score > ordered[j].Score
		}
		return ordered[i].AverageTimeSeconds < ordered[j].AverageTimeSeconds
	})

	out := make([]Ranking, len(ordered))
	for i, p := range ordered {
		out[i] = Ranking{Rank: i + 1, Player: p, XPEarned: XPForRank(i + 1)}
	}
	return out
}
