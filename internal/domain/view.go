package domain

import "time"

// RoomSummary is the public listing projection.
type RoomSummary struct {
	Code           string     `json:"code"`
	HostName       string     `json:"hostName"`
	PlayerCount    int        `json:"playerCount"`
	MaxPlayers     int        `json:"maxPlayers"`
	Subject        string     `json:"subject,omitempty"`
	Difficulty     Difficulty `json:"difficulty"`
	QuestionsCount int        `json:"questionsCount"`
}

// RoomView is the sanitized detail projection. It never carries answers or answer keys.
type RoomView struct {
	Code          string            `json:"code"`
	HostID        string            `json:"hostId"`
	Status        Status            `json:"status"`
	Config        RoomConfig        `json:"config"`
	Players       []Player          `json:"players"`
	Questions     []QuestionPreview `json:"questions,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	StartedAt     *time.Time        `json:"startedAt,omitempty"`
	EndedAt       *time.Time        `json:"endedAt,omitempty"`
	WinnerID      string            `json:"winnerId,omitempty"`
	FinalRankings []Ranking         `json:"finalRankings,omitempty"`
}

// Listed reports whether the room appears in the public listing.
func (r *Room) Listed() bool {
	return r.Status == StatusWaiting && !r.Config.IsPrivate
}

// Summary projects the room for the public listing.
func (r *Room) Summary() RoomSummary {
	hostName := ""
	if host, ok := r.Player(r.HostID); ok {
		hostName = host.DisplayName
	}
	return RoomSummary{
		Code:           r.Code,
		HostName:       hostName,
		PlayerCount:    len(r.Players),
		MaxPlayers:     r.Config.MaxPlayers,
		Subject:        r.Config.Subject,
		Difficulty:     r.Config.Difficulty,
		QuestionsCount: r.Config.QuestionsCount,
	}
}

// View projects the room for participants.
func (r *Room) View() RoomView {
	players := make([]Player, len(r.Players))
	copy(players, r.Players)

	view := RoomView{
		Code:      r.Code,
		HostID:    r.HostID,
		Status:    r.Status,
		Config:    r.Config,
		Players:   players,
		Questions: r.Previews(),
		CreatedAt: r.CreatedAt,
	}
	if !r.StartedAt.IsZero() {
		startedAt := r.StartedAt
		view.StartedAt = &startedAt
	}
	if !r.EndedAt.IsZero() {
		endedAt := r.EndedAt
		view.EndedAt = &endedAt
	}
	if r.Status == StatusFinished {
		view.WinnerID = r.WinnerID
		view.FinalRankings = append([]Ranking(nil), r.FinalRankings...)
	}
	return view
}

// BattleResult is the finished outcome handed to reward and event sinks.
type BattleResult struct {
	Code           string    `json:"code"`
	Subject        string    `json:"subject,omitempty"`
	QuestionsCount int       `json:"questionsCount"`
	WinnerID       string    `json:"winnerId"`
	Rankings       []Ranking `json:"rankings"`
	StartedAt      time.Time `json:"startedAt"`
	EndedAt        time.Time `json:"endedAt"`
}

// Result snapshots a finished room.
func (r *Room) Result() BattleResult {
	return BattleResult{
		Code:           r.Code,
		Subject:        r.Config.Subject,
		QuestionsCount: r.Config.QuestionsCount,
		WinnerID:       r.WinnerID,
		Rankings:       append([]Ranking(nil), r.FinalRankings...),
		StartedAt:      r.StartedAt,
		EndedAt:        r.EndedAt,
	}
}
