package domain

import (
	"strings"
	"time"
)

// Room is the battle aggregate. It is not safe for concurrent use; callers
// serialize access per room.
type Room struct {
	Code          string
	HostID        string
	Players       []Player // join order, oldest first
	Config        RoomConfig
	Questions     []QuestionSnapshot
	Answers       AnswerLedger
	Status        Status
	CreatedAt     time.Time
	StartedAt     time.Time
	EndedAt       time.Time
	WinnerID      string
	FinalRankings []Ranking
}

// NewRoom builds a waiting room with the host as its only, ready, player.
func NewRoom(code, hostID string, host Profile, cfg RoomConfig, now time.Time) *Room {
	hostPlayer := newPlayer(hostID, host, now)
	hostPlayer.Ready = true
	return &Room{
		Code:      NormalizeCode(code),
		HostID:    hostID,
		Players:   []Player{hostPlayer},
		Config:    cfg.Normalize(),
		Answers:   NewAnswerLedger(),
		Status:    StatusWaiting,
		CreatedAt: now,
	}
}

// NormalizeCode uppercases and trims a room code for lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (r *Room) indexOf(userID string) int {
	for i := range r.Players {
		if r.Players[i].UserID == userID {
			return i
		}
	}
	return -1
}

// Player returns a copy of the player entry for userID.
func (r *Room) Player(userID string) (Player, bool) {
	if i := r.indexOf(userID); i >= 0 {
		return r.Players[i], true
	}
	return Player{}, false
}

// IsEmpty reports whether no players remain.
func (r *Room) IsEmpty() bool {
	return len(r.Players) == 0
}

// Join admits a player. Rejoining is a no-op and reports joined=false.
// A player joining a room without a host becomes the host.
func (r *Room) Join(userID string, profile Profile, now time.Time) (bool, error) {
	if r.indexOf(userID) >= 0 {
		return false, nil
	}
	if r.Status != StatusWaiting {
		return false, ErrRoomNotJoinable
	}
	if len(r.Players) >= r.Config.MaxPlayers {
		return false, ErrRoomFull
	}
	r.Players = append(r.Players, newPlayer(userID, profile, now))
	if r.HostID == "" {
		r.HostID = userID
	}
	return true, nil
}

// SetReady toggles a player's ready flag while the room is waiting.
func (r *Room) SetReady(userID string, ready bool) error {
	i := r.indexOf(userID)
	if i < 0 {
		return ErrPlayerNotInRoom
	}
	if r.Status != StatusWaiting {
		return ErrRoomNotJoinable
	}
	r.Players[i].Ready = ready
	return nil
}

// SetOnline records presence; it never changes roster or host.
func (r *Room) SetOnline(userID string, online bool) error {
	i := r.indexOf(userID)
	if i < 0 {
		return ErrPlayerNotInRoom
	}
	r.Players[i].Online = online
	return nil
}

// AllReady reports whether every current player is ready.
func (r *Room) AllReady() bool {
	for _, p := range r.Players {
		if !p.Ready {
			return false
		}
	}
	return true
}

// Leave removes the player. Host passes to the earliest-joined remaining player.
// An emptied room that already started is cancelled.
func (r *Room) Leave(userID string, now time.Time) error {
	i := r.indexOf(userID)
	if i < 0 {
		return ErrPlayerNotInRoom
	}
	r.Players = append(r.Players[:i], r.Players[i+1:]...)

	if len(r.Players) == 0 {
		r.HostID = ""
		if r.Status == StatusStarting || r.Status == StatusInProgress {
			r.Status = StatusCancelled
			r.EndedAt = now
		}
		return nil
	}
	if r.HostID == userID {
		r.HostID = r.Players[0].UserID
	}
	return nil
}

// CanStart checks the start preconditions without mutating the room.
func (r *Room) CanStart(requesterID string) error {
	if requesterID != r.HostID {
		return ErrNotHost
	}
	if r.Status != StatusWaiting {
		return ErrInvalidTransition
	}
	if len(r.Players) < MinPlayers {
		return ErrInsufficientPlayers
	}
	return nil
}

// Begin freezes the question snapshots and moves the room to in-progress.
// startedAt is a countdown hint; answers are accepted immediately.
func (r *Room) Begin(questions []QuestionSnapshot, now time.Time, countdown time.Duration) ([]QuestionPreview, error) {
	if len(questions) < r.Config.QuestionsCount {
		return nil, ErrInsufficientQuestions
	}
	if !r.Status.CanTransition(StatusInProgress) {
		return nil, ErrInvalidTransition
	}

	frozen := make([]QuestionSnapshot, r.Config.QuestionsCount)
	for i := range frozen {
		frozen[i] = questions[i].clone()
	}
	r.Questions = frozen
	r.Status = StatusInProgress
	r.StartedAt = now.Add(countdown)
	return r.Previews(), nil
}

// Previews returns the sanitized question list.
func (r *Room) Previews() []QuestionPreview {
	out := make([]QuestionPreview, len(r.Questions))
	for i, q := range r.Questions {
		out[i] = q.Preview()
	}
	return out
}

// AnswerOutcome is returned to the answering player.
type AnswerOutcome struct {
	QuestionIndex  int        `json:"questionIndex"`
	IsCorrect      bool       `json:"isCorrect"`
	AwardedPoints  int        `json:"awardedPoints"`
	CorrectAnswer  string     `json:"correctAnswer"`
	Explanation    string     `json:"explanation,omitempty"`
	NewPlayerScore int        `json:"newPlayerScore"`
	LiveStandings  []Standing `json:"liveStandings"`
}

// SubmitAnswer validates, scores and records one answer. Preconditions are
// checked in order: active battle, membership, index, duplicate.
func (r *Room) SubmitAnswer(userID string, index int, value string, spent float64, now time.Time) (AnswerOutcome, error) {
	if r.Status != StatusInProgress {
		return AnswerOutcome{}, ErrBattleNotActive
	}
	pi := r.indexOf(userID)
	if pi < 0 {
		return AnswerOutcome{}, ErrPlayerNotInRoom
	}
	if index < 0 || index >= len(r.Questions) {
		return AnswerOutcome{}, ErrInvalidQuestionIndex
	}
	if r.Answers.Has(index, userID) {
		return AnswerOutcome{}, ErrDuplicateAnswer
	}

	question := r.Questions[index]
	t := ClampTime(spent, r.Config.TimePerQuestion)
	correct := value == question.CorrectAnswer
	awarded := AwardPoints(question.BasePoints(), correct, t, r.Config.TimePerQuestion)

	if err := r.Answers.Append(index, AnswerRecord{
		UserID:           userID,
		AnswerValue:      value,
		IsCorrect:        correct,
		TimeSpentSeconds: t,
		AwardedPoints:    awarded,
		AnsweredAt:       now,
	}); err != nil {
		return AnswerOutcome{}, err
	}
	r.Players[pi].recordAnswer(correct, awarded, t)

	return AnswerOutcome{
		QuestionIndex:  index,
		IsCorrect:      correct,
		AwardedPoints:  awarded,
		CorrectAnswer:  question.CorrectAnswer,
		Explanation:    question.Explanation,
		NewPlayerScore: r.Players[pi].Score,
		LiveStandings:  LiveStandings(r.Players),
	}, nil
}

// End computes final rankings and finishes the battle.
func (r *Room) End(now time.Time) ([]Ranking, error) {
	switch {
	case r.Status == StatusFinished:
		return nil, ErrAlreadyFinished
	case r.Status != StatusInProgress:
		return nil, ErrBattleNotActive
	}

	rankings := FinalRankings(r.Players)
	r.FinalRankings = rankings
	if len(rankings) > 0 {
		r.WinnerID = rankings[0].Player.UserID
	}
	r.Status = StatusFinished
	r.EndedAt = now
	return rankings, nil
}

// Cancel aborts a non-terminal room on the host's request.
func (r *Room) Cancel(requesterID string, now time.Time) error {
	if requesterID != r.HostID {
		return ErrNotHost
	}
	switch r.Status {
	case StatusFinished:
		return ErrAlreadyFinished
	case StatusCancelled:
		return ErrBattleNotActive
	}
	r.Status = StatusCancelled
	r.EndedAt = now
	return nil
}

// Winner returns the rank-1 entry of a finished battle.
func (r *Room) Winner() (Ranking, bool) {
	if r.Status != StatusFinished || len(r.FinalRankings) == 0 {
		return Ranking{}, false
	}
	return r.FinalRankings[0], true
}
