package domain

import "time"

// AnswerRecord is the immutable result of one accepted submission.
type AnswerRecord struct {
	UserID           string    `json:"userId"`
	AnswerValue      string    `json:"answerValue"`
	IsCorrect        bool      `json:"isCorrect"`
	TimeSpentSeconds float64   `json:"timeSpentSeconds"`
	AwardedPoints    int       `json:"awardedPoints"`
	AnsweredAt       time.Time `json:"answeredAt"`
}

// AnswerLedger is an append-only log of answers keyed by question index.
// It holds at most one record per (question, user).
type AnswerLedger struct {
	entries map[int][]AnswerRecord
	total   int
}

func NewAnswerLedger() AnswerLedger {
	return AnswerLedger{entries: make(map[int][]AnswerRecord)}
}

// Has reports whether userID already answered the question.
func (l *AnswerLedger) Has(index int, userID string) bool {
	for _, rec := range l.entries[index] {
		if rec.UserID == userID {
			return true
		}
	}
	return false
}

// Append records an answer; the first writer wins.
func (l *AnswerLedger) Append(index int, rec AnswerRecord) error {
	if l.Has(index, rec.UserID) {
		return ErrDuplicateAnswer
	}
	if l.entries == nil {
		l.entries = make(map[int][]AnswerRecord)
	}
	l.entries[index] = append(l.entries[index], rec)
	l.total++
	return nil
}

// ForQuestion returns a copy of the records for one question, in arrival order.
func (l *AnswerLedger) ForQuestion(index int) []AnswerRecord {
	records := l.entries[index]
	out := make([]AnswerRecord, len(records))
	copy(out, records)
	return out
}

// Len is the total number of records across all questions.
func (l *AnswerLedger) Len() int {
	return l.total
}

// AnswerSubmission is a player's answer as reported by the client.
type AnswerSubmission struct {
	QuestionIndex    int
	AnswerValue      string
	TimeSpentSeconds float64
}
