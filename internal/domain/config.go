package domain

// Difficulty filters the question sample.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyMixed  Difficulty = "mixed"
)

const (
	MinPlayers = 2
	MaxPlayers = 10

	MinQuestions = 1
	MaxQuestions = 50

	DefaultMaxPlayers      = 4
	DefaultQuestionsCount  = 10
	DefaultTimePerQuestion = 30
)

// RoomConfig is fixed at room creation.
type RoomConfig struct {
	MaxPlayers      int        `json:"maxPlayers"`
	QuestionsCount  int        `json:"questionsCount"`
	TimePerQuestion int        `json:"timePerQuestion"` // seconds
	Subject         string     `json:"subject,omitempty"`
	Difficulty      Difficulty `json:"difficulty"`
	IsPrivate       bool       `json:"isPrivate"`
}

// Normalize fills defaults and clamps counts into supported bounds.
func (c RoomConfig) Normalize() RoomConfig {
	if c.MaxPlayers == 0 {
		c.MaxPlayers = DefaultMaxPlayers
	}
	c.MaxPlayers = clampInt(c.MaxPlayers, MinPlayers, MaxPlayers)

	if c.QuestionsCount == 0 {
		c.QuestionsCount = DefaultQuestionsCount
	}
	c.QuestionsCount = clampInt(c.QuestionsCount, MinQuestions, MaxQuestions)

	if c.TimePerQuestion <= 0 {
		c.TimePerQuestion = DefaultTimePerQuestion
	}

	switch c.Difficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyMixed:
	default:
		c.Difficulty = DifficultyMixed
	}
	return c
}

// QuestionFilter narrows a question sample. Empty fields match everything.
type QuestionFilter struct {
	Subject    string
	Difficulty Difficulty
}

// Filter derives the sample filter for a room; mixed difficulty matches any.
func (c RoomConfig) Filter() QuestionFilter {
	f := QuestionFilter{Subject: c.Subject}
	if c.Difficulty != DifficultyMixed {
		f.Difficulty = c.Difficulty
	}
	return f
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
