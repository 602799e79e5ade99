package domain

// DefaultQuestionPoints is used when a question carries no point value.
const DefaultQuestionPoints = 10

// Option is one selectable answer.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// QuestionSnapshot is an immutable copy of a bank question, answer key included.
type QuestionSnapshot struct {
	ID            string     `json:"id"`
	Prompt        string     `json:"prompt"`
	Subject       string     `json:"subject,omitempty"`
	Difficulty    Difficulty `json:"difficulty"`
	Points        int        `json:"points"`
	Options       []Option   `json:"options"`
	CorrectAnswer string     `json:"correctAnswer"`
	Explanation   string     `json:"explanation,omitempty"`
}

// BasePoints returns the point value, defaulting when unset.
func (q QuestionSnapshot) BasePoints() int {
	if q.Points <= 0 {
		return DefaultQuestionPoints
	}
	return q.Points
}

// Preview strips the answer key and explanation.
func (q QuestionSnapshot) Preview() QuestionPreview {
	options := make([]Option, len(q.Options))
	copy(options, q.Options)
	return QuestionPreview{
		ID:         q.ID,
		Prompt:     q.Prompt,
		Difficulty: q.Difficulty,
		Points:     q.BasePoints(),
		Options:    options,
	}
}

// clone deep-copies the options so the room owns its snapshot.
func (q QuestionSnapshot) clone() QuestionSnapshot {
	options := make([]Option, len(q.Options))
	copy(options, q.Options)
	q.Options = options
	return q
}

// QuestionPreview is what players see before answering.
type QuestionPreview struct {
	ID         string     `json:"id"`
	Prompt     string     `json:"prompt"`
	Difficulty Difficulty `json:"difficulty"`
	Points     int        `json:"points"`
	Options    []Option   `json:"options"`
}

// QuestionSource is either a reference into the bank or an embedded snapshot.
// Sources are resolved once, at start, into snapshots.
type QuestionSource interface {
	questionSource()
}

// RefQuestion points at a question by bank ID.
type RefQuestion struct {
	ID string
}

// InlineQuestion carries the full question.
type InlineQuestion struct {
	Snapshot QuestionSnapshot
}

func (RefQuestion) questionSource()    {}
func (InlineQuestion) questionSource() {}
