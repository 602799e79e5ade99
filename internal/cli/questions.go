package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"quiz-battle-service/internal/domain"
)

type questionFile struct {
	Questions []questionEntry `yaml:"questions"`
}

type questionEntry struct {
	ID            string        `yaml:"id"`
	Subject       string        `yaml:"subject"`
	Difficulty    string        `yaml:"difficulty"`
	Prompt        string        `yaml:"prompt"`
	Points        int           `yaml:"points"`
	Options       []optionEntry `yaml:"options"`
	CorrectAnswer string        `yaml:"correct_answer"`
	Explanation   string        `yaml:"explanation"`
}

type optionEntry struct {
	ID   string `yaml:"id"`
	Text string `yaml:"text"`
}

// loadQuestions reads a YAML question file into bank snapshots.
func loadQuestions(path string) ([]domain.QuestionSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file questionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	out := make([]domain.QuestionSnapshot, 0, len(file.Questions))
	seen := make(map[string]struct{}, len(file.Questions))
	for i, q := range file.Questions {
		if q.ID == "" || q.Prompt == "" || q.CorrectAnswer == "" {
			return nil, fmt.Errorf("question %d: id, prompt and correct_answer are required", i)
		}
		if _, dup := seen[q.ID]; dup {
			return nil, fmt.Errorf("question %d: duplicate id %q", i, q.ID)
		}
		seen[q.ID] = struct{}{}

		options := make([]domain.Option, len(q.Options))
		for j, o := range q.Options {
			options[j] = domain.Option{ID: o.ID, Text: o.Text}
		}
		out = append(out, domain.QuestionSnapshot{
			ID:            q.ID,
			Subject:       q.Subject,
			Difficulty:    domain.Difficulty(q.Difficulty),
			Prompt:        q.Prompt,
			Points:        q.Points,
			Options:       options,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
		})
	}
	return out, nil
}
