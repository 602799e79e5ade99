package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-battle-service/internal/domain"
)

// QuestionBank samples and loads questions stored in Postgres.
// Sample returns references; snapshots are fetched through LoadQuestion,
// usually behind a cache.
type QuestionBank struct {
	pool *pgxpool.Pool
}

func NewQuestionBank(pool *pgxpool.Pool) *QuestionBank {
	return &QuestionBank{pool: pool}
}

func (b *QuestionBank) Sample(ctx context.Context, filter domain.QuestionFilter, count int) ([]domain.QuestionSource, error) {
	rows, err := b.pool.Query(ctx, `
		SELECT id FROM questions
		WHERE ($1::text = '' OR subject = $1) AND ($2::text = '' OR difficulty = $2)
		ORDER BY random()
		LIMIT $3`, filter.Subject, string(filter.Difficulty), count)
	if err != nil {
		return nil, fmt.Errorf("sample questions: %w", err)
	}
	defer rows.Close()

	var out []domain.QuestionSource
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan question id: %w", err)
		}
		out = append(out, domain.RefQuestion{ID: id})
	}
	return out, rows.Err()
}

func (b *QuestionBank) LoadQuestion(ctx context.Context, id string) (domain.QuestionSnapshot, error) {
	var (
		q          domain.QuestionSnapshot
		difficulty string
		options    []byte
	)
	err := b.pool.QueryRow(ctx, `
		SELECT id, subject, difficulty, prompt, points, options, correct_answer, explanation
		FROM questions WHERE id=$1`, id).
		Scan(&q.ID, &q.Subject, &difficulty, &q.Prompt, &q.Points, &options, &q.CorrectAnswer, &q.Explanation)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuestionSnapshot{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.QuestionSnapshot{}, fmt.Errorf("load question: %w", err)
	}
	q.Difficulty = domain.Difficulty(difficulty)
	if err := json.Unmarshal(options, &q.Options); err != nil {
		return domain.QuestionSnapshot{}, fmt.Errorf("unmarshal options: %w", err)
	}
	return q, nil
}

// SaveQuestion inserts or replaces a bank question.
func (b *QuestionBank) SaveQuestion(ctx context.Context, q domain.QuestionSnapshot) error {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}
	_, err = b.pool.Exec(ctx, `
		INSERT INTO questions (id, subject, difficulty, prompt, points, options, correct_answer, explanation)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			subject=EXCLUDED.subject, difficulty=EXCLUDED.difficulty, prompt=EXCLUDED.prompt,
			points=EXCLUDED.points, options=EXCLUDED.options,
			correct_answer=EXCLUDED.correct_answer, explanation=EXCLUDED.explanation`,
		q.ID, q.Subject, string(q.Difficulty), q.Prompt, q.BasePoints(), string(options), q.CorrectAnswer, q.Explanation)
	if err != nil {
		return fmt.Errorf("save question %s: %w", q.ID, err)
	}
	return nil
}
