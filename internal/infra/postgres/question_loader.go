package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"phone-trivia/internal/domain"
)

// QuestionLoader loads question banks from Postgres, ordered by position.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadBank(ctx context.Context, bankID string) (domain.QuestionBank, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT id, prompt, category, difficulty, options
		FROM questions
		WHERE bank_id = $1
		ORDER BY position`, bankID)
	if err != nil {
		return domain.QuestionBank{}, fmt.Errorf("load bank: %w", err)
	}
	defer rows.Close()

	bank := domain.QuestionBank{ID: bankID}
	for rows.Next() {
		var (
			q   domain.Question
			raw []byte
		)
		if err := rows.Scan(&q.ID, &q.Prompt, &q.Category, &q.Difficulty, &raw); err != nil {
			return domain.QuestionBank{}, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal(raw, &q.Options); err != nil {
			return domain.QuestionBank{}, fmt.Errorf("unmarshal options of %s: %w", q.ID, err)
		}
		bank.Questions = append(bank.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return domain.QuestionBank{}, fmt.Errorf("load bank: %w", err)
	}
	if len(bank.Questions) == 0 {
		return domain.QuestionBank{}, domain.ErrQuestionsNotFound
	}
	return bank, nil
}
