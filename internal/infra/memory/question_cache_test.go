package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"phone-trivia/internal/domain"
)

func TestQuestionCacheCaches(t *testing.T) {
	loader := &countingLoader{
		BankLoader: NewStaticBankLoader(map[string]domain.QuestionBank{
			"general": sampleBank(),
		}),
	}
	cache := NewQuestionCache(loader, time.Minute)

	if _, err := cache.GetBank(context.Background(), "general"); err != nil {
		t.Fatalf("get bank: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	bank, err := cache.GetBank(context.Background(), "general")
	if err != nil {
		t.Fatalf("get bank 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
	if len(bank.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(bank.Questions))
	}
}

func TestQuestionCacheExpires(t *testing.T) {
	loader := &countingLoader{
		BankLoader: NewStaticBankLoader(map[string]domain.QuestionBank{
			"general": sampleBank(),
		}),
	}
	cache := NewQuestionCache(loader, time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.clock = func() time.Time { return now }

	if _, err := cache.GetBank(context.Background(), "general"); err != nil {
		t.Fatalf("get bank: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := cache.GetBank(context.Background(), "general"); err != nil {
		t.Fatalf("get bank after ttl: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected reload after ttl, loader calls %d", loader.calls)
	}

	if err := cache.Invalidate(context.Background(), "general"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := cache.GetBank(context.Background(), "general"); err != nil {
		t.Fatalf("get bank after invalidate: %v", err)
	}
	if loader.calls != 3 {
		t.Fatalf("expected reload after invalidate, loader calls %d", loader.calls)
	}
}

func TestQuestionCacheMissingBank(t *testing.T) {
	cache := NewQuestionCache(NewStaticBankLoader(nil), time.Minute)
	if _, err := cache.GetBank(context.Background(), "nope"); !errors.Is(err, domain.ErrQuestionsNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

type countingLoader struct {
	BankLoader
	calls int
}

func (l *countingLoader) LoadBank(ctx context.Context, bankID string) (domain.QuestionBank, error) {
	l.calls++
	return l.BankLoader.LoadBank(ctx, bankID)
}

func sampleBank() domain.QuestionBank {
	return domain.QuestionBank{
		ID: "general",
		Questions: []domain.Question{
			{
				ID:     "q1",
				Prompt: "What is 2 + 2?",
				Options: []domain.AnswerOption{
					{Text: "3"},
					{Text: "4", Correct: true},
				},
			},
			{
				ID:     "q2",
				Prompt: "What colour is the sky?",
				Options: []domain.AnswerOption{
					{Text: "Blue", Correct: true},
					{Text: "Green"},
				},
			},
		},
	}
}
