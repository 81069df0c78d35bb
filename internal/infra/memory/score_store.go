package memory

import (
	"context"
	"sync"

	"phone-trivia/internal/domain"
)

// ScoreStore keeps lifetime scores in a map. Nothing survives the process.
type ScoreStore struct {
	mu     sync.RWMutex
	scores map[string]int
}

func NewScoreStore() *ScoreStore {
	return &ScoreStore{scores: make(map[string]int)}
}

func (s *ScoreStore) GetScore(_ context.Context, participantID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	score, ok := s.scores[participantID]
	if !ok {
		return 0, domain.ErrScoreNotFound
	}
	return score, nil
}

func (s *ScoreStore) SetScore(_ context.Context, participantID string, score int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores[participantID] = score
	return nil
}
