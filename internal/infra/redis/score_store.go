package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"phone-trivia/internal/domain"
)

// ScoreStore keeps lifetime scores in one hash:
//
//	HSET trivia:scores {participantID} {score}
type ScoreStore struct {
	client *redis.Client
	key    string
}

func NewScoreStore(client *redis.Client) *ScoreStore {
	return &ScoreStore{client: client, key: "trivia:scores"}
}

func (s *ScoreStore) GetScore(ctx context.Context, participantID string) (int, error) {
	score, err := s.client.HGet(ctx, s.key, participantID).Int()
	if isNil(err) {
		return 0, domain.ErrScoreNotFound
	}
	if err != nil {
		return 0, err
	}
	return score, nil
}

func (s *ScoreStore) SetScore(ctx context.Context, participantID string, score int) error {
	return s.client.HSet(ctx, s.key, participantID, score).Err()
}
