package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"phone-trivia/internal/domain"
)

// BankLoader fetches question banks from a backing store (e.g., Postgres).
type BankLoader interface {
	LoadBank(ctx context.Context, bankID string) (domain.QuestionBank, error)
}

// QuestionCache caches whole question banks in Redis and falls back to a
// loader on cache miss. Banks are stored as JSON:
//
//	SET trivia:bank:{bankID} {json} EX ttl
type QuestionCache struct {
	client *redis.Client
	loader BankLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuestionCache(client *redis.Client, loader BankLoader, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionCache) GetBank(ctx context.Context, bankID string) (domain.QuestionBank, error) {
	if bank, ok := r.cached(ctx, bankID); ok {
		return bank, nil
	}

	result, err, _ := r.sf.Do(bankID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if bank, ok := r.cached(ctx, bankID); ok {
			return bank, nil
		}

		bank, err := r.loader.LoadBank(ctx, bankID)
		if err != nil {
			return domain.QuestionBank{}, err
		}
		data, err := json.Marshal(bank)
		if err != nil {
			return domain.QuestionBank{}, err
		}
		// best-effort; a failed write only costs another load
		_ = r.client.Set(ctx, r.key(bankID), data, r.ttlWithJitter()).Err()
		return bank, nil
	})
	if err != nil {
		return domain.QuestionBank{}, err
	}
	return result.(domain.QuestionBank), nil
}

func (r *QuestionCache) Invalidate(ctx context.Context, bankID string) error {
	return r.client.Del(ctx, r.key(bankID)).Err()
}

func (r *QuestionCache) cached(ctx context.Context, bankID string) (domain.QuestionBank, bool) {
	data, err := r.client.Get(ctx, r.key(bankID)).Bytes()
	if err != nil {
		return domain.QuestionBank{}, false
	}
	var bank domain.QuestionBank
	if err := json.Unmarshal(data, &bank); err != nil || len(bank.Questions) == 0 {
		return domain.QuestionBank{}, false
	}
	return bank, true
}

func (r *QuestionCache) key(bankID string) string {
	return "trivia:bank:" + bankID
}

func (r *QuestionCache) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

func isNil(err error) bool {
	return errors.Is(err, redis.Nil)
}
