package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"phone-trivia/internal/domain"
)

// BankLoader fetches question banks from a backing store (e.g., Postgres).
type BankLoader interface {
	LoadBank(ctx context.Context, bankID string) (domain.QuestionBank, error)
}

// QuestionCache caches question banks with TTL to avoid repeated DB hits.
type QuestionCache struct {
	loader BankLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedBank
}

type cachedBank struct {
	bank      domain.QuestionBank
	expiresAt time.Time
}

func NewQuestionCache(loader BankLoader, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedBank),
	}
}

func (r *QuestionCache) GetBank(ctx context.Context, bankID string) (domain.QuestionBank, error) {
	if bank, ok := r.lookup(bankID); ok {
		return bank, nil
	}

	result, err, _ := r.sf.Do(bankID, func() (interface{}, error) {
		if bank, ok := r.lookup(bankID); ok {
			return bank, nil
		}
		bank, err := r.loader.LoadBank(ctx, bankID)
		if err != nil {
			return domain.QuestionBank{}, err
		}

		r.mu.Lock()
		r.cache[bankID] = cachedBank{
			bank:      bank,
			expiresAt: r.clock().Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return bank, nil
	})
	if err != nil {
		return domain.QuestionBank{}, err
	}
	return result.(domain.QuestionBank), nil
}

// Invalidate drops a cached bank so the next read goes to the loader.
func (r *QuestionCache) Invalidate(_ context.Context, bankID string) error {
	r.mu.Lock()
	delete(r.cache, bankID)
	r.mu.Unlock()
	return nil
}

func (r *QuestionCache) lookup(bankID string) (domain.QuestionBank, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[bankID]
	if !ok || !entry.expiresAt.After(r.clock()) {
		return domain.QuestionBank{}, false
	}
	return entry.bank, true
}

func (r *QuestionCache) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// up to 10% jitter spreads expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticBankLoader serves banks from a map (tests, demos, offline clients).
type StaticBankLoader struct {
	banks map[string]domain.QuestionBank
}

func NewStaticBankLoader(banks map[string]domain.QuestionBank) *StaticBankLoader {
	return &StaticBankLoader{banks: banks}
}

func (l *StaticBankLoader) LoadBank(_ context.Context, bankID string) (domain.QuestionBank, error) {
	if bank, ok := l.banks[bankID]; ok {
		return bank, nil
	}
	return domain.QuestionBank{}, domain.ErrQuestionsNotFound
}
