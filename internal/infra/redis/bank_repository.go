package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"trivia-bot/internal/bank"
	"trivia-bot/internal/domain"
)

// BankLoader fetches question records from a backing store (file, Postgres).
type BankLoader interface {
	LoadBank(ctx context.Context, source string) ([]domain.Question, error)
}

// BankRepository caches question banks in Redis and falls back to a loader on
// cache miss. Questions are stored as a JSON array:
//
//	SET bank:{source} [{"question": ..., "answer": ...}, ...]
type BankRepository struct {
	client *redis.Client
	loader BankLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewBankRepository(client *redis.Client, loader BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *BankRepository) GetBank(ctx context.Context, source string) (*bank.Bank, error) {
	key := r.key(source)
	if b, ok := r.cached(ctx, key); ok {
		return b, nil
	}

	result, err, _ := r.sf.Do(source, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if b, ok := r.cached(ctx, key); ok {
			return b, nil
		}

		questions, err := r.loader.LoadBank(ctx, source)
		if err != nil {
			return nil, err
		}
		if payload, err := json.Marshal(questions); err == nil {
			// best-effort fill; a Redis outage only costs a reload
			_ = r.client.Set(ctx, key, payload, r.ttlWithJitter()).Err()
		}
		return bank.New(questions), nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*bank.Bank), nil
}

func (r *BankRepository) cached(ctx context.Context, key string) (*bank.Bank, bool) {
	payload, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(payload, &questions); err != nil || len(questions) == 0 {
		return nil, false
	}
	return bank.New(questions), true
}

// Invalidate drops the cached copy of source.
func (r *BankRepository) Invalidate(ctx context.Context, source string) error {
	return r.client.Del(ctx, r.key(source)).Err()
}

func (r *BankRepository) key(source string) string {
	return "bank:" + source
}

func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
