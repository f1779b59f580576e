package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"trivia-bot/internal/bank"
	"trivia-bot/internal/domain"
)

// BankLoader fetches question records from a backing source (file, database).
type BankLoader interface {
	LoadBank(ctx context.Context, source string) ([]domain.Question, error)
}

// BankRepository caches loaded banks so every channel sharing a source reads
// it once. A non-positive ttl keeps banks for the life of the process.
type BankRepository struct {
	loader BankLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedBank
}

type cachedBank struct {
	bank      *bank.Bank
	expiresAt time.Time
}

func NewBankRepository(loader BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedBank),
	}
}

func (r *BankRepository) GetBank(ctx context.Context, source string) (*bank.Bank, error) {
	if b, ok := r.cached(source); ok {
		return b, nil
	}

	result, err, _ := r.sf.Do(source, func() (interface{}, error) {
		if b, ok := r.cached(source); ok {
			return b, nil
		}

		questions, err := r.loader.LoadBank(ctx, source)
		if err != nil {
			return nil, err
		}
		b := bank.New(questions)

		entry := cachedBank{bank: b}
		if r.ttl > 0 {
			entry.expiresAt = r.clock().Add(r.ttlWithJitter())
		}
		r.mu.Lock()
		r.cache[source] = entry
		r.mu.Unlock()
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*bank.Bank), nil
}

func (r *BankRepository) cached(source string) (*bank.Bank, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[source]
	if !ok {
		return nil, false
	}
	if !entry.expiresAt.IsZero() && !entry.expiresAt.After(r.clock()) {
		return nil, false
	}
	return entry.bank, true
}

// StaticBankLoader serves banks from an in-memory map (tests/demos).
type StaticBankLoader struct {
	banks map[string][]domain.Question
}

func NewStaticBankLoader(banks map[string][]domain.Question) *StaticBankLoader {
	return &StaticBankLoader{banks: banks}
}

func (l *StaticBankLoader) LoadBank(_ context.Context, source string) ([]domain.Question, error) {
	if qs, ok := l.banks[source]; ok {
		return qs, nil
	}
	return nil, domain.ErrBankNotFound
}

func (r *BankRepository) ttlWithJitter() time.Duration {
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
