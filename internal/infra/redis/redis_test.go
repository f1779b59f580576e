package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"trivia-bot/internal/app"
	"trivia-bot/internal/bank"
	"trivia-bot/internal/domain"
	"trivia-bot/internal/infra/memory"
	"trivia-bot/internal/ledger"
)

func TestBankRepositoryCachesInRedis(t *testing.T) {
	mr := runMiniredis(t)
	client := newClient(mr)

	loader := &countingLoader{
		BankLoader: memory.NewStaticBankLoader(map[string][]domain.Question{
			"general": sampleQuestions(),
		}),
	}
	repo := NewBankRepository(client, loader, time.Minute)

	b, err := repo.GetBank(context.Background(), "general")
	if err != nil {
		t.Fatalf("get bank: %v", err)
	}
	if b.Len() != 2 {
		t.Fatalf("expected 2 questions, got %d", b.Len())
	}
	if loader.count() != 1 {
		t.Fatalf("expected loader called once, got %d", loader.count())
	}
	if !mr.Exists("bank:general") {
		t.Fatalf("expected bank cached in redis")
	}
	if ttl := mr.TTL("bank:general"); ttl < time.Minute || ttl > time.Minute+6*time.Second {
		t.Fatalf("unexpected ttl %v", ttl)
	}

	// Second call should hit cache, loader not incremented.
	b, _ = repo.GetBank(context.Background(), "general")
	if loader.count() != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.count())
	}
	if qs := b.Questions(); qs[0].Answer != "Paris" || qs[1].Category != "Math" {
		t.Fatalf("cached questions lost fields: %+v", qs)
	}

	if err := repo.Invalidate(context.Background(), "general"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	_, _ = repo.GetBank(context.Background(), "general")
	if loader.count() != 2 {
		t.Fatalf("expected reload after invalidate, loader calls=%d", loader.count())
	}
}

func TestBankRepositoryPropagatesLoaderError(t *testing.T) {
	mr := runMiniredis(t)
	repo := NewBankRepository(newClient(mr), memory.NewStaticBankLoader(nil), time.Minute)
	if _, err := repo.GetBank(context.Background(), "missing"); !errors.Is(err, domain.ErrBankNotFound) {
		t.Fatalf("expected ErrBankNotFound, got %v", err)
	}
}

func TestLeaderboardStoreRoundTrip(t *testing.T) {
	mr := runMiniredis(t)
	store := NewLeaderboardStore(newClient(mr), "leaderboard:lifetime")
	ctx := context.Background()

	lb, err := store.Load(ctx)
	if err != nil || len(lb) != 0 {
		t.Fatalf("expected empty leaderboard, got %v %v", lb, err)
	}

	want := domain.Leaderboard{"u1": 45, "u2": 0, "u3": 10}
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 3 || got["u1"] != 45 || got["u2"] != 0 || got["u3"] != 10 {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	if err := store.Save(ctx, domain.Leaderboard{"u9": 1}); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, _ = store.Load(ctx)
	if len(got) != 1 || got["u9"] != 1 {
		t.Fatalf("save must replace the snapshot, got %+v", got)
	}
}

func TestLeaderboardStoreRejectsMalformedScores(t *testing.T) {
	mr := runMiniredis(t)
	if _, err := mr.ZAdd("leaderboard:lifetime", -3, "u1"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	store := NewLeaderboardStore(newClient(mr), "leaderboard:lifetime")
	if _, err := store.Load(context.Background()); !errors.Is(err, domain.ErrMalformedLeaderboard) {
		t.Fatalf("expected ErrMalformedLeaderboard, got %v", err)
	}
}

func TestLedgerMergesThroughRedis(t *testing.T) {
	mr := runMiniredis(t)
	store := NewLeaderboardStore(newClient(mr), "leaderboard:lifetime")
	l := ledger.New(store, nil)
	ctx := context.Background()
	if err := store.Save(ctx, domain.Leaderboard{"u1": 5}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			round := ledger.NewRoundScores()
			round.Add("u1", 15)
			round.Enroll(domain.Participant{ID: "u2", Name: "Bob"})
			if _, err := l.Merge(ctx, round); err != nil {
				t.Errorf("merge: %v", err)
			}
		}()
	}
	wg.Wait()

	lb, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if lb["u1"] != 155 {
		t.Fatalf("expected 155, got %d", lb["u1"])
	}
	if _, ok := lb["u2"]; !ok {
		t.Fatalf("zero-point participant must be present")
	}
}

func TestChannelStoreSetsAndClearsKeys(t *testing.T) {
	mr := runMiniredis(t)
	store := NewChannelStore(newClient(mr), time.Minute)

	ctrl, err := app.NewController("trivia", bank.New(sampleQuestions()), ledger.New(memory.NewLeaderboardStore(nil), nil), nopAnnouncer{}, app.DefaultSettings())
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	store.Register(ctrl)
	if !mr.Exists("trivia:channel:trivia") {
		t.Fatalf("expected redis key to be set")
	}
	if got, ok := store.Get("trivia"); !ok || got != ctrl {
		t.Fatalf("expected registered controller")
	}

	if err := store.Release(context.Background()); err != nil {
		t.Fatalf("release: %v", err)
	}
	if mr.Exists("trivia:channel:trivia") {
		t.Fatalf("expected redis key to be removed")
	}
}

type nopAnnouncer struct{}

func (nopAnnouncer) Announce(context.Context, string, string) error { return nil }

type countingLoader struct {
	BankLoader
	mu    sync.Mutex
	calls int
}

func (l *countingLoader) LoadBank(ctx context.Context, source string) ([]domain.Question, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return l.BankLoader.LoadBank(ctx, source)
}

func (l *countingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{Prompt: "What is the capital of France?", Answer: "Paris"},
		{Prompt: "What is 2 + 2?", Answer: "4", Category: "Math"},
	}
}

func runMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return mr
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
