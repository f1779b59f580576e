package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"trivia-bot/internal/bank"
	"trivia-bot/internal/config"
	"trivia-bot/internal/infra/file"
	"trivia-bot/internal/infra/memory"
	pgstore "trivia-bot/internal/infra/postgres"
	redisstore "trivia-bot/internal/infra/redis"
	"trivia-bot/internal/ledger"
)

// backends holds the optional external connections named in the config.
type backends struct {
	redis *redis.Client
	pool  *pgxpool.Pool
}

func openBackends(ctx context.Context, cfg config.Config) (*backends, error) {
	b := &backends{}
	if cfg.Redis.Addr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.pool = pool
	}
	return b, nil
}

func (b *backends) Close() {
	if b.redis != nil {
		_ = b.redis.Close()
	}
	if b.pool != nil {
		b.pool.Close()
	}
}

func (b *backends) leaderboardStore(cfg config.Config) (ledger.Store, error) {
	switch cfg.Leaderboard.Backend {
	case "file":
		return file.NewLeaderboardStore(cfg.Leaderboard.Path), nil
	case "memory":
		return memory.NewLeaderboardStore(nil), nil
	case "redis":
		if b.redis == nil {
			return nil, fmt.Errorf("leaderboard backend redis: redis.addr not configured")
		}
		return redisstore.NewLeaderboardStore(b.redis, cfg.Leaderboard.Key), nil
	case "postgres":
		if b.pool == nil {
			return nil, fmt.Errorf("leaderboard backend postgres: postgres.url not configured")
		}
		return pgstore.NewLeaderboardStore(b.pool), nil
	default:
		return nil, fmt.Errorf("unknown leaderboard backend %q", cfg.Leaderboard.Backend)
	}
}

type bankRepository interface {
	GetBank(ctx context.Context, source string) (*bank.Bank, error)
}

// loadBank resolves the configured bank: a Postgres bank when bank.source is
// set, the bank.path file otherwise. Redis, when present, caches it.
func (b *backends) loadBank(ctx context.Context, cfg config.Config) (*bank.Bank, error) {
	var (
		loader memory.BankLoader = bank.FileLoader{}
		source                   = cfg.Bank.Path
	)
	if cfg.Bank.Source != "" {
		if b.pool == nil {
			return nil, fmt.Errorf("bank.source requires postgres.url")
		}
		loader = pgstore.NewBankLoader(b.pool)
		source = cfg.Bank.Source
	}

	ttl := config.TTLDuration(cfg.Bank.TTL, 0)
	var repo bankRepository
	if b.redis != nil {
		repo = redisstore.NewBankRepository(b.redis, loader, config.TTLDuration(cfg.Bank.TTL, 10*time.Minute))
	} else {
		repo = memory.NewBankRepository(loader, ttl)
	}

	qbank, err := repo.GetBank(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("load question bank %s: %w", source, err)
	}
	if qbank.Len() == 0 {
		return nil, fmt.Errorf("question bank %s has no questions", source)
	}
	return qbank, nil
}
