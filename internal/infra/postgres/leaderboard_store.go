package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-bot/internal/domain"
)

// LeaderboardStore keeps lifetime scores in the leaderboard table, one row
// per participant. Writes run in a transaction.
type LeaderboardStore struct {
	pool *pgxpool.Pool
}

func NewLeaderboardStore(pool *pgxpool.Pool) *LeaderboardStore {
	return &LeaderboardStore{pool: pool}
}

func (s *LeaderboardStore) Load(ctx context.Context) (domain.Leaderboard, error) {
	return load(ctx, s.pool)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

func load(ctx context.Context, q querier) (domain.Leaderboard, error) {
	rows, err := q.Query(ctx, `SELECT participant_id, points FROM leaderboard`)
	if err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}
	defer rows.Close()

	lb := domain.Leaderboard{}
	for rows.Next() {
		var (
			id     string
			points int64
		)
		if err := rows.Scan(&id, &points); err != nil {
			return nil, fmt.Errorf("scan leaderboard: %w", err)
		}
		if points < 0 {
			return nil, fmt.Errorf("%w: %q has score %d", domain.ErrMalformedLeaderboard, id, points)
		}
		lb[id] = int(points)
	}
	return lb, rows.Err()
}

func (s *LeaderboardStore) Save(ctx context.Context, lb domain.Leaderboard) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM leaderboard`); err != nil {
			return err
		}
		for id, pts := range lb {
			if _, err := tx.Exec(ctx,
				`INSERT INTO leaderboard (participant_id, points) VALUES ($1, $2)`, id, pts); err != nil {
				return err
			}
		}
		return nil
	})
}

// Increment applies a round merge as upserts and returns the new totals.
func (s *LeaderboardStore) Increment(ctx context.Context, deltas map[string]int) (domain.Leaderboard, error) {
	var lb domain.Leaderboard
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		for id, pts := range deltas {
			if _, err := tx.Exec(ctx, `
				INSERT INTO leaderboard (participant_id, points) VALUES ($1, $2)
				ON CONFLICT (participant_id)
				DO UPDATE SET points = leaderboard.points + EXCLUDED.points, updated_at = now()`, id, pts); err != nil {
				return err
			}
		}
		var err error
		lb, err = load(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return lb, nil
}

func (s *LeaderboardStore) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := fn(tx); err != nil {
		return fmt.Errorf("write leaderboard: %w", err)
	}
	return tx.Commit(ctx)
}
