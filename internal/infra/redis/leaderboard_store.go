package redis

import (
	"context"
	"fmt"
	"math"

	"github.com/redis/go-redis/v9"

	"trivia-bot/internal/domain"
)

// LeaderboardStore keeps lifetime scores in a sorted set:
//
//	ZADD {key} {points} {participantID}
//
// Save and Increment run inside MULTI/EXEC, so a concurrent reader never
// sees a partly written snapshot.
type LeaderboardStore struct {
	client *redis.Client
	key    string
}

func NewLeaderboardStore(client *redis.Client, key string) *LeaderboardStore {
	return &LeaderboardStore{client: client, key: key}
}

func (s *LeaderboardStore) Load(ctx context.Context) (domain.Leaderboard, error) {
	members, err := s.client.ZRangeWithScores(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}
	lb := make(domain.Leaderboard, len(members))
	for _, m := range members {
		id, ok := m.Member.(string)
		if !ok || m.Score < 0 || m.Score != math.Trunc(m.Score) {
			return nil, fmt.Errorf("%w: member %v has score %v", domain.ErrMalformedLeaderboard, m.Member, m.Score)
		}
		lb[id] = int(m.Score)
	}
	return lb, nil
}

func (s *LeaderboardStore) Save(ctx context.Context, lb domain.Leaderboard) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		if len(lb) > 0 {
			pipe.ZAdd(ctx, s.key, members(lb)...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write leaderboard: %w", err)
	}
	return nil
}

// Increment applies a round merge with ZINCRBY, zero deltas included so new
// participants appear in the set.
func (s *LeaderboardStore) Increment(ctx context.Context, deltas map[string]int) (domain.Leaderboard, error) {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for id, pts := range deltas {
			pipe.ZIncrBy(ctx, s.key, float64(pts), id)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("increment leaderboard: %w", err)
	}
	return s.Load(ctx)
}

func members(lb domain.Leaderboard) []redis.Z {
	out := make([]redis.Z, 0, len(lb))
	for id, pts := range lb {
		out = append(out, redis.Z{Score: float64(pts), Member: id})
	}
	return out
}
