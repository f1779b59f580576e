// Package ledger keeps per-round scores and merges them into the persistent
// cumulative leaderboard.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"trivia-bot/internal/domain"
)

// Store persists the cumulative leaderboard snapshot.
// Save must be atomic from the point of view of a concurrent Load.
type Store interface {
	Load(ctx context.Context) (domain.Leaderboard, error)
	Save(ctx context.Context, lb domain.Leaderboard) error
}

// Incrementer is implemented by stores that can apply a merge atomically on
// their side (Redis MULTI, SQL transaction). The returned leaderboard is the
// state after the merge.
type Incrementer interface {
	Increment(ctx context.Context, deltas map[string]int) (domain.Leaderboard, error)
}

// Ledger serialises merges into a Store. One Ledger is shared by every
// channel writing to the same store.
type Ledger struct {
	store  Store
	logger *zap.Logger

	mu    sync.Mutex
	names map[string]string
}

func New(store Store, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{store: store, logger: logger, names: make(map[string]string)}
}

// Load returns the current leaderboard. A malformed snapshot is reset to an
// empty leaderboard after a warning.
func (l *Ledger) Load(ctx context.Context) (domain.Leaderboard, error) {
	lb, err := l.store.Load(ctx)
	if errors.Is(err, domain.ErrMalformedLeaderboard) {
		l.logger.Warn("leaderboard snapshot is malformed, starting from empty", zap.Error(err))
		return domain.Leaderboard{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}
	if lb == nil {
		lb = domain.Leaderboard{}
	}
	return lb, nil
}

// Merge adds every round score, zeros included, to the lifetime totals and
// persists the result.
func (l *Ledger) Merge(ctx context.Context, scores *RoundScores) (domain.Leaderboard, error) {
	deltas := scores.Snapshot()
	for id, pts := range deltas {
		if pts < 0 {
			delete(deltas, id)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for id, name := range scores.Names() {
		l.names[id] = name
	}

	if inc, ok := l.store.(Incrementer); ok {
		lb, err := inc.Increment(ctx, deltas)
		if err != nil {
			return nil, fmt.Errorf("merge round scores: %w", err)
		}
		return lb, nil
	}

	lb, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}
	for id, pts := range deltas {
		lb[id] += pts
	}
	if err := l.store.Save(ctx, lb); err != nil {
		return nil, fmt.Errorf("save leaderboard: %w", err)
	}
	return lb, nil
}

// Remember records a display name for rendering standings.
func (l *Ledger) Remember(p domain.Participant) {
	if p.ID == "" || p.Name == "" {
		return
	}
	l.mu.Lock()
	l.names[p.ID] = p.Name
	l.mu.Unlock()
}

// Standings ranks the persisted leaderboard.
func (l *Ledger) Standings(ctx context.Context) ([]domain.Standing, error) {
	lb, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}
	return l.Rank(lb), nil
}

// Rank orders lb using the names this ledger has seen.
func (l *Ledger) Rank(lb domain.Leaderboard) []domain.Standing {
	l.mu.Lock()
	names := make(map[string]string, len(l.names))
	for k, v := range l.names {
		names[k] = v
	}
	l.mu.Unlock()
	return domain.Rank(lb, names)
}
