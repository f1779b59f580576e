package memory

import (
	"context"
	"sync"

	"trivia-bot/internal/domain"
)

// LeaderboardStore is an in-process ledger.Store, used when no persistent
// backend is configured and in tests.
type LeaderboardStore struct {
	mu    sync.RWMutex
	board domain.Leaderboard
	saves int
}

func NewLeaderboardStore(initial domain.Leaderboard) *LeaderboardStore {
	if initial == nil {
		initial = domain.Leaderboard{}
	}
	return &LeaderboardStore{board: initial.Clone()}
}

func (s *LeaderboardStore) Load(_ context.Context) (domain.Leaderboard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.board.Clone(), nil
}

func (s *LeaderboardStore) Save(_ context.Context, lb domain.Leaderboard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.board = lb.Clone()
	s.saves++
	return nil
}

// Saves reports how many snapshots have been written.
func (s *LeaderboardStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
