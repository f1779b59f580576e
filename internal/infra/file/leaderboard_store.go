// Package file persists the leaderboard as a JSON document on local disk.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/renameio/v2"

	"trivia-bot/internal/domain"
)

// LeaderboardStore keeps the lifetime scores in a single JSON object mapping
// participant id to points. Writes go to a temporary file that is renamed over
// the target, so readers see either the old or the new snapshot.
type LeaderboardStore struct {
	path string
	mu   sync.RWMutex
}

func NewLeaderboardStore(path string) *LeaderboardStore {
	return &LeaderboardStore{path: path}
}

func (s *LeaderboardStore) Load(_ context.Context) (domain.Leaderboard, error) {
	s.mu.RLock()
	data, err := os.ReadFile(s.path)
	s.mu.RUnlock()
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Leaderboard{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}
	return Decode(data)
}

func (s *LeaderboardStore) Save(_ context.Context, lb domain.Leaderboard) error {
	data, err := json.MarshalIndent(lb, "", "  ")
	if err != nil {
		return fmt.Errorf("encode leaderboard: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create leaderboard dir: %w", err)
		}
	}
	if err := renameio.WriteFile(s.path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write leaderboard: %w", err)
	}
	return nil
}

// Decode validates a snapshot: a flat JSON object whose values are
// non-negative integers. Anything else is ErrMalformedLeaderboard.
func Decode(data []byte) (domain.Leaderboard, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return domain.Leaderboard{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedLeaderboard, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: not an object", domain.ErrMalformedLeaderboard)
	}

	lb := make(domain.Leaderboard, len(raw))
	for id, v := range raw {
		num, ok := v.(json.Number)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not a number", domain.ErrMalformedLeaderboard, id)
		}
		n, err := num.Int64()
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: %q has invalid score %s", domain.ErrMalformedLeaderboard, id, num)
		}
		lb[id] = int(n)
	}
	return lb, nil
}
