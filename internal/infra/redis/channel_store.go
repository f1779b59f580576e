package redis

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"trivia-bot/internal/app"
)

// ChannelStore is a Redis-aware implementation of app.ChannelRepository.
// Controllers live in a local map; Redis only carries a liveness marker per
// channel so operators and other instances can see which channels are served.
type ChannelStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	channels map[string]*app.Controller
}

func NewChannelStore(client *redis.Client, ttl time.Duration) *ChannelStore {
	return &ChannelStore{
		client:   client,
		ttl:      ttl,
		channels: make(map[string]*app.Controller),
	}
}

func (s *ChannelStore) Register(c *app.Controller) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels[c.ChannelID()] = c
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(c.ChannelID()), "1", s.ttl).Err()
}

func (s *ChannelStore) Get(channelID string) (*app.Controller, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.channels[channelID]
	return c, ok
}

func (s *ChannelStore) All() []*app.Controller {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*app.Controller, 0, len(s.channels))
	for _, c := range s.channels {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChannelID() < out[j].ChannelID() })
	return out
}

// Release removes every liveness marker owned by this store.
func (s *ChannelStore) Release(ctx context.Context) error {
	s.mu.RLock()
	keys := make([]string, 0, len(s.channels))
	for id := range s.channels {
		keys = append(keys, s.key(id))
	}
	s.mu.RUnlock()
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

func (s *ChannelStore) key(channelID string) string {
	return "trivia:channel:" + channelID
}
