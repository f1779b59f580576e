package memory

import (
	"sort"
	"sync"

	"trivia-bot/internal/app"
)

// ChannelStore is an in-memory implementation of app.ChannelRepository.
type ChannelStore struct {
	mu       sync.RWMutex
	channels map[string]*app.Controller
}

func NewChannelStore() *ChannelStore {
	return &ChannelStore{
		channels: make(map[string]*app.Controller),
	}
}

// Register adds c, replacing any controller already serving its channel.
func (s *ChannelStore) Register(c *app.Controller) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels[c.ChannelID()] = c
}

func (s *ChannelStore) Get(channelID string) (*app.Controller, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.channels[channelID]
	return c, ok
}

// All returns the controllers ordered by channel id.
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
