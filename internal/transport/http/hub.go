package http

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event is an outbound announcement for one game channel.
type Event struct {
	ChannelID string    `json:"channelId"`
	Text      string    `json:"text"`
	At        time.Time `json:"at"`
}

// Hub fans announcements out to the websocket clients of each channel. It is
// the Announcer the game controllers write to.
type Hub struct {
	logger *zap.Logger
	now    func() time.Time

	mu   sync.RWMutex
	subs map[string]map[chan Event]struct{}
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger: logger,
		now:    time.Now,
		subs:   make(map[string]map[chan Event]struct{}),
	}
}

// Announce never blocks on slow clients: a full buffer loses its oldest event.
func (h *Hub) Announce(_ context.Context, channelID, text string) error {
	h.logger.Info("announce", zap.String("channel", channelID), zap.String("text", text))
	ev := Event{ChannelID: channelID, Text: text, At: h.now()}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[channelID] {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
	return nil
}

// Subscribe returns a channel of announcements for channelID.
// The caller must invoke the returned cancel function to avoid leaks.
func (h *Hub) Subscribe(channelID string) (<-chan Event, func()) {
	ch := make(chan Event, 16)

	h.mu.Lock()
	if h.subs[channelID] == nil {
		h.subs[channelID] = make(map[chan Event]struct{})
	}
	h.subs[channelID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[channelID][ch]; ok {
			delete(h.subs[channelID], ch)
			close(ch)
			if len(h.subs[channelID]) == 0 {
				delete(h.subs, channelID)
			}
		}
	}
	return ch, cancel
}

// Subscribers counts the listeners of channelID.
func (h *Hub) Subscribers(channelID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[channelID])
}
