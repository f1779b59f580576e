package memory

import (
	"context"
	"testing"

	"trivia-bot/internal/app"
	"trivia-bot/internal/bank"
	"trivia-bot/internal/ledger"
)

type nopAnnouncer struct{}

func (nopAnnouncer) Announce(context.Context, string, string) error { return nil }

func TestChannelStoreLifecycle(t *testing.T) {
	store := NewChannelStore()
	l := ledger.New(NewLeaderboardStore(nil), nil)

	for _, id := range []string{"music", "general"} {
		c, err := app.NewController(id, bank.New(sampleQuestions()), l, nopAnnouncer{}, app.DefaultSettings())
		if err != nil {
			t.Fatalf("new controller: %v", err)
		}
		store.Register(c)
	}

	if _, ok := store.Get("general"); !ok {
		t.Fatalf("expected controller registered")
	}
	if _, ok := store.Get("random"); ok {
		t.Fatalf("unexpected controller for unknown channel")
	}
	all := store.All()
	if len(all) != 2 || all[0].ChannelID() != "general" || all[1].ChannelID() != "music" {
		t.Fatalf("expected controllers ordered by channel, got %d", len(all))
	}
}
