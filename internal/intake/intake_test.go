package intake

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trivia-bot/internal/domain"
)

type fakeGame struct {
	mu        sync.Mutex
	channel   string
	accepting bool
	enrolled  map[string]bool
	startErr  error
	endErr    error
	submitted []domain.Submission
	started   [][]domain.Participant
	calls     []string
}

func newFakeGame() *fakeGame {
	return &fakeGame{channel: "trivia", accepting: true, enrolled: map[string]bool{}}
}

func (g *fakeGame) record(call string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, call)
}

func (g *fakeGame) IsGameChannel(id string) bool { return id == g.channel }
func (g *fakeGame) Accepting(string) bool        { return g.accepting }

func (g *fakeGame) Enrolled(_ string, id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.enrolled[id]
}

func (g *fakeGame) Enroll(_ string, p domain.Participant) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.enrolled[p.ID] = true
	return nil
}

func (g *fakeGame) SubmitAnswer(_ context.Context, _ string, sub domain.Submission) domain.AnswerResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.submitted = append(g.submitted, sub)
	return domain.AnswerResult{Outcome: domain.OutcomeRejected}
}

func (g *fakeGame) StartRound(_ context.Context, _ string, ps ...domain.Participant) (domain.RoundSnapshot, error) {
	g.record("start")
	g.started = append(g.started, ps)
	return domain.RoundSnapshot{}, g.startErr
}

func (g *fakeGame) EndRound(context.Context, string) error {
	g.record("end")
	return g.endErr
}

func (g *fakeGame) ShowLeaderboard(context.Context, string) error {
	g.record("leaderboard")
	return nil
}

func (g *fakeGame) Join(_ context.Context, _ string, p domain.Participant) error {
	g.record("join:" + p.ID)
	return nil
}

func (g *fakeGame) Leave(_ context.Context, _ string, p domain.Participant) error {
	g.record("leave:" + p.ID)
	return nil
}

func (g *fakeGame) Snapshot(string) (domain.RoundSnapshot, error) {
	g.record("status")
	return domain.RoundSnapshot{Status: domain.StatusAccepting, QuestionIndex: 1, QuestionCount: 3, Scores: map[string]int{"u1": 15}}, nil
}

type notices struct {
	mu   sync.Mutex
	msgs []string
}

func (n *notices) Announce(_ context.Context, _ string, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, text)
	return nil
}

func message(author, text string) domain.Message {
	return domain.Message{ChannelID: "trivia", AuthorID: author, AuthorName: "Name-" + author, Text: text}
}

func TestFilterOrder(t *testing.T) {
	ctx := context.Background()
	game := newFakeGame()
	in := New(game, &notices{}, Options{BotID: "bot"})

	assert.Equal(t, DropSelf, in.Handle(ctx, message("bot", "paris")).Decision)

	other := message("u1", "paris")
	other.AuthorBot = true
	assert.Equal(t, DropSelf, in.Handle(ctx, other).Decision)

	wrong := message("u1", "paris")
	wrong.ChannelID = "general"
	assert.Equal(t, DropChannel, in.Handle(ctx, wrong).Decision)

	game.accepting = false
	assert.Equal(t, DropNotAccepting, in.Handle(ctx, message("u1", "paris")).Decision)
	assert.Empty(t, game.submitted)
}

func TestOpenModeAutoEnrolls(t *testing.T) {
	game := newFakeGame()
	in := New(game, &notices{}, Options{})

	res := in.Handle(context.Background(), message("u1", "  <b>Paris</b> "))
	require.Equal(t, DecisionSubmitted, res.Decision)
	require.NotNil(t, res.Answer)
	assert.True(t, game.enrolled["u1"])
	require.Len(t, game.submitted, 1)
	assert.Equal(t, "Paris", game.submitted[0].Text)
	assert.Equal(t, "Name-u1", game.submitted[0].Name)
}

func TestInviteModeDropsStrangers(t *testing.T) {
	game := newFakeGame()
	in := New(game, &notices{}, Options{Enrollment: EnrollInvite})

	assert.Equal(t, DropNotEnrolled, in.Handle(context.Background(), message("u1", "paris")).Decision)
	assert.False(t, game.enrolled["u1"])

	game.enrolled["u2"] = true
	assert.Equal(t, DecisionSubmitted, in.Handle(context.Background(), message("u2", "paris")).Decision)
}

func TestRateLimitPerSender(t *testing.T) {
	game := newFakeGame()
	now := time.Date(2024, 11, 22, 20, 0, 0, 0, time.UTC)
	in := New(game, &notices{}, Options{Limiter: NewSenderLimiter(1, 2), Now: func() time.Time { return now }})
	ctx := context.Background()

	assert.Equal(t, DecisionSubmitted, in.Handle(ctx, message("u1", "a")).Decision)
	assert.Equal(t, DecisionSubmitted, in.Handle(ctx, message("u1", "b")).Decision)
	assert.Equal(t, DropRateLimited, in.Handle(ctx, message("u1", "c")).Decision)
	assert.Equal(t, DecisionSubmitted, in.Handle(ctx, message("u2", "a")).Decision)

	now = now.Add(time.Second)
	assert.Equal(t, DecisionSubmitted, in.Handle(ctx, message("u1", "d")).Decision)
}

func TestCommandsDispatch(t *testing.T) {
	ctx := context.Background()
	game := newFakeGame()
	game.accepting = false
	n := &notices{}
	in := New(game, n, Options{})

	for _, text := range []string{"!startquiz", "!endquiz", "!leaderboard", "!JoinQuiz", "!leavequiz now", "!status"} {
		assert.Equal(t, DecisionCommand, in.Handle(ctx, message("u1", text)).Decision, text)
	}
	assert.Equal(t, []string{"start", "end", "leaderboard", "join:u1", "leave:u1", "status"}, game.calls)
	require.Len(t, game.started, 1)
	assert.Equal(t, []domain.Participant{{ID: "u1", Name: "Name-u1"}}, game.started[0])
	assert.Equal(t, []string{"📊 Question 2/3 is open, 1 players in the round."}, n.msgs)

	assert.Equal(t, DecisionUnknownCmd, in.Handle(ctx, message("u1", "!dance")).Decision)
}

func TestCommandNotices(t *testing.T) {
	ctx := context.Background()
	game := newFakeGame()
	game.startErr = domain.ErrAlreadyRunning
	game.endErr = domain.ErrNotRunning
	n := &notices{}
	in := New(game, n, Options{})

	in.Handle(ctx, message("u1", "!startquiz"))
	in.Handle(ctx, message("u1", "!endquiz"))
	game.startErr = domain.ErrNoParticipants
	in.Handle(ctx, message("u1", "!startquiz"))

	assert.Equal(t, []string{
		"A quiz is already running!",
		"No quiz is running.",
		"No players have joined yet! Use `!joinquiz` to join.",
	}, n.msgs)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "Tom & Jerry", Sanitize("<i>Tom &amp; Jerry</i>"))
	assert.Equal(t, "paris", Sanitize("pa\x00ris"))
	assert.Equal(t, "", Sanitize("<script>alert(1)</script>"))
	assert.Len(t, Sanitize(strings.Repeat("a", 500)), maxAnswerLen)
}
