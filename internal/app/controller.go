package app

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"trivia-bot/internal/bank"
	"trivia-bot/internal/domain"
	"trivia-bot/internal/fuzzy"
	"trivia-bot/internal/ledger"
	"trivia-bot/internal/metrics"
)

// Announcer delivers human-readable output to a channel. Delivery failures
// are logged by the caller and never abort a round.
type Announcer interface {
	Announce(ctx context.Context, channelID, text string) error
}

// Round is the state of one sequence of questions. It is only touched with
// the owning controller's lock held.
type Round struct {
	ID        string
	Questions []domain.Question
	Index     int
	Winners   []domain.Winner
	OpenedAt  time.Time
	Deadline  time.Time
	Scores    *ledger.RoundScores

	answered map[string]struct{}
}

func (r *Round) current() domain.Question {
	return r.Questions[r.Index]
}

// Controller runs the round state machine for a single game channel.
// Every state change happens under mu; announcements are delivered after mu
// is released, under sendMu, so their order follows the transitions.
type Controller struct {
	channelID string
	bank      *bank.Bank
	ledger    *ledger.Ledger
	announcer Announcer
	settings  Settings
	sched     Scheduler
	now       func() time.Time
	rnd       *rand.Rand
	logger    *zap.Logger
	metrics   *metrics.Recorder

	mu       sync.Mutex
	status   domain.Status
	round    *Round
	epoch    uint64
	pending  Timer
	enrolled map[string]string
	closed   bool

	sendMu sync.Mutex
}

// Option customises a Controller.
type Option func(*Controller)

func WithScheduler(s Scheduler) Option { return func(c *Controller) { c.sched = s } }

// WithClock is used by tests for deterministic deadlines.
func WithClock(now func() time.Time) Option { return func(c *Controller) { c.now = now } }

func WithRand(rnd *rand.Rand) Option { return func(c *Controller) { c.rnd = rnd } }

func WithLogger(l *zap.Logger) Option { return func(c *Controller) { c.logger = l } }

func WithMetrics(m *metrics.Recorder) Option { return func(c *Controller) { c.metrics = m } }

func NewController(channelID string, b *bank.Bank, l *ledger.Ledger, a Announcer, settings Settings, opts ...Option) (*Controller, error) {
	if err := settings.validate(); err != nil {
		return nil, err
	}
	c := &Controller{
		channelID: channelID,
		bank:      b,
		ledger:    l,
		announcer: a,
		settings:  settings,
		sched:     NewScheduler(),
		now:       time.Now,
		logger:    zap.NewNop(),
		status:    domain.StatusIdle,
		enrolled:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rnd == nil {
		c.rnd = rand.New(rand.NewSource(c.now().UnixNano()))
	}
	c.logger = c.logger.With(zap.String("channel", channelID))
	return c, nil
}

// ChannelID is the game channel this controller serves.
func (c *Controller) ChannelID() string {
	return c.channelID
}

// StartRound samples the question queue and opens the first question.
// participants are enrolled in addition to anyone who joined earlier.
func (c *Controller) StartRound(ctx context.Context, participants ...domain.Participant) (domain.RoundSnapshot, error) {
	c.mu.Lock()
	msgs, err := c.startLocked(participants)
	if err != nil {
		c.mu.Unlock()
		return domain.RoundSnapshot{}, err
	}
	snap := c.snapshotLocked()
	c.unlockAndSend(ctx, msgs)
	return snap, nil
}

func (c *Controller) startLocked(participants []domain.Participant) ([]string, error) {
	if c.closed {
		return nil, domain.ErrNotRunning
	}
	if c.status != domain.StatusIdle {
		return nil, domain.ErrAlreadyRunning
	}
	if c.settings.RequireParticipants && len(c.enrolled) == 0 && len(participants) == 0 {
		return nil, domain.ErrNoParticipants
	}
	questions, err := c.bank.Sample(c.settings.RoundSize, c.rnd)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, domain.ErrEmptyBank
	}

	c.stopPendingLocked()
	c.epoch++
	scores := ledger.NewRoundScores()
	for id, name := range c.enrolled {
		scores.Enroll(domain.Participant{ID: id, Name: name})
	}
	for _, p := range participants {
		scores.Enroll(p)
	}
	c.round = &Round{ID: uuid.NewString(), Questions: questions, Scores: scores}
	c.status = domain.StatusAnnouncing
	c.metrics.RoundStarted(c.channelID)
	c.logger.Info("round started",
		zap.String("round", c.round.ID),
		zap.Int("questions", len(questions)),
		zap.Int("participants", scores.Len()))

	msgs := []string{roundStartText(len(questions))}
	return append(msgs, c.openQuestionLocked()), nil
}

func (c *Controller) openQuestionLocked() string {
	r := c.round
	r.Winners = nil
	r.answered = make(map[string]struct{})
	r.OpenedAt = c.now()
	r.Deadline = r.OpenedAt.Add(c.settings.AnswerWindow)
	c.status = domain.StatusAccepting

	epoch, index := c.epoch, r.Index
	c.armLocked(c.settings.AnswerWindow, func() { c.onDeadline(epoch, index) })
	return promptText(r.Index+1, len(r.Questions), r.current())
}

// SubmitAnswer grades one guess. Submissions outside an open window, past
// the deadline, or from a participant who already used their attempt are
// ignored rather than rejected with an error.
func (c *Controller) SubmitAnswer(ctx context.Context, sub domain.Submission) domain.AnswerResult {
	c.mu.Lock()
	res, msgs := c.gradeLocked(sub)
	c.unlockAndSend(ctx, msgs)
	return res
}

func (c *Controller) gradeLocked(sub domain.Submission) (domain.AnswerResult, []string) {
	if c.status != domain.StatusAccepting || c.round == nil {
		return domain.AnswerResult{Outcome: domain.OutcomeIgnored, Reason: "not accepting"}, nil
	}
	r := c.round
	at := sub.ReceivedAt
	if at.IsZero() {
		at = c.now()
	}
	if at.After(r.Deadline) {
		return domain.AnswerResult{Outcome: domain.OutcomeIgnored, Reason: "too late"}, nil
	}
	if _, seen := r.answered[sub.ParticipantID]; seen {
		return domain.AnswerResult{Outcome: domain.OutcomeIgnored, Reason: "already answered"}, nil
	}

	p := domain.Participant{ID: sub.ParticipantID, Name: sub.Name}
	if p.Name == "" {
		p.Name = p.ID
	}
	r.Scores.Enroll(p)

	q := r.current()
	similarity := 0
	if guess := fuzzy.Normalize(sub.Text); guess != "" {
		similarity = c.settings.Matcher(guess, fuzzy.Normalize(q.Answer))
	}
	res := domain.AnswerResult{Similarity: similarity, RoundTotal: r.Scores.Get(p.ID)}

	if similarity < c.settings.Threshold {
		if !c.settings.RetryAfterMiss {
			r.answered[p.ID] = struct{}{}
		}
		res.Outcome = domain.OutcomeRejected
		c.metrics.Submission(c.channelID, string(res.Outcome))
		return res, nil
	}

	r.answered[p.ID] = struct{}{}
	if len(r.Winners) >= c.settings.WinnersCap {
		res.Outcome = domain.OutcomeCapReached
		c.metrics.Submission(c.channelID, string(res.Outcome))
		return res, nil
	}

	elapsed := at.Sub(r.OpenedAt)
	w := domain.Winner{
		ParticipantID: p.ID,
		Name:          p.Name,
		Rank:          len(r.Winners) + 1,
		Elapsed:       elapsed,
	}
	w.Points = c.settings.Scorer.Points(w.Rank, elapsed)
	r.Winners = append(r.Winners, w)
	total := r.Scores.Add(p.ID, w.Points)

	res.Outcome = domain.OutcomeAccepted
	res.Rank = w.Rank
	res.Points = w.Points
	res.RoundTotal = total
	c.metrics.Submission(c.channelID, string(res.Outcome))
	c.metrics.WinningAnswer(c.channelID, elapsed.Seconds())
	return res, []string{acceptedText(w, total)}
}

// CloseQuestion ends the open answer window immediately, as if its deadline
// had elapsed.
func (c *Controller) CloseQuestion(ctx context.Context) error {
	c.mu.Lock()
	if c.status != domain.StatusAccepting {
		c.mu.Unlock()
		return domain.ErrNotAccepting
	}
	c.closeQuestionLocked(ctx)
	return nil
}

func (c *Controller) onDeadline(epoch uint64, index int) {
	c.mu.Lock()
	if c.epoch != epoch || c.round == nil || c.round.Index != index || c.status != domain.StatusAccepting {
		c.mu.Unlock()
		return
	}
	c.pending = nil
	c.closeQuestionLocked(context.Background())
}

// closeQuestionLocked grades the open question and releases mu.
func (c *Controller) closeQuestionLocked(ctx context.Context) {
	c.stopPendingLocked()
	c.status = domain.StatusGrading
	r := c.round
	q := r.current()
	c.metrics.QuestionClosed(c.channelID, len(r.Winners) > 0)
	msgs := []string{questionResultText(q, r.Winners)}

	if r.Index+1 < len(r.Questions) {
		epoch, next := c.epoch, r.Index+1
		c.armLocked(c.settings.QuestionDelay, func() { c.onNextQuestion(epoch, next) })
		c.unlockAndSend(ctx, msgs)
		return
	}

	c.completeLocked(ctx, append(msgs, "🏁 Round over!"), "finished", c.settings.AutoRestart)
}

func (c *Controller) onNextQuestion(epoch uint64, next int) {
	c.mu.Lock()
	if c.epoch != epoch || c.round == nil || c.status != domain.StatusGrading || next >= len(c.round.Questions) {
		c.mu.Unlock()
		return
	}
	c.pending = nil
	c.round.Index = next
	msg := c.openQuestionLocked()
	c.unlockAndSend(context.Background(), []string{msg})
}

// EndRound stops the round now and merges whatever was scored, exactly like
// a natural round-over. Called while idle, it cancels a pending auto-restart.
func (c *Controller) EndRound(ctx context.Context) error {
	c.mu.Lock()
	switch c.status {
	case domain.StatusIdle:
		if c.pending == nil {
			c.mu.Unlock()
			return domain.ErrNotRunning
		}
		c.stopPendingLocked()
		c.epoch++
		c.unlockAndSend(ctx, []string{"🛑 Next round cancelled."})
		return nil
	case domain.StatusComplete:
		c.mu.Unlock()
		return domain.ErrNotRunning
	}

	// Invalidate callbacks that fired but have not acquired mu yet.
	c.epoch++
	c.completeLocked(ctx, []string{"🛑 Quiz ended."}, "ended", false)
	return nil
}

// completeLocked is the single path that merges a round. Status Complete is
// set before mu is released, so a racing close sees it and backs off.
func (c *Controller) completeLocked(ctx context.Context, msgs []string, reason string, restart bool) {
	c.stopPendingLocked()
	c.status = domain.StatusComplete
	r := c.round
	c.unlockAndSend(ctx, msgs)

	var out []string
	lb, err := c.ledger.Merge(ctx, r.Scores)
	if err != nil {
		c.metrics.MergeFailed()
		c.logger.Error("merge round scores", zap.String("round", r.ID), zap.Error(err))
		out = append(out, "⚠️ Could not save the leaderboard this time.")
	} else {
		out = append(out, standingsText(leaderboardAfterRound, c.ledger.Rank(lb)))
	}
	out = append(out, roundWinnersText(r.Scores.Leaders()))
	c.metrics.RoundClosed(c.channelID, reason)
	c.logger.Info("round closed", zap.String("round", r.ID), zap.String("reason", reason))

	c.mu.Lock()
	c.round = nil
	c.status = domain.StatusIdle
	if restart && !c.closed {
		epoch := c.epoch
		c.armLocked(c.settings.RoundDelay, func() { c.onRestart(epoch) })
		out = append(out, fmt.Sprintf("Next round starting in %s... Get ready!", c.settings.RoundDelay))
	}
	c.unlockAndSend(ctx, out)
}

func (c *Controller) onRestart(epoch uint64) {
	c.mu.Lock()
	if c.epoch != epoch || c.status != domain.StatusIdle {
		c.mu.Unlock()
		return
	}
	c.pending = nil
	msgs, err := c.startLocked(nil)
	if err != nil {
		c.mu.Unlock()
		c.logger.Warn("auto-restart failed", zap.Error(err))
		return
	}
	c.unlockAndSend(context.Background(), msgs)
}

// Enroll adds a participant silently. Joining mid-round creates a zero round score.
func (c *Controller) Enroll(p domain.Participant) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enrollLocked(p)
}

func (c *Controller) enrollLocked(p domain.Participant) {
	c.enrolled[p.ID] = p.Name
	if c.round != nil && c.status != domain.StatusComplete {
		c.round.Scores.Enroll(p)
	}
	c.ledger.Remember(p)
}

// Join enrolls a participant and announces it.
func (c *Controller) Join(ctx context.Context, p domain.Participant) {
	c.mu.Lock()
	c.enrollLocked(p)
	c.unlockAndSend(ctx, []string{fmt.Sprintf("%s has joined the quiz!", p.Name)})
}

// Leave removes a participant from future rounds. Points already earned in
// the current round are still merged.
func (c *Controller) Leave(ctx context.Context, p domain.Participant) {
	c.mu.Lock()
	delete(c.enrolled, p.ID)
	c.unlockAndSend(ctx, []string{fmt.Sprintf("%s has left the quiz.", p.Name)})
}

// Enrolled reports whether a participant has joined this channel.
func (c *Controller) Enrolled(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.enrolled[id]
	return ok
}

// Accepting reports whether a question window is open.
func (c *Controller) Accepting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status == domain.StatusAccepting
}

// ShowLeaderboard announces the all-time standings.
func (c *Controller) ShowLeaderboard(ctx context.Context) error {
	standings, err := c.ledger.Standings(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.unlockAndSend(ctx, []string{standingsText(leaderboardAllTime, standings)})
	return nil
}

// Snapshot returns a read-only view of the round.
func (c *Controller) Snapshot() domain.RoundSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() domain.RoundSnapshot {
	snap := domain.RoundSnapshot{ChannelID: c.channelID, Status: c.status}
	if r := c.round; r != nil {
		snap.RoundID = r.ID
		snap.QuestionIndex = r.Index
		snap.QuestionCount = len(r.Questions)
		snap.Deadline = r.Deadline
		snap.Winners = append([]domain.Winner(nil), r.Winners...)
		snap.Scores = r.Scores.Snapshot()
	}
	return snap
}

// Close cancels pending timers and prevents further rounds. A running round
// is left unmerged; call EndRound first to keep its points.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.stopPendingLocked()
	c.epoch++
}

func (c *Controller) armLocked(d time.Duration, f func()) {
	c.stopPendingLocked()
	c.pending = c.sched.AfterFunc(d, f)
}

func (c *Controller) stopPendingLocked() {
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
}

// unlockAndSend releases mu and delivers msgs in order.
func (c *Controller) unlockAndSend(ctx context.Context, msgs []string) {
	if len(msgs) == 0 {
		c.mu.Unlock()
		return
	}
	c.sendMu.Lock()
	c.mu.Unlock()
	defer c.sendMu.Unlock()
	for _, msg := range msgs {
		if err := c.announcer.Announce(ctx, c.channelID, msg); err != nil {
			c.logger.Warn("announce failed", zap.Error(err))
		}
	}
}
