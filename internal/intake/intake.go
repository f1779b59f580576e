// Package intake turns raw chat messages into commands and answer
// submissions for the game service.
package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"trivia-bot/internal/domain"
	"trivia-bot/internal/metrics"
)

// Game is the set of game operations intake dispatches to.
type Game interface {
	IsGameChannel(channelID string) bool
	Accepting(channelID string) bool
	Enrolled(channelID, participantID string) bool
	Enroll(channelID string, p domain.Participant) error
	SubmitAnswer(ctx context.Context, channelID string, sub domain.Submission) domain.AnswerResult
	StartRound(ctx context.Context, channelID string, participants ...domain.Participant) (domain.RoundSnapshot, error)
	EndRound(ctx context.Context, channelID string) error
	ShowLeaderboard(ctx context.Context, channelID string) error
	Join(ctx context.Context, channelID string, p domain.Participant) error
	Leave(ctx context.Context, channelID string, p domain.Participant) error
	Snapshot(channelID string) (domain.RoundSnapshot, error)
}

// Notifier delivers command feedback to a channel.
type Notifier interface {
	Announce(ctx context.Context, channelID, text string) error
}

// Decision is what intake did with a message.
type Decision string

const (
	DecisionSubmitted  Decision = "submitted"
	DecisionCommand    Decision = "command"
	DecisionUnknownCmd Decision = "unknown_command"
	DropSelf           Decision = "self"
	DropChannel        Decision = "channel"
	DropNotAccepting   Decision = "not_accepting"
	DropNotEnrolled    Decision = "not_enrolled"
	DropRateLimited    Decision = "rate_limited"
)

// Result reports the decision and, for submissions, the grading outcome.
type Result struct {
	Decision Decision
	Answer   *domain.AnswerResult
}

// Enrollment selects how unknown senders are treated.
type Enrollment string

const (
	// EnrollOpen auto-enrolls any sender that answers.
	EnrollOpen Enrollment = "open"
	// EnrollInvite drops answers from senders that did not join.
	EnrollInvite Enrollment = "invite"
)

type Options struct {
	BotID      string
	Prefix     string
	Enrollment Enrollment
	Limiter    *SenderLimiter
	Logger     *zap.Logger
	Metrics    *metrics.Recorder
	Now        func() time.Time
}

// Intake filters messages in order: own bot identity or any bot, unknown
// channel, commands, round not accepting, enrollment, then rate limiting.
// The first filter that matches drops the message silently.
type Intake struct {
	game     Game
	notifier Notifier
	opts     Options
}

func New(game Game, notifier Notifier, opts Options) *Intake {
	if opts.Prefix == "" {
		opts.Prefix = "!"
	}
	if opts.Enrollment == "" {
		opts.Enrollment = EnrollOpen
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Intake{game: game, notifier: notifier, opts: opts}
}

func (in *Intake) Handle(ctx context.Context, msg domain.Message) Result {
	if msg.AuthorBot || (in.opts.BotID != "" && msg.AuthorID == in.opts.BotID) {
		return in.drop(DropSelf)
	}
	if !in.game.IsGameChannel(msg.ChannelID) {
		return in.drop(DropChannel)
	}

	text := Sanitize(msg.Text)
	p := domain.Participant{ID: msg.AuthorID, Name: msg.AuthorName}
	if p.Name == "" {
		p.Name = p.ID
	}

	if name, ok := in.command(text); ok {
		return in.dispatch(ctx, msg.ChannelID, name, p)
	}

	if !in.game.Accepting(msg.ChannelID) {
		return in.drop(DropNotAccepting)
	}
	if !in.game.Enrolled(msg.ChannelID, p.ID) {
		if in.opts.Enrollment != EnrollOpen {
			return in.drop(DropNotEnrolled)
		}
		if err := in.game.Enroll(msg.ChannelID, p); err != nil {
			return in.drop(DropChannel)
		}
	}

	at := msg.ReceivedAt
	if at.IsZero() {
		at = in.opts.Now()
	}
	if in.opts.Limiter != nil && !in.opts.Limiter.Allow(p.ID, at) {
		return in.drop(DropRateLimited)
	}

	res := in.game.SubmitAnswer(ctx, msg.ChannelID, domain.Submission{
		ParticipantID: p.ID,
		Name:          p.Name,
		Text:          text,
		ReceivedAt:    at,
	})
	return Result{Decision: DecisionSubmitted, Answer: &res}
}

func (in *Intake) drop(d Decision) Result {
	in.opts.Metrics.IntakeDropped(string(d))
	return Result{Decision: d}
}

func (in *Intake) command(text string) (string, bool) {
	if !strings.HasPrefix(text, in.opts.Prefix) {
		return "", false
	}
	fields := strings.Fields(strings.TrimPrefix(text, in.opts.Prefix))
	if len(fields) == 0 {
		return "", false
	}
	return strings.ToLower(fields[0]), true
}

func (in *Intake) dispatch(ctx context.Context, channelID, name string, p domain.Participant) Result {
	var err error
	switch name {
	case "startquiz":
		var participants []domain.Participant
		if in.opts.Enrollment == EnrollOpen {
			participants = append(participants, p)
		}
		_, err = in.game.StartRound(ctx, channelID, participants...)
	case "endquiz":
		err = in.game.EndRound(ctx, channelID)
	case "leaderboard":
		err = in.game.ShowLeaderboard(ctx, channelID)
	case "joinquiz":
		err = in.game.Join(ctx, channelID, p)
	case "leavequiz":
		err = in.game.Leave(ctx, channelID, p)
	case "status":
		var snap domain.RoundSnapshot
		if snap, err = in.game.Snapshot(channelID); err == nil {
			in.notify(ctx, channelID, statusText(snap))
		}
	default:
		in.opts.Metrics.IntakeDropped(string(DecisionUnknownCmd))
		in.opts.Logger.Debug("ignored chat command", zap.String("command", name), zap.String("channel", channelID), zap.Error(domain.ErrUnknownCommand))
		return Result{Decision: DecisionUnknownCmd}
	}

	if err != nil {
		if notice := in.noticeFor(err); notice != "" {
			in.notify(ctx, channelID, notice)
		} else {
			in.opts.Logger.Error("command failed", zap.String("command", name), zap.String("channel", channelID), zap.Error(err))
		}
	}
	return Result{Decision: DecisionCommand}
}

func (in *Intake) notify(ctx context.Context, channelID, text string) {
	if err := in.notifier.Announce(ctx, channelID, text); err != nil {
		in.opts.Logger.Warn("announce failed", zap.String("channel", channelID), zap.Error(err))
	}
}

func (in *Intake) noticeFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrAlreadyRunning):
		return "A quiz is already running!"
	case errors.Is(err, domain.ErrNotRunning):
		return "No quiz is running."
	case errors.Is(err, domain.ErrNoParticipants):
		return fmt.Sprintf("No players have joined yet! Use `%sjoinquiz` to join.", in.opts.Prefix)
	case errors.Is(err, domain.ErrEmptyBank):
		return "There are no questions to ask."
	default:
		return ""
	}
}

func statusText(s domain.RoundSnapshot) string {
	switch s.Status {
	case domain.StatusIdle:
		return "No quiz is running."
	case domain.StatusAccepting:
		return fmt.Sprintf("📊 Question %d/%d is open, %d players in the round.", s.QuestionIndex+1, s.QuestionCount, len(s.Scores))
	default:
		return fmt.Sprintf("📊 Question %d/%d (%s), %d players in the round.", s.QuestionIndex+1, s.QuestionCount, s.Status, len(s.Scores))
	}
}
