package app

import (
	"context"

	"trivia-bot/internal/domain"
	"trivia-bot/internal/ledger"
)

// ChannelRepository abstracts where channel controllers are registered.
type ChannelRepository interface {
	Register(c *Controller)
	Get(channelID string) (*Controller, bool)
	All() []*Controller
}

// GameService routes game use cases to the controller of each channel.
type GameService struct {
	channels ChannelRepository
	ledger   *ledger.Ledger
}

func NewGameService(channels ChannelRepository, l *ledger.Ledger) *GameService {
	return &GameService{channels: channels, ledger: l}
}

func (s *GameService) controller(channelID string) (*Controller, error) {
	c, ok := s.channels.Get(channelID)
	if !ok {
		return nil, domain.ErrChannelNotFound
	}
	return c, nil
}

// IsGameChannel reports whether a controller is registered for channelID.
func (s *GameService) IsGameChannel(channelID string) bool {
	_, ok := s.channels.Get(channelID)
	return ok
}

func (s *GameService) StartRound(ctx context.Context, channelID string, participants ...domain.Participant) (domain.RoundSnapshot, error) {
	c, err := s.controller(channelID)
	if err != nil {
		return domain.RoundSnapshot{}, err
	}
	return c.StartRound(ctx, participants...)
}

func (s *GameService) EndRound(ctx context.Context, channelID string) error {
	c, err := s.controller(channelID)
	if err != nil {
		return err
	}
	return c.EndRound(ctx)
}

// SubmitAnswer grades a guess. Unknown channels are ignored like any other
// submission that cannot be graded.
func (s *GameService) SubmitAnswer(ctx context.Context, channelID string, sub domain.Submission) domain.AnswerResult {
	c, err := s.controller(channelID)
	if err != nil {
		return domain.AnswerResult{Outcome: domain.OutcomeIgnored, Reason: "unknown channel"}
	}
	return c.SubmitAnswer(ctx, sub)
}

func (s *GameService) Accepting(channelID string) bool {
	c, err := s.controller(channelID)
	return err == nil && c.Accepting()
}

func (s *GameService) Enrolled(channelID, participantID string) bool {
	c, err := s.controller(channelID)
	return err == nil && c.Enrolled(participantID)
}

// Enroll adds a participant without announcing it.
func (s *GameService) Enroll(channelID string, p domain.Participant) error {
	c, err := s.controller(channelID)
	if err != nil {
		return err
	}
	c.Enroll(p)
	return nil
}

func (s *GameService) Join(ctx context.Context, channelID string, p domain.Participant) error {
	c, err := s.controller(channelID)
	if err != nil {
		return err
	}
	c.Join(ctx, p)
	return nil
}

func (s *GameService) Leave(ctx context.Context, channelID string, p domain.Participant) error {
	c, err := s.controller(channelID)
	if err != nil {
		return err
	}
	c.Leave(ctx, p)
	return nil
}

// ShowLeaderboard announces the all-time standings in channelID.
func (s *GameService) ShowLeaderboard(ctx context.Context, channelID string) error {
	c, err := s.controller(channelID)
	if err != nil {
		return err
	}
	return c.ShowLeaderboard(ctx)
}

// Leaderboard returns the ranked lifetime standings.
func (s *GameService) Leaderboard(ctx context.Context) ([]domain.Standing, error) {
	return s.ledger.Standings(ctx)
}

func (s *GameService) Snapshot(channelID string) (domain.RoundSnapshot, error) {
	c, err := s.controller(channelID)
	if err != nil {
		return domain.RoundSnapshot{}, err
	}
	return c.Snapshot(), nil
}

// Snapshots returns the state of every registered channel.
func (s *GameService) Snapshots() []domain.RoundSnapshot {
	all := s.channels.All()
	out := make([]domain.RoundSnapshot, 0, len(all))
	for _, c := range all {
		out = append(out, c.Snapshot())
	}
	return out
}

// Shutdown ends running rounds so their points are merged, then stops every
// controller.
func (s *GameService) Shutdown(ctx context.Context) {
	for _, c := range s.channels.All() {
		_ = c.EndRound(ctx)
		c.Close()
	}
}
