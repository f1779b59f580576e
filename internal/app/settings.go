package app

import (
	"fmt"
	"time"

	"trivia-bot/internal/config"
	"trivia-bot/internal/fuzzy"
)

// Settings is the round policy of one controller.
type Settings struct {
	RoundSize     int
	AnswerWindow  time.Duration
	QuestionDelay time.Duration
	RoundDelay    time.Duration
	WinnersCap    int
	Threshold     int
	Matcher       fuzzy.Matcher
	Scorer        Scorer
	AutoRestart   bool
	// RetryAfterMiss lets a participant guess again after a non-matching
	// answer. A matching answer always consumes the attempt.
	RetryAfterMiss bool
	// RequireParticipants rejects StartRound when nobody is enrolled.
	RequireParticipants bool
}

// DefaultSettings is the stock fastest-finger trivia policy.
func DefaultSettings() Settings {
	return Settings{
		RoundSize:     3,
		AnswerWindow:  10 * time.Second,
		QuestionDelay: 7 * time.Second,
		RoundDelay:    10 * time.Second,
		WinnersCap:    1,
		Threshold:     85,
		Matcher:       fuzzy.Ratio,
		Scorer:        TieredScorer{Tiers: DefaultTiers},
	}
}

// NewSettings translates the game section of the config.
func NewSettings(g config.Game) (Settings, error) {
	matcher, err := fuzzy.ForMode(fuzzy.Mode(g.Matcher))
	if err != nil {
		return Settings{}, err
	}
	scorer, err := NewScorer(ScoringMode(g.Scoring.Mode), g.Scoring.Tiers, g.Scoring.Base)
	if err != nil {
		return Settings{}, err
	}
	s := Settings{
		RoundSize:           g.RoundSize,
		AnswerWindow:        config.TTLDuration(g.AnswerWindow, 10*time.Second),
		QuestionDelay:       config.TTLDuration(g.QuestionDelay, 7*time.Second),
		RoundDelay:          config.TTLDuration(g.RoundDelay, 10*time.Second),
		WinnersCap:          g.WinnersCap,
		Threshold:           g.Threshold,
		Matcher:             matcher,
		Scorer:              scorer,
		AutoRestart:         g.AutoRestart,
		RetryAfterMiss:      g.RetryAfterMiss,
		RequireParticipants: g.Enrollment == "invite",
	}
	return s, s.validate()
}

func (s Settings) validate() error {
	if s.RoundSize < 1 {
		return fmt.Errorf("round size must be positive, got %d", s.RoundSize)
	}
	if s.WinnersCap < 1 {
		return fmt.Errorf("winners cap must be positive, got %d", s.WinnersCap)
	}
	if s.Matcher == nil || s.Scorer == nil {
		return fmt.Errorf("matcher and scorer are required")
	}
	return nil
}
