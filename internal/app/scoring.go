package app

import (
	"fmt"
	"time"
)

// Scorer converts a winner's rank and answer latency into points.
type Scorer interface {
	Points(rank int, elapsed time.Duration) int
}

// TieredScorer awards fixed points per rank; ranks beyond the table earn 0.
type TieredScorer struct {
	Tiers []int
}

// DefaultTiers is 15/10/5 for the first three correct answers.
var DefaultTiers = []int{15, 10, 5}

func (s TieredScorer) Points(rank int, _ time.Duration) int {
	if rank < 1 || rank > len(s.Tiers) {
		return 0
	}
	return s.Tiers[rank-1]
}

// DecayScorer awards Base minus one point per whole second elapsed, floored at 0.
type DecayScorer struct {
	Base int
}

func (s DecayScorer) Points(_ int, elapsed time.Duration) int {
	if elapsed < 0 {
		elapsed = 0
	}
	return max(0, s.Base-int(elapsed/time.Second))
}

// ScoringMode names a Scorer for configuration.
type ScoringMode string

const (
	ScoringTiered ScoringMode = "tiered"
	ScoringDecay  ScoringMode = "decay"
)

// NewScorer builds the scorer for mode. tiers and base fall back to 15/10/5 and 15.
func NewScorer(mode ScoringMode, tiers []int, base int) (Scorer, error) {
	switch mode {
	case ScoringTiered, "":
		if len(tiers) == 0 {
			tiers = DefaultTiers
		}
		for _, t := range tiers {
			if t < 0 {
				return nil, fmt.Errorf("negative tier points %d", t)
			}
		}
		return TieredScorer{Tiers: append([]int(nil), tiers...)}, nil
	case ScoringDecay:
		if base <= 0 {
			base = 15
		}
		return DecayScorer{Base: base}, nil
	default:
		return nil, fmt.Errorf("unknown scoring mode %q", mode)
	}
}
