package ledger

import "trivia-bot/internal/domain"

// RoundScores is the transient per-round score table. It is owned by a single
// round controller and is not safe for concurrent use.
type RoundScores struct {
	points map[string]int
	names  map[string]string
}

func NewRoundScores() *RoundScores {
	return &RoundScores{points: make(map[string]int), names: make(map[string]string)}
}

// Enroll registers a participant with zero points if not already present.
func (s *RoundScores) Enroll(p domain.Participant) {
	if _, ok := s.points[p.ID]; !ok {
		s.points[p.ID] = 0
	}
	if p.Name != "" {
		s.names[p.ID] = p.Name
	}
}

// Add credits points and returns the participant's round total.
func (s *RoundScores) Add(id string, points int) int {
	s.points[id] += points
	return s.points[id]
}

// Get returns a participant's round total.
func (s *RoundScores) Get(id string) int {
	return s.points[id]
}

// Len is the number of enrolled participants.
func (s *RoundScores) Len() int {
	return len(s.points)
}

// Snapshot copies the score table.
func (s *RoundScores) Snapshot() map[string]int {
	out := make(map[string]int, len(s.points))
	for k, v := range s.points {
		out[k] = v
	}
	return out
}

// Names copies the known display names.
func (s *RoundScores) Names() map[string]string {
	out := make(map[string]string, len(s.names))
	for k, v := range s.names {
		out[k] = v
	}
	return out
}

// Standings ranks this round's scores.
func (s *RoundScores) Standings() []domain.Standing {
	return domain.Rank(s.points, s.names)
}

// Leaders returns every participant sharing the highest positive score.
// Ties are kept; there is no tie-break.
func (s *RoundScores) Leaders() []domain.Standing {
	var leaders []domain.Standing
	for _, st := range s.Standings() {
		if st.Score <= 0 {
			break
		}
		if len(leaders) > 0 && st.Score < leaders[0].Score {
			break
		}
		leaders = append(leaders, st)
	}
	return leaders
}
