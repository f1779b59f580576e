package domain

import (
	"sort"
	"time"
)

// Status is the lifecycle state of a channel's round.
type Status int

const (
	StatusIdle Status = iota
	StatusAnnouncing
	StatusAccepting
	StatusGrading
	StatusComplete
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusAnnouncing:
		return "announcing"
	case StatusAccepting:
		return "accepting"
	case StatusGrading:
		return "grading"
	case StatusComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// MarshalText renders the status as its name in JSON payloads.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Question is an immutable prompt/answer record. ID is the position in the bank.
type Question struct {
	ID       int    `json:"id"`
	Prompt   string `json:"question"`
	Answer   string `json:"answer"`
	Category string `json:"category,omitempty"`
	Artist   string `json:"artist,omitempty"`
	MediaURL string `json:"mediaUrl,omitempty"`
}

// Participant is a chat sender. ID is the identity, Name is presentation only.
type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Submission is a single guess for the open question. It is never stored.
type Submission struct {
	ParticipantID string
	Name          string
	Text          string
	ReceivedAt    time.Time
}

// Winner is a participant that scored on the current question.
type Winner struct {
	ParticipantID string        `json:"participantId"`
	Name          string        `json:"name"`
	Rank          int           `json:"rank"`
	Points        int           `json:"points"`
	Elapsed       time.Duration `json:"elapsed"`
}

// Outcome classifies what happened to a submission.
type Outcome string

const (
	OutcomeIgnored    Outcome = "ignored"
	OutcomeAccepted   Outcome = "accepted"
	OutcomeRejected   Outcome = "rejected"
	OutcomeCapReached Outcome = "cap_reached"
)

// AnswerResult is the grading outcome of one submission.
type AnswerResult struct {
	Outcome    Outcome `json:"outcome"`
	Reason     string  `json:"reason,omitempty"`
	Similarity int     `json:"similarity"`
	Rank       int     `json:"rank,omitempty"`
	Points     int     `json:"points"`
	RoundTotal int     `json:"roundTotal"`
}

// Message is a raw chat message as delivered by the gateway.
type Message struct {
	ChannelID  string
	AuthorID   string
	AuthorName string
	AuthorBot  bool
	Text       string
	ReceivedAt time.Time
}

// RoundSnapshot is a read-only view of a channel's round state.
type RoundSnapshot struct {
	ChannelID     string         `json:"channelId"`
	RoundID       string         `json:"roundId,omitempty"`
	Status        Status         `json:"status"`
	QuestionIndex int            `json:"questionIndex"`
	QuestionCount int            `json:"questionCount"`
	Deadline      time.Time      `json:"deadline,omitempty"`
	Winners       []Winner       `json:"winners,omitempty"`
	Scores        map[string]int `json:"scores,omitempty"`
}

// Leaderboard maps participant id to lifetime points.
type Leaderboard map[string]int

// Clone returns an independent copy.
func (l Leaderboard) Clone() Leaderboard {
	out := make(Leaderboard, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}

// Standing is one ranked row of a leaderboard view.
type Standing struct {
	Rank          int    `json:"rank"`
	ParticipantID string `json:"participantId"`
	Name          string `json:"name"`
	Score         int    `json:"score"`
}

// Rank orders scores descending, then by name so ties render stably.
// names may be nil; missing names fall back to the participant id.
func Rank(scores map[string]int, names map[string]string) []Standing {
	out := make([]Standing, 0, len(scores))
	for id, score := range scores {
		name := names[id]
		if name == "" {
			name = id
		}
		out = append(out, Standing{ParticipantID: id, Name: name, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ParticipantID < out[j].ParticipantID
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
