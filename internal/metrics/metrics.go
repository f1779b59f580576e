// Package metrics exposes Prometheus instruments for rounds and answer intake.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder groups the game instruments. All methods are safe on a nil receiver.
type Recorder struct {
	roundsStarted   *prometheus.CounterVec
	roundsClosed    *prometheus.CounterVec
	questionsClosed *prometheus.CounterVec
	submissions     *prometheus.CounterVec
	intakeDrops     *prometheus.CounterVec
	answerLatency   *prometheus.HistogramVec
	mergeFailures   prometheus.Counter
}

// New registers the instruments on reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		roundsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trivia",
			Name:      "rounds_started_total",
			Help:      "Rounds started per channel.",
		}, []string{"channel"}),
		roundsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trivia",
			Name:      "rounds_closed_total",
			Help:      "Rounds closed per channel and reason (finished|ended).",
		}, []string{"channel", "reason"}),
		questionsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trivia",
			Name:      "questions_closed_total",
			Help:      "Questions closed per channel, split by whether anyone won.",
		}, []string{"channel", "answered"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trivia",
			Name:      "submissions_total",
			Help:      "Graded submissions per channel and outcome.",
		}, []string{"channel", "outcome"}),
		intakeDrops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trivia",
			Name:      "intake_dropped_total",
			Help:      "Chat messages dropped by the intake filters.",
		}, []string{"reason"}),
		answerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "trivia",
			Name:      "winning_answer_seconds",
			Help:      "Time from question open to a winning answer.",
			Buckets:   []float64{0.5, 1, 2, 3, 5, 7, 10, 15, 30},
		}, []string{"channel"}),
		mergeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trivia",
			Name:      "leaderboard_merge_failures_total",
			Help:      "Round merges that could not be persisted.",
		}),
	}
	reg.MustRegister(
		r.roundsStarted,
		r.roundsClosed,
		r.questionsClosed,
		r.submissions,
		r.intakeDrops,
		r.answerLatency,
		r.mergeFailures,
	)
	return r
}

// NewNoop returns a recorder bound to a private registry.
func NewNoop() *Recorder {
	return New(prometheus.NewRegistry())
}

func (r *Recorder) RoundStarted(channel string) {
	if r == nil {
		return
	}
	r.roundsStarted.WithLabelValues(channel).Inc()
}

func (r *Recorder) RoundClosed(channel, reason string) {
	if r == nil {
		return
	}
	r.roundsClosed.WithLabelValues(channel, reason).Inc()
}

func (r *Recorder) QuestionClosed(channel string, answered bool) {
	if r == nil {
		return
	}
	label := "false"
	if answered {
		label = "true"
	}
	r.questionsClosed.WithLabelValues(channel, label).Inc()
}

func (r *Recorder) Submission(channel, outcome string) {
	if r == nil {
		return
	}
	r.submissions.WithLabelValues(channel, outcome).Inc()
}

func (r *Recorder) IntakeDropped(reason string) {
	if r == nil {
		return
	}
	r.intakeDrops.WithLabelValues(reason).Inc()
}

func (r *Recorder) WinningAnswer(channel string, seconds float64) {
	if r == nil {
		return
	}
	r.answerLatency.WithLabelValues(channel).Observe(seconds)
}

func (r *Recorder) MergeFailed() {
	if r == nil {
		return
	}
	r.mergeFailures.Inc()
}
