// Package bank holds the immutable question bank a round samples from.
package bank

import (
	"math/rand"

	"trivia-bot/internal/domain"
)

// Bank is an ordered, read-only collection of questions.
type Bank struct {
	questions []domain.Question
}

// New copies qs into a bank, assigning each question its position as ID.
func New(qs []domain.Question) *Bank {
	questions := make([]domain.Question, len(qs))
	copy(questions, qs)
	for i := range questions {
		questions[i].ID = i
	}
	return &Bank{questions: questions}
}

// Len reports the number of questions.
func (b *Bank) Len() int {
	return len(b.questions)
}

// Questions returns a copy of every question in bank order.
func (b *Bank) Questions() []domain.Question {
	out := make([]domain.Question, len(b.questions))
	copy(out, b.questions)
	return out
}

// Sample draws min(n, Len()) distinct questions uniformly at random.
// rnd is not safe for concurrent use; callers own its synchronisation.
func (b *Bank) Sample(n int, rnd *rand.Rand) ([]domain.Question, error) {
	if len(b.questions) == 0 {
		return nil, domain.ErrEmptyBank
	}
	if n > len(b.questions) {
		n = len(b.questions)
	}
	if n <= 0 {
		return []domain.Question{}, nil
	}

	out := make([]domain.Question, 0, n)
	for _, idx := range rnd.Perm(len(b.questions))[:n] {
		out = append(out, b.questions[idx])
	}
	return out, nil
}
