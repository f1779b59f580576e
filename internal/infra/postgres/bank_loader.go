package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-bot/internal/domain"
)

// BankLoader loads question banks from the questions table. A bank is the
// set of rows sharing a bank name, ordered by position.
type BankLoader struct {
	pool *pgxpool.Pool
}

func NewBankLoader(pool *pgxpool.Pool) *BankLoader {
	return &BankLoader{pool: pool}
}

func (l *BankLoader) LoadBank(ctx context.Context, source string) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT prompt, answer, category, artist, media_url FROM questions WHERE bank=$1 ORDER BY position`, source)
	if err != nil {
		return nil, fmt.Errorf("load bank: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.Prompt, &q.Answer, &q.Category, &q.Artist, &q.MediaURL); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load bank: %w", err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrBankNotFound, source)
	}
	return questions, nil
}

// SaveBank replaces every row of bank with questions.
func (l *BankLoader) SaveBank(ctx context.Context, bank string, questions []domain.Question) error {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE bank=$1`, bank); err != nil {
		return fmt.Errorf("clear bank: %w", err)
	}
	batch := &pgx.Batch{}
	for i, q := range questions {
		batch.Queue(`INSERT INTO questions (bank, position, prompt, answer, category, artist, media_url)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`, bank, i, q.Prompt, q.Answer, q.Category, q.Artist, q.MediaURL)
	}
	br := tx.SendBatch(ctx, batch)
	for range questions {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("insert question: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("insert questions: %w", err)
	}
	return tx.Commit(ctx)
}
