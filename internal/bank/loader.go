package bank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"trivia-bot/internal/domain"
)

// SongPrompt is announced for every track of a music bank.
const SongPrompt = "🎵 Name this song!"

// record accepts both trivia entries ({question, answer}) and song entries
// ({title, artist, preview_url, answer}).
type record struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Category   string `json:"category,omitempty"`
	Title      string `json:"title,omitempty"`
	Artist     string `json:"artist,omitempty"`
	PreviewURL string `json:"preview_url,omitempty"`
}

// Parse decodes a JSON list of trivia or song records.
func Parse(data []byte) ([]domain.Question, error) {
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode question bank: %w", err)
	}

	questions := make([]domain.Question, 0, len(records))
	for i, rec := range records {
		q, err := rec.toQuestion()
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func (r record) toQuestion() (domain.Question, error) {
	if r.Question == "" && r.Title != "" {
		answer := r.Answer
		if answer == "" {
			answer = r.Title
		}
		return domain.Question{
			Prompt:   SongPrompt,
			Answer:   answer,
			Category: r.Category,
			Artist:   r.Artist,
			MediaURL: r.PreviewURL,
		}, nil
	}

	if strings.TrimSpace(r.Question) == "" {
		return domain.Question{}, errors.New("missing question text")
	}
	if strings.TrimSpace(r.Answer) == "" {
		return domain.Question{}, errors.New("missing answer")
	}
	category, prompt := SplitCategory(r.Question)
	if r.Category != "" {
		category = r.Category
	}
	return domain.Question{Prompt: prompt, Answer: r.Answer, Category: category}, nil
}

// SplitCategory extracts a "Category: X" first line from a prompt.
func SplitCategory(text string) (category, prompt string) {
	first, rest, found := strings.Cut(text, "\n")
	if !found {
		return "", text
	}
	label, value, ok := strings.Cut(first, ":")
	if !ok || !strings.EqualFold(strings.TrimSpace(label), "category") {
		return "", text
	}
	return strings.TrimSpace(value), strings.TrimSpace(rest)
}

// LoadFile reads a bank from a JSON or .xlsx file.
func LoadFile(path string) ([]domain.Question, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return LoadXLSX(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrBankNotFound, path)
		}
		return nil, err
	}
	return Parse(data)
}

// LoadXLSX imports every sheet of a workbook. Column A is the question,
// column B the answer; the sheet name becomes the category. A header row
// whose first cell reads "question" is skipped.
func LoadXLSX(path string) ([]domain.Question, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrBankNotFound, path)
		}
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var questions []domain.Question
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		for i, row := range rows {
			if len(row) < 2 {
				continue
			}
			prompt, answer := strings.TrimSpace(row[0]), strings.TrimSpace(row[1])
			if i == 0 && strings.EqualFold(prompt, "question") {
				continue
			}
			if prompt == "" || answer == "" {
				continue
			}
			questions = append(questions, domain.Question{Prompt: prompt, Answer: answer, Category: sheet})
		}
	}
	return questions, nil
}

// WriteJSON encodes questions in the record format Parse reads; song
// questions are written back as song records.
func WriteJSON(w io.Writer, questions []domain.Question) error {
	records := make([]record, 0, len(questions))
	for _, q := range questions {
		if q.Prompt == SongPrompt {
			records = append(records, record{Title: q.Answer, Answer: q.Answer, Category: q.Category, Artist: q.Artist, PreviewURL: q.MediaURL})
			continue
		}
		records = append(records, record{Question: q.Prompt, Answer: q.Answer, Category: q.Category})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// FileLoader loads banks from the filesystem; the source is a path.
type FileLoader struct{}

func (FileLoader) LoadBank(_ context.Context, source string) ([]domain.Question, error) {
	return LoadFile(source)
}
