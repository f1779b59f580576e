package bank

import (
	"bytes"
	"errors"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"trivia-bot/internal/domain"
)

func sampleBank(n int) *Bank {
	qs := make([]domain.Question, n)
	for i := range qs {
		qs[i] = domain.Question{Prompt: "q", Answer: "a"}
	}
	return New(qs)
}

func TestSampleWithoutReplacement(t *testing.T) {
	b := sampleBank(5)
	got, err := b.Sample(3, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.Len(t, got, 3)

	seen := map[int]bool{}
	for _, q := range got {
		assert.False(t, seen[q.ID], "question %d repeated", q.ID)
		seen[q.ID] = true
	}
}

func TestSampleClampsToBankSize(t *testing.T) {
	b := sampleBank(4)
	got, err := b.Sample(10, rand.New(rand.NewSource(2)))
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestSampleEmptyBank(t *testing.T) {
	_, err := New(nil).Sample(3, rand.New(rand.NewSource(3)))
	assert.True(t, errors.Is(err, domain.ErrEmptyBank))
}

func TestNewCopiesAndNumbers(t *testing.T) {
	qs := []domain.Question{{Prompt: "a", Answer: "1"}, {Prompt: "b", Answer: "2"}}
	b := New(qs)
	qs[0].Prompt = "mutated"

	got := b.Questions()
	assert.Equal(t, "a", got[0].Prompt)
	assert.Equal(t, 0, got[0].ID)
	assert.Equal(t, 1, got[1].ID)
}

func TestParseTriviaAndSongs(t *testing.T) {
	data := []byte(`[
		{"question": "Category: Geography\nWhat is the capital of France?", "answer": "Paris"},
		{"question": "Who painted the Mona Lisa?", "answer": "Da Vinci", "category": "Art"},
		{"title": "Bohemian Rhapsody", "artist": "Queen", "preview_url": "https://example.test/p.mp3", "answer": "Bohemian Rhapsody"}
	]`)

	qs, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, qs, 3)

	assert.Equal(t, "Geography", qs[0].Category)
	assert.Equal(t, "What is the capital of France?", qs[0].Prompt)
	assert.Equal(t, "Art", qs[1].Category)
	assert.Equal(t, SongPrompt, qs[2].Prompt)
	assert.Equal(t, "Queen", qs[2].Artist)
	assert.Equal(t, "https://example.test/p.mp3", qs[2].MediaURL)
}

func TestParseRejectsIncompleteRecords(t *testing.T) {
	_, err := Parse([]byte(`[{"question": "no answer here"}]`))
	require.Error(t, err)

	_, err = Parse([]byte(`{"question": "not a list"}`))
	require.Error(t, err)
}

func TestSplitCategory(t *testing.T) {
	c, p := SplitCategory("category:  Science \nWhat is H2O?")
	assert.Equal(t, "Science", c)
	assert.Equal(t, "What is H2O?", p)

	c, p = SplitCategory("Ratio: 3:1\nsecond line")
	assert.Empty(t, c)
	assert.Equal(t, "Ratio: 3:1\nsecond line", p)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "questions.json"))
	assert.True(t, errors.Is(err, domain.ErrBankNotFound))
}

func TestLoadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "History"))
	require.NoError(t, f.SetSheetRow("History", "A1", &[]any{"Question", "Answer"}))
	require.NoError(t, f.SetSheetRow("History", "A2", &[]any{"In what year did the Titanic sink?", "1912"}))
	require.NoError(t, f.SetSheetRow("History", "A3", &[]any{"Incomplete row"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	qs, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, "History", qs[0].Category)
	assert.Equal(t, "1912", qs[0].Answer)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, qs))
	round, err := Parse(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, qs, round)
}

func TestWriteJSONKeepsSongFields(t *testing.T) {
	qs := []domain.Question{{
		Prompt:   SongPrompt,
		Answer:   "Bohemian Rhapsody",
		Artist:   "Queen",
		MediaURL: "https://example.com/preview.mp3",
	}}
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, qs))
	round, err := Parse(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, qs, round)
}
