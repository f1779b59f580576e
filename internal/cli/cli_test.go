package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trivia-bot/internal/bank"
)

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	cfg := "log:\n  level: error\n" +
		"leaderboard:\n  backend: file\n  path: " + filepath.Join(dir, "leaderboard.json") + "\n" +
		"game:\n  channels: [trivia]\n"
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestLeaderboardCommand(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)

	out, err := run(t, "leaderboard", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "Nobody scored anything so far!")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "leaderboard.json"), []byte(`{"u1": 3, "u2": 40, "u3": 12}`), 0o644))
	out, err = run(t, "leaderboard", "--config", cfg, "--top", "2")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "u2")
	assert.Contains(t, lines[2], "u3")
}

func TestImportCommand(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "trivia.json")
	require.NoError(t, os.WriteFile(src, []byte(`[
		{"question": "Category: Geography\nCapital of France?", "answer": "Paris"},
		{"question": "2 + 2?", "answer": "4"}
	]`), 0o644))
	dst := filepath.Join(dir, "bank.json")

	out, err := run(t, "import", src, "--out", dst)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 2 questions")

	questions, err := bank.LoadFile(dst)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, "Geography", questions[0].Category)
	assert.Equal(t, "Capital of France?", questions[0].Prompt)
}

func TestStartRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("game:\n  enrollment: maybe\n"), 0o644))

	_, err := run(t, "start", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "game.channels is required")
	assert.Contains(t, err.Error(), "game.enrollment")
}
