package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"REDIS_ADDR", "REDIS_PASSWORD", "DATABASE_URL", "LOG_LEVEL", "BOT_ID", "GAME_CHANNEL", "ROUND_SIZE"} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesTriviaDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeConfig(t, "game:\n  channels: [trivia]\n"))
	require.NoError(t, err)

	g := cfg.Game
	assert.Equal(t, "trivia", g.Variant)
	assert.Equal(t, "!", g.Prefix)
	assert.Equal(t, "open", g.Enrollment)
	assert.Equal(t, 3, g.RoundSize)
	assert.Equal(t, "10s", g.AnswerWindow)
	assert.Equal(t, "7s", g.QuestionDelay)
	assert.Equal(t, 85, g.Threshold)
	assert.Equal(t, "ratio", g.Matcher)
	assert.Equal(t, 1, g.WinnersCap)
	assert.Equal(t, "tiered", g.Scoring.Mode)
	assert.Equal(t, "file", cfg.Leaderboard.Backend)
	assert.Equal(t, "leaderboard.json", cfg.Leaderboard.Path)
	assert.Equal(t, "questions.json", cfg.Bank.Path)
	assert.NoError(t, cfg.Validate())
}

func TestLoadAppliesMusicDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeConfig(t, "game:\n  channels: [music]\n  variant: music\n"))
	require.NoError(t, err)

	g := cfg.Game
	assert.Equal(t, 10, g.RoundSize)
	assert.Equal(t, "6s", g.QuestionDelay)
	assert.Equal(t, 80, g.Threshold)
	assert.Equal(t, "partial", g.Matcher)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("GAME_CHANNEL", "trivia,music")
	t.Setenv("ROUND_SIZE", "5")
	t.Setenv("DATABASE_URL", "postgres://localhost/trivia")
	t.Setenv("BOT_ID", "bot-1")

	cfg, err := Load(writeConfig(t, "game:\n  channels: [ignored]\n  round_size: 2\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"trivia", "music"}, cfg.Game.Channels)
	assert.Equal(t, 5, cfg.Game.RoundSize)
	assert.Equal(t, "postgres://localhost/trivia", cfg.Postgres.URL)
	assert.Equal(t, "bot-1", cfg.Game.BotID)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateJoinsErrors(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeConfig(t, strings.Join([]string{
		"game:",
		"  threshold: 150",
		"  winners_cap: -1",
		"  answer_window: soon",
		"leaderboard:",
		"  backend: redis",
	}, "\n")))
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	for _, want := range []string{
		"game.channels is required",
		"game.threshold",
		"game.winners_cap",
		"game.answer_window",
		"requires redis.addr",
	} {
		assert.Contains(t, msg, want)
	}
}

func TestTTLDuration(t *testing.T) {
	assert.Equal(t, time.Minute, TTLDuration("", time.Minute))
	assert.Equal(t, 90*time.Second, TTLDuration("90s", time.Minute))
	assert.Equal(t, time.Minute, TTLDuration("bogus", time.Minute))
}
