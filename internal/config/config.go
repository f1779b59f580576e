package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level    string `yaml:"level"`
		Encoding string `yaml:"encoding"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Bank struct {
		// Path is a JSON or .xlsx file; Source names a bank stored in Postgres.
		Path   string `yaml:"path"`
		Source string `yaml:"source"`
		TTL    string `yaml:"ttl"`
	} `yaml:"bank"`
	Leaderboard struct {
		Backend string `yaml:"backend"` // file|redis|postgres|memory
		Path    string `yaml:"path"`
		Key     string `yaml:"key"`
	} `yaml:"leaderboard"`
	Game Game `yaml:"game"`
}

// Game holds the round policy shared by every game channel.
type Game struct {
	Channels       []string `yaml:"channels"`
	BotID          string   `yaml:"bot_id"`
	Prefix         string   `yaml:"prefix"`
	Variant        string   `yaml:"variant"`    // trivia|music
	Enrollment     string   `yaml:"enrollment"` // open|invite
	RoundSize      int      `yaml:"round_size"`
	AnswerWindow   string   `yaml:"answer_window"`
	QuestionDelay  string   `yaml:"question_delay"`
	RoundDelay     string   `yaml:"round_delay"`
	AutoStart      bool     `yaml:"auto_start"`
	AutoRestart    bool     `yaml:"auto_restart"`
	WinnersCap     int      `yaml:"winners_cap"`
	Threshold      int      `yaml:"threshold"`
	Matcher        string   `yaml:"matcher"` // ratio|partial
	RetryAfterMiss bool     `yaml:"retry_after_miss"`
	Scoring        struct {
		Mode  string `yaml:"mode"` // tiered|decay
		Tiers []int  `yaml:"tiers"`
		Base  int    `yaml:"base"`
	} `yaml:"scoring"`
	Rate struct {
		PerSecond float64 `yaml:"per_second"`
		Burst     int     `yaml:"burst"`
	} `yaml:"rate"`
}

// Load reads YAML config from path, applies environment overrides and defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.applyEnv()
	cfg.ApplyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Postgres.URL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("BOT_ID"); v != "" {
		c.Game.BotID = v
	}
	if v := os.Getenv("GAME_CHANNEL"); v != "" {
		c.Game.Channels = strings.Split(v, ",")
	}
	if v := os.Getenv("ROUND_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Game.RoundSize = n
		}
	}
}

// ApplyDefaults fills unset values with the stock trivia or music policy.
func (c *Config) ApplyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Encoding == "" {
		c.Log.Encoding = "json"
	}
	if c.Bank.Path == "" && c.Bank.Source == "" {
		c.Bank.Path = "questions.json"
	}
	if c.Leaderboard.Backend == "" {
		c.Leaderboard.Backend = "file"
	}
	if c.Leaderboard.Path == "" {
		c.Leaderboard.Path = "leaderboard.json"
	}
	if c.Leaderboard.Key == "" {
		c.Leaderboard.Key = "leaderboard:lifetime"
	}

	g := &c.Game
	music := g.Variant == "music"
	if g.Variant == "" {
		g.Variant = "trivia"
	}
	if g.Prefix == "" {
		g.Prefix = "!"
	}
	if g.Enrollment == "" {
		g.Enrollment = "open"
	}
	if g.RoundSize == 0 {
		g.RoundSize = 3
		if music {
			g.RoundSize = 10
		}
	}
	if g.AnswerWindow == "" {
		g.AnswerWindow = "10s"
	}
	if g.QuestionDelay == "" {
		g.QuestionDelay = "7s"
		if music {
			g.QuestionDelay = "6s"
		}
	}
	if g.RoundDelay == "" {
		g.RoundDelay = "10s"
	}
	if g.Threshold == 0 {
		g.Threshold = 85
		if music {
			g.Threshold = 80
		}
	}
	if g.Matcher == "" {
		g.Matcher = "ratio"
		if music {
			g.Matcher = "partial"
		}
	}
	if g.WinnersCap == 0 {
		g.WinnersCap = 1
	}
	if g.Scoring.Mode == "" {
		g.Scoring.Mode = "tiered"
	}
	if g.Rate.PerSecond == 0 {
		g.Rate.PerSecond = 2
	}
	if g.Rate.Burst == 0 {
		g.Rate.Burst = 5
	}
}

// Validate reports configuration errors that must stop startup.
func (c Config) Validate() error {
	var errs []error
	g := c.Game
	if len(g.Channels) == 0 {
		errs = append(errs, errors.New("game.channels is required"))
	}
	if g.RoundSize < 1 {
		errs = append(errs, fmt.Errorf("game.round_size must be positive, got %d", g.RoundSize))
	}
	if g.WinnersCap < 1 {
		errs = append(errs, fmt.Errorf("game.winners_cap must be positive, got %d", g.WinnersCap))
	}
	if g.Threshold < 0 || g.Threshold > 100 {
		errs = append(errs, fmt.Errorf("game.threshold must be within [0,100], got %d", g.Threshold))
	}
	if g.Enrollment != "open" && g.Enrollment != "invite" {
		errs = append(errs, fmt.Errorf("game.enrollment must be open or invite, got %q", g.Enrollment))
	}
	for name, raw := range map[string]string{
		"game.answer_window":  g.AnswerWindow,
		"game.question_delay": g.QuestionDelay,
		"game.round_delay":    g.RoundDelay,
	} {
		if d, err := time.ParseDuration(raw); err != nil || d < 0 {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", name, raw))
		}
	}
	switch c.Leaderboard.Backend {
	case "file", "memory":
	case "redis":
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("leaderboard.backend redis requires redis.addr"))
		}
	case "postgres":
		if c.Postgres.URL == "" {
			errs = append(errs, errors.New("leaderboard.backend postgres requires postgres.url"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown leaderboard.backend %q", c.Leaderboard.Backend))
	}
	if c.Bank.Source != "" && c.Postgres.URL == "" {
		errs = append(errs, errors.New("bank.source requires postgres.url"))
	}
	return errors.Join(errs...)
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
