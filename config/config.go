package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"chesstutor/bots"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Addr           string
	DataDir        string
	Logs           LogConfig
	Game           GameConfig
	AllowedOrigins []string
}

type LogConfig struct {
	Style string // "console" or "json"
	Level zerolog.Level
}

type GameConfig struct {
	Difficulty bots.Difficulty
	Tables     *bots.Tables
	ThinkDelay time.Duration
}

// Load reads the environment, after merging in the given .env files (".env"
// when none are named). Missing files are skipped; variables already set
// in the environment win.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{
		Addr:    getenv("CHESS_ADDR", ":8080"),
		DataDir: os.Getenv("CHESS_DATA_DIR"),
		Logs: LogConfig{
			Style: strings.ToLower(getenv("CHESS_LOG_STYLE", "console")),
		},
	}

	if cfg.Logs.Style != "console" && cfg.Logs.Style != "json" {
		return nil, fmt.Errorf("%w: CHESS_LOG_STYLE %q", ErrInvalidConfig, cfg.Logs.Style)
	}

	level, err := zerolog.ParseLevel(strings.ToLower(getenv("CHESS_LOG_LEVEL", "info")))
	if err != nil {
		return nil, fmt.Errorf("%w: CHESS_LOG_LEVEL: %v", ErrInvalidConfig, err)
	}
	cfg.Logs.Level = level

	if cfg.Game.Difficulty, err = bots.ParseDifficulty(os.Getenv("CHESS_DIFFICULTY")); err != nil {
		return nil, fmt.Errorf("%w: CHESS_DIFFICULTY: %v", ErrInvalidConfig, err)
	}
	if cfg.Game.Tables, err = bots.ParseTables(os.Getenv("CHESS_TABLES")); err != nil {
		return nil, fmt.Errorf("%w: CHESS_TABLES: %v", ErrInvalidConfig, err)
	}

	delay, err := time.ParseDuration(getenv("CHESS_THINK_DELAY", "500ms"))
	if err != nil || delay < 0 {
		return nil, fmt.Errorf("%w: CHESS_THINK_DELAY %q", ErrInvalidConfig, os.Getenv("CHESS_THINK_DELAY"))
	}
	cfg.Game.ThinkDelay = delay

	for _, o := range strings.Split(os.Getenv("CHESS_ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	return cfg, nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// NewLogger builds the root logger writing to w.
func NewLogger(cfg LogConfig, w io.Writer) zerolog.Logger {
	if cfg.Style == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(cfg.Level).With().Timestamp().Logger()
}
