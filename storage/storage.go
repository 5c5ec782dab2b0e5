// Package storage persists player preferences, game statistics and the
// facts each player has already been shown, in BadgerDB.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// Storage keys
const (
	keyPreferences = "preferences/"
	keyStats       = "stats/"
	keyShown       = "shown/"
)

// Preferences stores a player's settings.
type Preferences struct {
	Username    string    `json:"username"`
	Difficulty  string    `json:"difficulty"`
	PlayerColor string    `json:"player_color"`
	Tables      string    `json:"tables"`
	ShowHints   bool      `json:"show_hints"`
	LastPlayed  time.Time `json:"last_played"`
}

// DefaultPreferences returns the settings of a new player. Empty difficulty
// and tables defer to the configured defaults.
func DefaultPreferences(username string) *Preferences {
	return &Preferences{
		Username:    username,
		PlayerColor: "w",
		ShowHints:   true,
	}
}

// GameStats stores game statistics
type GameStats struct {
	GamesPlayed    int            `json:"games_played"`
	Wins           int            `json:"wins"`
	Losses         int            `json:"losses"`
	Draws          int            `json:"draws"`
	WinsByDiff     map[string]int `json:"wins_by_difficulty"`
	TotalPlayTime  time.Duration  `json:"total_play_time"`
	LongestWinStrk int            `json:"longest_win_streak"`
	CurrentStreak  int            `json:"current_streak"`
}

// NewGameStats returns empty game statistics
func NewGameStats() *GameStats {
	return &GameStats{WinsByDiff: make(map[string]int)}
}

// WinRate returns the win rate as a percentage (0-100)
func (s *GameStats) WinRate() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.GamesPlayed) * 100
}

// GameResult represents the result of a completed game
type GameResult struct {
	Won        bool
	Draw       bool
	Difficulty string
	Duration   time.Duration
}

// Store wraps BadgerDB for persistent storage.
type Store struct {
	db  *badger.DB
	log zerolog.Logger
}

// Open opens the database in dir, or an in-memory one when dir is empty.
func Open(dir string, log zerolog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = badgerLogger{log.With().Str("component", "badger").Logger()}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", dir, err)
	}
	return &Store{db: db, log: log}, nil
}

// Close closes the database
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// get decodes key into v and leaves v untouched if the key is absent.
func (s *Store) get(key string, v any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
}

// SavePreferences saves user preferences
func (s *Store) SavePreferences(prefs *Preferences) error {
	prefs.LastPlayed = time.Now()
	return s.put(keyPreferences+prefs.Username, prefs)
}

// LoadPreferences loads user preferences, returns defaults if not found
func (s *Store) LoadPreferences(username string) (*Preferences, error) {
	prefs := DefaultPreferences(username)
	err := s.get(keyPreferences+username, prefs)
	return prefs, err
}

// LoadStats loads game statistics, returns empty stats if not found
func (s *Store) LoadStats(username string) (*GameStats, error) {
	stats := NewGameStats()
	if err := s.get(keyStats+username, stats); err != nil {
		return nil, err
	}
	if stats.WinsByDiff == nil {
		stats.WinsByDiff = make(map[string]int)
	}
	return stats, nil
}

// RecordGame records a completed game and updates statistics
func (s *Store) RecordGame(username string, result GameResult) (*GameStats, error) {
	stats, err := s.LoadStats(username)
	if err != nil {
		return nil, err
	}

	stats.GamesPlayed++
	stats.TotalPlayTime += result.Duration

	switch {
	case result.Draw:
		stats.Draws++
		stats.CurrentStreak = 0
	case result.Won:
		stats.Wins++
		stats.CurrentStreak++
		if stats.CurrentStreak > stats.LongestWinStrk {
			stats.LongestWinStrk = stats.CurrentStreak
		}
		stats.WinsByDiff[result.Difficulty]++
	default:
		stats.Losses++
		stats.CurrentStreak = 0
	}

	if err := s.put(keyStats+username, stats); err != nil {
		return nil, err
	}
	s.log.Info().
		Str("player", username).
		Int("games", stats.GamesPlayed).
		Bool("won", result.Won).
		Bool("draw", result.Draw).
		Msg("game recorded")
	return stats, nil
}

// SaveShown stores the fact IDs a player has seen.
func (s *Store) SaveShown(username string, ids []string) error {
	return s.put(keyShown+username, ids)
}

// LoadShown returns the fact IDs a player has seen, empty if none.
func (s *Store) LoadShown(username string) ([]string, error) {
	var ids []string
	err := s.get(keyShown+username, &ids)
	return ids, err
}

// badgerLogger routes badger's logging through zerolog.
type badgerLogger struct {
	log zerolog.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error().Msgf(format, args...)
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn().Msgf(format, args...)
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug().Msgf(format, args...)
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Trace().Msgf(format, args...)
}
