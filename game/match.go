// Package game runs a human-versus-bot match: it owns the shared rules
// session, serializes every access to it and keeps the move history.
package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"chesstutor/bots"
	"chesstutor/facts"
	"chesstutor/rules"

	"github.com/notnil/chess"
	"github.com/rs/zerolog"
)

var (
	ErrNotYourTurn = errors.New("not your turn")
	ErrGameOver    = errors.New("game is over")
	ErrBusy        = errors.New("bot is already thinking")
	// ErrNoMove means the bot found nothing to play in a game that is not over.
	ErrNoMove = errors.New("bot found no move")
)

type Config struct {
	PlayerColor chess.Color
	Difficulty  bots.Difficulty
	Tables      *bots.Tables
	ThinkDelay  time.Duration
	// Bot overrides the difficulty's default opponent.
	Bot    bots.ChessBot
	Picker *facts.Picker
	Logger zerolog.Logger
}

// MoveRecord is one entry of the move list.
type MoveRecord struct {
	From        string    `json:"from"`
	To          string    `json:"to"`
	SAN         string    `json:"san"`
	Piece       string    `json:"piece"`
	Captured    string    `json:"captured,omitempty"`
	Promotion   string    `json:"promotion,omitempty"`
	Kind        string    `json:"kind"`
	MoveNumber  int       `json:"move_number"`
	Timestamp   time.Time `json:"timestamp"`
	IsCheck     bool      `json:"is_check"`
	IsCheckmate bool      `json:"is_checkmate"`
	IsAI        bool      `json:"is_ai"`
}

type Match struct {
	mu          sync.Mutex
	session     *rules.Session
	bot         bots.ChessBot
	picker      *facts.Picker
	shown       *facts.Shown
	playerColor chess.Color
	difficulty  bots.Difficulty
	thinkDelay  time.Duration
	history     []MoveRecord
	lastFact    *facts.Fact
	botThinking bool
	started     time.Time
	log         zerolog.Logger
}

func NewMatch(cfg Config) *Match {
	if cfg.PlayerColor == chess.NoColor {
		cfg.PlayerColor = chess.White
	}
	if cfg.Bot == nil {
		cfg.Bot = bots.ForDifficulty(cfg.Difficulty, bots.NewPieceSquareEvaluator(cfg.Tables), cfg.Logger)
	}
	if cfg.Picker == nil {
		cfg.Picker = facts.NewPicker(facts.DefaultCatalog(), rand.New(rand.NewSource(time.Now().UnixNano())))
	}
	return &Match{
		session:     rules.NewSession(),
		bot:         cfg.Bot,
		picker:      cfg.Picker,
		shown:       facts.NewShown(),
		playerColor: cfg.PlayerColor,
		difficulty:  cfg.Difficulty,
		thinkDelay:  cfg.ThinkDelay,
		started:     time.Now(),
		log:         cfg.Logger.With().Str("bot", cfg.Bot.Name()).Logger(),
	}
}

// UseShown replaces the shown-fact set, e.g. with one restored from storage.
func (m *Match) UseShown(shown *facts.Shown) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shown = shown
}

func (m *Match) ShownIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shown.IDs()
}

func (m *Match) PlayerColor() chess.Color { return m.playerColor }

func (m *Match) Difficulty() bots.Difficulty { return m.difficulty }

func (m *Match) BotName() string { return m.bot.Name() }

// Reset starts a fresh game with the same settings.
func (m *Match) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = rules.NewSession()
	m.history = nil
	m.lastFact = nil
	m.shown.Reset()
	m.started = time.Now()
}

// Undo takes back the player's last move together with any bot reply
// after it, so the player is to move again.
func (m *Match) Undo() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.botThinking {
		return ErrBusy
	}

	n := 0
	for i := len(m.history) - 1; i >= 0; i-- {
		n++
		if !m.history[i].IsAI {
			break
		}
		if i == 0 {
			// only bot moves left, e.g. its opening move as White
			return rules.ErrNothingToUndo
		}
	}
	if n == 0 {
		return rules.ErrNothingToUndo
	}
	if err := m.session.Undo(n); err != nil {
		return err
	}
	m.history = m.history[:len(m.history)-n]
	m.lastFact = nil
	m.log.Debug().Int("moves", n).Msg("undo")
	return nil
}

// BotToMove reports whether the bot should move next.
func (m *Match) BotToMove() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.session.Over() && m.session.Turn() != m.playerColor && !m.botThinking
}

// PlayerMove plays the human's move and picks a fact about the moved piece.
func (m *Match) PlayerMove(from, to chess.Square, promo chess.PieceType) (MoveRecord, *facts.Fact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session.Over() {
		return MoveRecord{}, nil, ErrGameOver
	}
	if m.session.Turn() != m.playerColor || m.botThinking {
		return MoveRecord{}, nil, ErrNotYourTurn
	}

	outcome, err := m.session.Play(from, to, promo)
	if err != nil {
		return MoveRecord{}, nil, err
	}
	rec := m.record(outcome, false)

	m.lastFact = nil
	if f, ok := m.picker.Pick(m.shown, outcome.Move.Piece); ok {
		m.lastFact = &f
	}
	return rec, m.lastFact, nil
}

// AIMove waits the think delay, then lets the bot choose and plays its move.
// Only one call may be outstanding.
func (m *Match) AIMove(ctx context.Context) (MoveRecord, error) {
	m.mu.Lock()
	if err := m.botMayMove(); err != nil {
		m.mu.Unlock()
		return MoveRecord{}, err
	}
	m.botThinking = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.botThinking = false
		m.mu.Unlock()
	}()

	if m.thinkDelay > 0 {
		timer := time.NewTimer(m.thinkDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return MoveRecord{}, ctx.Err()
		case <-timer.C:
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Reset may have run during the delay.
	if m.session.Over() || m.session.Turn() == m.playerColor {
		return MoveRecord{}, ErrNotYourTurn
	}

	start := time.Now()
	move, found, err := m.bot.BestMove(m.session)
	if err != nil {
		m.log.Error().Err(err).Str("fen", m.session.FEN()).Msg("bot search failed")
		return MoveRecord{}, fmt.Errorf("bot search: %w", err)
	}
	if !found {
		m.log.Error().Str("fen", m.session.FEN()).Msg("bot found no move in a live game")
		return MoveRecord{}, ErrNoMove
	}

	outcome, err := m.session.Play(move.From, move.To, move.Promotion)
	if err != nil {
		return MoveRecord{}, fmt.Errorf("play bot move %s: %w", move, err)
	}
	m.log.Debug().
		Str("move", outcome.SAN).
		Dur("took", time.Since(start)).
		Msg("bot moved")
	return m.record(outcome, true), nil
}

func (m *Match) botMayMove() error {
	switch {
	case m.session.Over():
		return ErrGameOver
	case m.botThinking:
		return ErrBusy
	case m.session.Turn() == m.playerColor:
		return ErrNotYourTurn
	}
	return nil
}

func (m *Match) record(o rules.Outcome, ai bool) MoveRecord {
	rec := MoveRecord{
		From:        o.Move.From.String(),
		To:          o.Move.To.String(),
		SAN:         o.SAN,
		Piece:       o.Move.Piece.String(),
		Captured:    o.Move.Captured.String(),
		Promotion:   o.Move.Promotion.String(),
		Kind:        o.Kind.String(),
		MoveNumber:  len(m.history) + 1,
		Timestamp:   time.Now(),
		IsCheck:     o.Check,
		IsCheckmate: o.Checkmate,
		IsAI:        ai,
	}
	m.history = append(m.history, rec)
	return rec
}

// LegalTargets lists destinations for the piece on from, for highlighting.
func (m *Match) LegalTargets(from chess.Square) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, sq := range m.session.LegalTargets(from) {
		out = append(out, sq.String())
	}
	return out
}

// PieceAt returns the piece on a square of the committed position.
func (m *Match) PieceAt(sq chess.Square) chess.Piece {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.BoardSample()[sq]
}

// Board returns a copy of the committed position's pieces.
func (m *Match) Board() rules.BoardSample {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.BoardSample()
}

// Snapshot is a consistent copy of the match state.
type Snapshot struct {
	FEN        string        `json:"fen"`
	Turn       string        `json:"turn"`
	Player     string        `json:"player"`
	Difficulty string        `json:"difficulty"`
	Bot        string        `json:"bot"`
	Status     string        `json:"status"`
	Result     string        `json:"result"`
	Method     string        `json:"method,omitempty"`
	Thinking   bool          `json:"thinking"`
	LegalMoves int           `json:"legal_moves"`
	History    []MoveRecord  `json:"history"`
	PGN        string        `json:"pgn"`
	Ply        int           `json:"ply"`
	Fact       string        `json:"fact,omitempty"`
	Duration   time.Duration `json:"-"`
}

func (m *Match) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		FEN:        m.session.FEN(),
		Turn:       m.session.Turn().String(),
		Player:     m.playerColor.String(),
		Difficulty: m.difficulty.String(),
		Bot:        m.bot.Name(),
		Status:     "playing",
		Result:     m.session.Outcome().String(),
		Thinking:   m.botThinking,
		LegalMoves: len(m.session.LegalMoves()),
		History:    append([]MoveRecord(nil), m.history...),
		PGN:        m.session.PGN(),
		Ply:        m.session.Len(),
		Duration:   time.Since(m.started),
	}
	if m.session.Over() {
		snap.Status = statusOf(m.session.Method())
		snap.Method = m.session.Method().String()
	}
	if m.lastFact != nil {
		snap.Fact = m.lastFact.Markdown()
	}
	return snap
}

func statusOf(method chess.Method) string {
	switch method {
	case chess.Checkmate:
		return "checkmate"
	case chess.Stalemate:
		return "stalemate"
	}
	return "draw"
}

// Result reports how a finished game went for the human; ok is false while
// the game is still running.
func (m *Match) Result() (won, draw, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.session.Outcome() {
	case chess.WhiteWon:
		return m.playerColor == chess.White, false, true
	case chess.BlackWon:
		return m.playerColor == chess.Black, false, true
	case chess.Draw:
		return false, true, true
	}
	return false, false, false
}
