package rules

import (
	"fmt"
	"strings"

	"github.com/notnil/chess"
)

// Session is the shared Position: the committed game plus a stack of
// hypothetical positions pushed by ApplyMove and popped by RevertLastMove.
// It is not safe for concurrent use.
type Session struct {
	game    *chess.Game
	scratch []*chess.Position
	// start rebuilds the initial position for Undo.
	start []func(*chess.Game)
}

// NewSession starts from the standard initial position.
func NewSession() *Session {
	return &Session{game: chess.NewGame()}
}

// NewSessionFromFEN starts from the given FEN.
func NewSessionFromFEN(fen string) (*Session, error) {
	opt, err := chess.FEN(strings.TrimSpace(fen))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFEN, err)
	}
	start := []func(*chess.Game){opt}
	return &Session{game: chess.NewGame(start...), start: start}, nil
}

func (s *Session) current() *chess.Position {
	if n := len(s.scratch); n > 0 {
		return s.scratch[n-1]
	}
	return s.game.Position()
}

// findMove returns the library move matching the squares. A missing
// promotion piece defaults to a queen.
func findMove(pos *chess.Position, from, to chess.Square, promo chess.PieceType) *chess.Move {
	if promo == chess.NoPieceType {
		promo = chess.Queen
	}
	for _, m := range pos.ValidMoves() {
		if m.S1() != from || m.S2() != to {
			continue
		}
		if m.Promo() == chess.NoPieceType || m.Promo() == promo {
			return m
		}
	}
	return nil
}

// ApplyMove plays a hypothetical move on top of the current position.
// Every successful call must be paired with RevertLastMove.
func (s *Session) ApplyMove(from, to chess.Square, promo chess.PieceType) (Outcome, error) {
	before := s.current()
	m := findMove(before, from, to, promo)
	if m == nil {
		return Outcome{}, &MoveError{From: from, To: to, Err: ErrIllegalMove}
	}
	after := before.Update(m)
	s.scratch = append(s.scratch, after)
	return outcomeOf(before, m, after), nil
}

// RevertLastMove undoes the most recent ApplyMove. It is a no-op when
// nothing is applied; committed moves are never reverted.
func (s *Session) RevertLastMove() {
	n := len(s.scratch)
	if n == 0 {
		return
	}
	s.scratch[n-1] = nil
	s.scratch = s.scratch[:n-1]
}

// Pending reports how many hypothetical moves are applied.
func (s *Session) Pending() int {
	return len(s.scratch)
}

// Play commits a move to the game.
func (s *Session) Play(from, to chess.Square, promo chess.PieceType) (Outcome, error) {
	if len(s.scratch) > 0 {
		return Outcome{}, ErrPendingSearch
	}
	if s.Over() {
		return Outcome{}, ErrGameOver
	}
	before := s.game.Position()
	m := findMove(before, from, to, promo)
	if m == nil {
		return Outcome{}, &MoveError{From: from, To: to, Err: ErrIllegalMove}
	}
	if err := s.game.Move(m); err != nil {
		return Outcome{}, &MoveError{From: from, To: to, Err: fmt.Errorf("%w: %v", ErrIllegalMove, err)}
	}
	s.claimDraws()
	return outcomeOf(before, m, s.game.Position()), nil
}

// claimDraws ends the game on a claimable repetition or fifty-move draw.
func (s *Session) claimDraws() {
	for _, method := range s.game.EligibleDraws() {
		if method == chess.ThreefoldRepetition || method == chess.FiftyMoveRule {
			_ = s.game.Draw(method)
			return
		}
	}
}

// LegalMoves lists the legal moves in the library's order. It is empty once
// the committed game is over.
func (s *Session) LegalMoves() []CandidateMove {
	if len(s.scratch) == 0 && s.Over() {
		return nil
	}
	pos := s.current()
	valid := pos.ValidMoves()
	moves := make([]CandidateMove, 0, len(valid))
	for _, m := range valid {
		moves = append(moves, candidateFrom(pos, m))
	}
	return moves
}

// LegalTargets returns the destination squares reachable from one square.
func (s *Session) LegalTargets(from chess.Square) []chess.Square {
	var targets []chess.Square
	for _, m := range s.LegalMoves() {
		if m.From == from && !containsSquare(targets, m.To) {
			targets = append(targets, m.To)
		}
	}
	return targets
}

func containsSquare(list []chess.Square, sq chess.Square) bool {
	for _, s := range list {
		if s == sq {
			return true
		}
	}
	return false
}

// BoardSample snapshots the occupied squares of the current position.
func (s *Session) BoardSample() BoardSample {
	return BoardSample(s.current().Board().SquareMap())
}

// Turn returns the side to move in the current position.
func (s *Session) Turn() chess.Color {
	return s.current().Turn()
}

// FEN encodes the current position.
func (s *Session) FEN() string {
	return s.current().String()
}

func (s *Session) Outcome() chess.Outcome {
	return s.game.Outcome()
}

func (s *Session) Method() chess.Method {
	return s.game.Method()
}

// Over reports whether the committed game has ended.
func (s *Session) Over() bool {
	return s.game.Outcome() != chess.NoOutcome
}

// Undo takes back the last n committed moves by replaying the rest from the
// starting position. A finished game becomes live again.
func (s *Session) Undo(n int) error {
	if len(s.scratch) > 0 {
		return ErrPendingSearch
	}
	moves := s.game.Moves()
	if n < 1 || n > len(moves) {
		return fmt.Errorf("%w: %d of %d moves", ErrNothingToUndo, n, len(moves))
	}

	g := chess.NewGame(s.start...)
	for _, m := range moves[:len(moves)-n] {
		replay := findMove(g.Position(), m.S1(), m.S2(), m.Promo())
		if replay == nil {
			return fmt.Errorf("replay %s: %w", m, ErrIllegalMove)
		}
		if err := g.Move(replay); err != nil {
			return fmt.Errorf("replay %s: %w", m, err)
		}
	}
	s.game = g
	return nil
}

// Len returns the number of committed moves.
func (s *Session) Len() int {
	return len(s.game.Moves())
}

// PGN returns the committed game in PGN.
func (s *Session) PGN() string {
	return s.game.String()
}

// ParseSquare parses algebraic coordinates such as "e4".
func ParseSquare(text string) (chess.Square, error) {
	text = strings.ToLower(strings.TrimSpace(text))
	if len(text) != 2 || text[0] < 'a' || text[0] > 'h' || text[1] < '1' || text[1] > '8' {
		return chess.NoSquare, fmt.Errorf("invalid square %q", text)
	}
	return chess.NewSquare(chess.File(text[0]-'a'), chess.Rank(text[1]-'1')), nil
}

// ParsePromotion parses a promotion letter; empty means none.
func ParsePromotion(text string) (chess.PieceType, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "":
		return chess.NoPieceType, nil
	case "q":
		return chess.Queen, nil
	case "r":
		return chess.Rook, nil
	case "b":
		return chess.Bishop, nil
	case "n":
		return chess.Knight, nil
	}
	return chess.NoPieceType, fmt.Errorf("invalid promotion piece %q", text)
}
