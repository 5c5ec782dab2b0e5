// Package rules adapts github.com/notnil/chess to the apply/revert contract used by the bots.
// All rule knowledge (legal moves, check, mate, draws, FEN) comes from the library.
package rules

import (
	"fmt"

	"github.com/notnil/chess"
)

// CandidateMove is one legal move as produced by the rules engine.
type CandidateMove struct {
	From      chess.Square
	To        chess.Square
	Piece     chess.PieceType
	Captured  chess.PieceType // chess.NoPieceType when nothing is taken
	Promotion chess.PieceType // chess.NoPieceType unless the move promotes
}

// String returns the move in UCI form, e.g. "e7e8q".
func (m CandidateMove) String() string {
	return m.From.String() + m.To.String() + m.Promotion.String()
}

// BoardSample maps every occupied square to its piece.
type BoardSample map[chess.Square]chess.Piece

// MoveKind classifies a played move for display.
type MoveKind int

const (
	Normal MoveKind = iota
	Castling
	EnPassant
	Promotion
)

func (k MoveKind) String() string {
	switch k {
	case Normal:
		return "normal"
	case Castling:
		return "castling"
	case EnPassant:
		return "enPassant"
	case Promotion:
		return "promotion"
	}
	return fmt.Sprintf("MoveKind(%d)", int(k))
}

// Outcome describes the effect of one applied move. Check and mate are read
// from the position that move produced, never from any later state.
type Outcome struct {
	Move      CandidateMove
	Kind      MoveKind
	SAN       string
	Check     bool
	Checkmate bool
	Stalemate bool
}

func candidateFrom(pos *chess.Position, m *chess.Move) CandidateMove {
	board := pos.Board()
	c := CandidateMove{
		From:      m.S1(),
		To:        m.S2(),
		Piece:     board.Piece(m.S1()).Type(),
		Captured:  board.Piece(m.S2()).Type(),
		Promotion: m.Promo(),
	}
	if m.HasTag(chess.EnPassant) {
		c.Captured = chess.Pawn
	}
	return c
}

func kindOf(m *chess.Move) MoveKind {
	switch {
	case m.Promo() != chess.NoPieceType:
		return Promotion
	case m.HasTag(chess.KingSideCastle), m.HasTag(chess.QueenSideCastle):
		return Castling
	case m.HasTag(chess.EnPassant):
		return EnPassant
	}
	return Normal
}

func outcomeOf(before *chess.Position, m *chess.Move, after *chess.Position) Outcome {
	status := after.Status()
	return Outcome{
		Move:      candidateFrom(before, m),
		Kind:      kindOf(m),
		SAN:       chess.AlgebraicNotation{}.Encode(before, m),
		Check:     m.HasTag(chess.Check) || status == chess.Checkmate,
		Checkmate: status == chess.Checkmate,
		Stalemate: status == chess.Stalemate,
	}
}
