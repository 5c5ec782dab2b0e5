package bots

import (
	"fmt"
	"strings"

	"chesstutor/rules"

	"github.com/notnil/chess"
)

// Evaluator scores a board sample in centipawns, positive favouring White.
type Evaluator interface {
	Evaluate(sample rules.BoardSample) int
}

// Material values in centipawns. The king constant only keeps kings from
// ever being outweighed by other material.
const (
	PawnValue   = 100
	KnightValue = 320
	BishopValue = 330
	RookValue   = 500
	QueenValue  = 900
	KingValue   = 20000
)

// MaterialValue returns the fixed value of a piece type.
func MaterialValue(pt chess.PieceType) int {
	switch pt {
	case chess.Pawn:
		return PawnValue
	case chess.Knight:
		return KnightValue
	case chess.Bishop:
		return BishopValue
	case chess.Rook:
		return RookValue
	case chess.Queen:
		return QueenValue
	case chess.King:
		return KingValue
	case chess.NoPieceType:
		return 0
	}
	panic(fmt.Sprintf("bots: unknown piece type %d", pt))
}

// Table holds one bonus per square as seen by White: index 0 is a8,
// index 63 is h1.
type Table [64]int

// Tables groups the square tables of every piece type.
type Tables struct {
	Name   string
	Pawn   Table
	Knight Table
	Bishop Table
	Rook   Table
	Queen  Table
	King   Table
}

// For returns the table of a piece type; nil for chess.NoPieceType.
func (t *Tables) For(pt chess.PieceType) *Table {
	switch pt {
	case chess.Pawn:
		return &t.Pawn
	case chess.Knight:
		return &t.Knight
	case chess.Bishop:
		return &t.Bishop
	case chess.Rook:
		return &t.Rook
	case chess.Queen:
		return &t.Queen
	case chess.King:
		return &t.King
	case chess.NoPieceType:
		return nil
	}
	panic(fmt.Sprintf("bots: unknown piece type %d", pt))
}

// tableIndex maps a square to its table entry. Black reads the vertically
// mirrored entry so both sides are scored advancing up the table.
func tableIndex(sq chess.Square, c chess.Color) int {
	rank, file := int(sq.Rank()), int(sq.File())
	if c == chess.Black {
		return rank*8 + file
	}
	return (7-rank)*8 + file
}

// PositionalValue returns the square bonus for a piece.
func (t *Tables) PositionalValue(p chess.Piece, sq chess.Square) int {
	table := t.For(p.Type())
	if table == nil {
		return 0
	}
	return table[tableIndex(sq, p.Color())]
}

// ParseTables resolves a table set by name.
func ParseTables(name string) (*Tables, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", FullTables.Name:
		return &FullTables, nil
	case PawnTables.Name:
		return &PawnTables, nil
	}
	return nil, fmt.Errorf("unknown table set %q", name)
}

// PieceSquareEvaluator sums material and square bonuses over the board.
type PieceSquareEvaluator struct {
	Tables *Tables
}

// NewPieceSquareEvaluator defaults to FullTables when tables is nil.
func NewPieceSquareEvaluator(tables *Tables) PieceSquareEvaluator {
	if tables == nil {
		tables = &FullTables
	}
	return PieceSquareEvaluator{Tables: tables}
}

func (e PieceSquareEvaluator) Evaluate(sample rules.BoardSample) int {
	score := 0
	for sq, piece := range sample {
		if piece == chess.NoPiece {
			continue
		}
		value := MaterialValue(piece.Type()) + e.Tables.PositionalValue(piece, sq)
		if piece.Color() == chess.White {
			score += value
		} else {
			score -= value
		}
	}
	return score
}
