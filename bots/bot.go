// bot.go
package bots

import (
	"fmt"
	"strings"
	"time"

	"chesstutor/rules"

	"github.com/notnil/chess"
	"github.com/rs/zerolog"
)

// Position is the rules-engine state a bot searches. Every ApplyMove that
// succeeds must be undone with RevertLastMove before the bot returns.
type Position interface {
	ApplyMove(from, to chess.Square, promo chess.PieceType) (rules.Outcome, error)
	RevertLastMove()
	LegalMoves() []rules.CandidateMove
	BoardSample() rules.BoardSample
	Turn() chess.Color
}

// ChessBot picks a move for the side to move. found is false when there is
// no move to play.
type ChessBot interface {
	BestMove(pos Position) (move rules.CandidateMove, found bool, err error)
	Name() string
}

// Difficulty selects the opponent.
type Difficulty int

const (
	Easy Difficulty = iota
	Normal
	Hard
	// Random plays any legal move.
	Random
	// Newborn always plays the first legal move.
	Newborn
)

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Normal:
		return "normal"
	case Hard:
		return "hard"
	case Random:
		return "random"
	case Newborn:
		return "newborn"
	}
	return fmt.Sprintf("Difficulty(%d)", int(d))
}

// ParseDifficulty accepts the names produced by String.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "easy":
		return Easy, nil
	case "normal":
		return Normal, nil
	case "hard":
		return Hard, nil
	case "random":
		return Random, nil
	case "newborn":
		return Newborn, nil
	}
	return Easy, fmt.Errorf("unknown difficulty %q", s)
}

// ForDifficulty builds the opponent for a difficulty level: the one-ply
// greedy selector on easy, alpha-beta on the same evaluator above that.
// Random and Newborn ignore the evaluator.
func ForDifficulty(d Difficulty, eval Evaluator, log zerolog.Logger) ChessBot {
	switch d {
	case Random:
		return NewRandomBot(time.Now().UnixNano())
	case Newborn:
		return NewNewbornBot()
	case Normal:
		return NewMinimaxBot(2, eval)
	case Hard:
		return NewMinimaxBot(3, eval)
	}
	return NewGreedyBot(eval, log)
}
