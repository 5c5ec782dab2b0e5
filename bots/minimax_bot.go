package bots

import (
	"fmt"
	"math"
	"time"

	"chesstutor/rules"

	"github.com/notnil/chess"
)

// mateScore outranks any material sum.
const mateScore = 1_000_000

type MinimaxBot struct {
	Depth     int
	TimeLimit time.Duration
	Evaluator Evaluator
}

func NewMinimaxBot(depth int, eval Evaluator) *MinimaxBot {
	return &MinimaxBot{
		Depth:     depth,
		TimeLimit: 5 * time.Second,
		Evaluator: eval,
	}
}

func (b *MinimaxBot) Name() string {
	return fmt.Sprintf("Minimax Bot (depth %d)", b.Depth)
}

type scoredMove struct {
	move  rules.CandidateMove
	score int
	found bool
}

// BestMove runs alpha-beta over pos with apply/revert, leaving it unchanged.
func (b *MinimaxBot) BestMove(pos Position) (rules.CandidateMove, bool, error) {
	if pos == nil {
		return rules.CandidateMove{}, false, nil
	}
	if len(pos.LegalMoves()) == 0 {
		return rules.CandidateMove{}, false, nil
	}

	depth := b.Depth
	if depth < 1 {
		depth = 1
	}
	deadline := time.Now().Add(b.TimeLimit)
	result := b.minimax(pos, depth, math.MinInt+1, math.MaxInt, pos.Turn() == chess.White, deadline)
	if !result.found {
		return rules.CandidateMove{}, false, ErrInconsistentMoves
	}
	return result.move, true, nil
}

func (b *MinimaxBot) minimax(pos Position, depth int, alpha, beta int, maximizing bool, deadline time.Time) scoredMove {
	// Время вышло или глубина исчерпана: оцениваем позицию как есть
	if depth == 0 || (b.TimeLimit > 0 && time.Now().After(deadline)) {
		return scoredMove{score: b.Evaluator.Evaluate(pos.BoardSample())}
	}

	var bestMove scoredMove
	if maximizing {
		bestMove.score = math.MinInt + 1
	} else {
		bestMove.score = math.MaxInt
	}

	for _, move := range pos.LegalMoves() {
		score, ok := b.child(pos, move, depth, alpha, beta, maximizing, deadline)
		if !ok {
			continue
		}
		if maximizing {
			if score > bestMove.score || !bestMove.found {
				bestMove = scoredMove{move, score, true}
			}
			alpha = max(alpha, bestMove.score)
		} else {
			if score < bestMove.score || !bestMove.found {
				bestMove = scoredMove{move, score, true}
			}
			beta = min(beta, bestMove.score)
		}
		if beta <= alpha {
			break
		}
	}

	return bestMove
}

// child scores one move from the parent's point of view. Mates found sooner
// score higher so the bot takes the shortest one.
func (b *MinimaxBot) child(pos Position, move rules.CandidateMove, depth, alpha, beta int, maximizing bool, deadline time.Time) (int, bool) {
	outcome, err := pos.ApplyMove(move.From, move.To, move.Promotion)
	if err != nil {
		return 0, false
	}
	defer pos.RevertLastMove()

	switch {
	case outcome.Checkmate:
		if maximizing {
			return mateScore + depth, true
		}
		return -mateScore - depth, true
	case outcome.Stalemate:
		return 0, true
	}
	return b.minimax(pos, depth-1, alpha, beta, !maximizing, deadline).score, true
}
