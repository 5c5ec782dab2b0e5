package bots

import (
	"errors"
	"fmt"
	"math"

	"chesstutor/rules"

	"github.com/notnil/chess"
	"github.com/rs/zerolog"
)

var (
	// ErrInconsistentMoves means none of the supplied moves could be applied.
	// It is not an end-of-game signal.
	ErrInconsistentMoves = errors.New("no supplied move could be applied")

	// ErrSearchFailed means evaluation of a candidate failed.
	ErrSearchFailed = errors.New("move search failed")
)

// SearchError reports the candidate whose evaluation failed.
type SearchError struct {
	Move  rules.CandidateMove
	Cause error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("%v: evaluating %s: %v", ErrSearchFailed, e.Move, e.Cause)
}

func (e *SearchError) Unwrap() []error {
	return []error{ErrSearchFailed, e.Cause}
}

// MoveSelector picks the move whose resulting position evaluates best for
// the side to move, looking one ply ahead.
type MoveSelector struct {
	eval Evaluator
	log  zerolog.Logger
}

func NewMoveSelector(eval Evaluator, log zerolog.Logger) *MoveSelector {
	return &MoveSelector{eval: eval, log: log}
}

// SelectBestMove applies, scores and reverts each move in order and returns
// the first move with the highest score. found is false with a nil error
// when moves is empty.
func (s *MoveSelector) SelectBestMove(pos Position, moves []rules.CandidateMove) (rules.CandidateMove, bool, error) {
	if len(moves) == 0 {
		return rules.CandidateMove{}, false, nil
	}

	sign := 1
	if pos.Turn() == chess.Black {
		sign = -1
	}

	var best rules.CandidateMove
	bestScore := math.MinInt
	found := false
	for _, m := range moves {
		score, applied, err := s.score(pos, m)
		if err != nil {
			return rules.CandidateMove{}, false, err
		}
		if !applied {
			continue
		}
		if score *= sign; score > bestScore {
			best, bestScore, found = m, score, true
		}
	}

	if !found {
		return rules.CandidateMove{}, false, fmt.Errorf("%w: %d candidates rejected", ErrInconsistentMoves, len(moves))
	}
	return best, true, nil
}

// score evaluates one candidate. The revert runs even if evaluation panics.
func (s *MoveSelector) score(pos Position, m rules.CandidateMove) (score int, applied bool, err error) {
	if _, err := pos.ApplyMove(m.From, m.To, m.Promotion); err != nil {
		s.log.Warn().Err(err).Str("move", m.String()).Msg("candidate rejected by rules engine")
		return 0, false, nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = &SearchError{Move: m, Cause: fmt.Errorf("%v", r)}
		}
	}()
	defer pos.RevertLastMove()
	return s.eval.Evaluate(pos.BoardSample()), true, nil
}

// GreedyBot plays the MoveSelector's choice over every legal move.
type GreedyBot struct {
	selector *MoveSelector
}

func NewGreedyBot(eval Evaluator, log zerolog.Logger) *GreedyBot {
	return &GreedyBot{selector: NewMoveSelector(eval, log)}
}

func (b *GreedyBot) BestMove(pos Position) (rules.CandidateMove, bool, error) {
	return b.selector.SelectBestMove(pos, pos.LegalMoves())
}

func (b *GreedyBot) Name() string {
	return "Greedy"
}
