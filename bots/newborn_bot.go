package bots

import "chesstutor/rules"

// NewbornBot always plays the first legal move.
type NewbornBot struct{}

func NewNewbornBot() *NewbornBot {
	return &NewbornBot{}
}

func (b *NewbornBot) BestMove(pos Position) (rules.CandidateMove, bool, error) {
	moves := pos.LegalMoves()
	if len(moves) > 0 {
		return moves[0], true, nil
	}
	return rules.CandidateMove{}, false, nil
}

func (b *NewbornBot) Name() string {
	return "Newborn"
}
