package bots

import (
	"math/rand"
	"sync"

	"chesstutor/rules"
)

type RandomBot struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomBot(seed int64) *RandomBot {
	return &RandomBot{rng: rand.New(rand.NewSource(seed))}
}

func (b *RandomBot) BestMove(pos Position) (rules.CandidateMove, bool, error) {
	moves := pos.LegalMoves()
	if len(moves) == 0 {
		return rules.CandidateMove{}, false, nil
	}
	b.mu.Lock()
	i := b.rng.Intn(len(moves))
	b.mu.Unlock()
	return moves[i], true, nil
}

func (b *RandomBot) Name() string {
	return "Random Bot"
}
