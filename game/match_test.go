package game

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"chesstutor/bots"
	"chesstutor/facts"
	"chesstutor/rules"

	"github.com/notnil/chess"
	"github.com/rs/zerolog"
)

// scriptedBot plays a fixed list of moves.
type scriptedBot struct {
	moves []rules.CandidateMove
}

func (b *scriptedBot) BestMove(pos bots.Position) (rules.CandidateMove, bool, error) {
	if len(b.moves) == 0 {
		return rules.CandidateMove{}, false, nil
	}
	m := b.moves[0]
	b.moves = b.moves[1:]
	return m, true, nil
}

func (b *scriptedBot) Name() string { return "scripted" }

type brokenEvaluator struct{}

func (brokenEvaluator) Evaluate(rules.BoardSample) int { panic("broken") }

func newTestMatch(cfg Config) *Match {
	cfg.Logger = zerolog.Nop()
	cfg.Picker = facts.NewPicker(facts.DefaultCatalog(), rand.New(rand.NewSource(3)))
	return NewMatch(cfg)
}

func TestPlayerThenBot(t *testing.T) {
	m := newTestMatch(Config{PlayerColor: chess.White})

	rec, fact, err := m.PlayerMove(chess.E2, chess.E4, chess.NoPieceType)
	if err != nil {
		t.Fatalf("PlayerMove error: %v", err)
	}
	if rec.SAN != "e4" || rec.IsAI || rec.MoveNumber != 1 || rec.Piece != "p" {
		t.Errorf("player record = %+v", rec)
	}
	if fact == nil || !fact.About(chess.Pawn) {
		t.Errorf("fact = %+v, want one about pawns", fact)
	}

	if _, _, err := m.PlayerMove(chess.D2, chess.D4, chess.NoPieceType); !errors.Is(err, ErrNotYourTurn) {
		t.Errorf("second PlayerMove error = %v, want ErrNotYourTurn", err)
	}
	if !m.BotToMove() {
		t.Error("BotToMove = false after player move")
	}

	ai, err := m.AIMove(context.Background())
	if err != nil {
		t.Fatalf("AIMove error: %v", err)
	}
	if !ai.IsAI || ai.MoveNumber != 2 {
		t.Errorf("ai record = %+v", ai)
	}

	snap := m.Snapshot()
	if snap.Turn != "w" || len(snap.History) != 2 || snap.Status != "playing" || snap.Result != "*" {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.Fact == "" {
		t.Error("snapshot lost the last fact")
	}
}

func TestAIMoveOnPlayersTurn(t *testing.T) {
	m := newTestMatch(Config{PlayerColor: chess.White})
	if _, err := m.AIMove(context.Background()); !errors.Is(err, ErrNotYourTurn) {
		t.Errorf("AIMove error = %v, want ErrNotYourTurn", err)
	}
}

func TestBotOpensAsWhite(t *testing.T) {
	m := newTestMatch(Config{PlayerColor: chess.Black, Difficulty: bots.Normal})
	if _, _, err := m.PlayerMove(chess.E7, chess.E5, chess.NoPieceType); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("PlayerMove before bot error = %v, want ErrNotYourTurn", err)
	}
	if _, err := m.AIMove(context.Background()); err != nil {
		t.Fatalf("AIMove error: %v", err)
	}
	if got := m.Snapshot().Turn; got != "b" {
		t.Errorf("Turn after bot opening = %s, want b", got)
	}
}

func TestAIMoveCancelledDuringDelay(t *testing.T) {
	m := newTestMatch(Config{PlayerColor: chess.Black, ThinkDelay: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := m.AIMove(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("AIMove error = %v, want context.Canceled", err)
	}
	if m.Snapshot().Thinking {
		t.Error("Thinking still set after cancelled AIMove")
	}
	if len(m.Snapshot().History) != 0 {
		t.Error("cancelled AIMove played a move")
	}
}

func TestCheckmateEndsMatch(t *testing.T) {
	bot := &scriptedBot{moves: []rules.CandidateMove{
		{From: chess.E7, To: chess.E5},
		{From: chess.D8, To: chess.H4},
	}}
	m := newTestMatch(Config{PlayerColor: chess.White, Bot: bot})

	for _, mv := range [][2]chess.Square{{chess.F2, chess.F3}, {chess.G2, chess.G4}} {
		if _, _, err := m.PlayerMove(mv[0], mv[1], chess.NoPieceType); err != nil {
			t.Fatalf("PlayerMove error: %v", err)
		}
		if _, err := m.AIMove(context.Background()); err != nil {
			t.Fatalf("AIMove error: %v", err)
		}
	}

	snap := m.Snapshot()
	if snap.Status != "checkmate" || snap.Result != "0-1" {
		t.Errorf("snapshot status = %s result = %s, want checkmate 0-1", snap.Status, snap.Result)
	}
	if last := snap.History[len(snap.History)-1]; !last.IsCheckmate || !last.IsAI {
		t.Errorf("last record = %+v, want AI checkmate", last)
	}
	if !strings.Contains(snap.PGN, "Qh4#") {
		t.Errorf("PGN = %q, want it to contain Qh4#", snap.PGN)
	}
	if won, draw, ok := m.Result(); !ok || won || draw {
		t.Errorf("Result = (%v, %v, %v), want loss", won, draw, ok)
	}
	if _, _, err := m.PlayerMove(chess.A2, chess.A3, chess.NoPieceType); !errors.Is(err, ErrGameOver) {
		t.Errorf("PlayerMove after mate error = %v, want ErrGameOver", err)
	}
}

func TestIllegalPlayerMove(t *testing.T) {
	m := newTestMatch(Config{PlayerColor: chess.White})
	if _, _, err := m.PlayerMove(chess.E2, chess.E5, chess.NoPieceType); !errors.Is(err, rules.ErrIllegalMove) {
		t.Errorf("PlayerMove error = %v, want rules.ErrIllegalMove", err)
	}
	if len(m.Snapshot().History) != 0 {
		t.Error("illegal move was recorded")
	}
}

func TestBotSearchFailureIsReported(t *testing.T) {
	m := newTestMatch(Config{
		PlayerColor: chess.Black,
		Bot:         bots.NewGreedyBot(brokenEvaluator{}, zerolog.Nop()),
	})
	before := m.Snapshot().FEN

	_, err := m.AIMove(context.Background())
	if !errors.Is(err, bots.ErrSearchFailed) {
		t.Fatalf("AIMove error = %v, want bots.ErrSearchFailed", err)
	}
	if got := m.Snapshot().FEN; got != before {
		t.Errorf("FEN after failed search = %q, want %q", got, before)
	}
}

func TestResetClearsState(t *testing.T) {
	m := newTestMatch(Config{PlayerColor: chess.White})
	if _, _, err := m.PlayerMove(chess.D2, chess.D4, chess.NoPieceType); err != nil {
		t.Fatalf("PlayerMove error: %v", err)
	}
	m.Reset()

	snap := m.Snapshot()
	if len(snap.History) != 0 || snap.Fact != "" || snap.Turn != "w" {
		t.Errorf("snapshot after Reset = %+v", snap)
	}
	if len(m.ShownIDs()) != 0 {
		t.Errorf("shown facts after Reset = %v", m.ShownIDs())
	}
}

func TestLegalTargetsAndPieceAt(t *testing.T) {
	m := newTestMatch(Config{})
	if got := m.LegalTargets(chess.E2); len(got) != 2 {
		t.Errorf("LegalTargets(e2) = %v, want two squares", got)
	}
	if got := m.PieceAt(chess.E1); got != chess.WhiteKing {
		t.Errorf("PieceAt(e1) = %v, want white king", got)
	}
}

func TestUndoTakesBackPlayerAndReply(t *testing.T) {
	m := newTestMatch(Config{PlayerColor: chess.White})
	start := m.Snapshot().FEN
	if _, _, err := m.PlayerMove(chess.E2, chess.E4, chess.NoPieceType); err != nil {
		t.Fatalf("PlayerMove error: %v", err)
	}
	if _, err := m.AIMove(context.Background()); err != nil {
		t.Fatalf("AIMove error: %v", err)
	}

	if err := m.Undo(); err != nil {
		t.Fatalf("Undo error: %v", err)
	}
	snap := m.Snapshot()
	if snap.FEN != start || len(snap.History) != 0 || snap.Ply != 0 || snap.Fact != "" {
		t.Errorf("snapshot after Undo = %+v", snap)
	}
	if err := m.Undo(); !errors.Is(err, rules.ErrNothingToUndo) {
		t.Errorf("second Undo error = %v, want rules.ErrNothingToUndo", err)
	}
}

func TestUndoKeepsBotOpening(t *testing.T) {
	m := newTestMatch(Config{PlayerColor: chess.Black})
	if _, err := m.AIMove(context.Background()); err != nil {
		t.Fatalf("AIMove error: %v", err)
	}
	if err := m.Undo(); !errors.Is(err, rules.ErrNothingToUndo) {
		t.Errorf("Undo error = %v, want rules.ErrNothingToUndo", err)
	}
	if len(m.Snapshot().History) != 1 {
		t.Error("Undo removed the bot's opening move")
	}
}

func TestUndoRevivesMatedGame(t *testing.T) {
	bot := &scriptedBot{moves: []rules.CandidateMove{
		{From: chess.E7, To: chess.E5},
		{From: chess.D8, To: chess.H4},
		{From: chess.B8, To: chess.C6},
	}}
	m := newTestMatch(Config{PlayerColor: chess.White, Bot: bot})
	for _, mv := range [][2]chess.Square{{chess.F2, chess.F3}, {chess.G2, chess.G4}} {
		if _, _, err := m.PlayerMove(mv[0], mv[1], chess.NoPieceType); err != nil {
			t.Fatalf("PlayerMove error: %v", err)
		}
		if _, err := m.AIMove(context.Background()); err != nil {
			t.Fatalf("AIMove error: %v", err)
		}
	}

	if err := m.Undo(); err != nil {
		t.Fatalf("Undo error: %v", err)
	}
	snap := m.Snapshot()
	if snap.Status != "playing" || snap.Turn != "w" || len(snap.History) != 2 {
		t.Errorf("snapshot after Undo = %+v", snap)
	}
	if _, _, err := m.PlayerMove(chess.E2, chess.E4, chess.NoPieceType); err != nil {
		t.Errorf("PlayerMove after Undo error: %v", err)
	}
}
