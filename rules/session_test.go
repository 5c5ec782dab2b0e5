package rules

import (
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/notnil/chess"
)

func mustSquare(t *testing.T, text string) chess.Square {
	t.Helper()
	sq, err := ParseSquare(text)
	if err != nil {
		t.Fatalf("ParseSquare(%q) error: %v", text, err)
	}
	return sq
}

func playAll(t *testing.T, s *Session, moves ...string) Outcome {
	t.Helper()
	var out Outcome
	for _, mv := range moves {
		var err error
		out, err = s.Play(mustSquare(t, mv[:2]), mustSquare(t, mv[2:4]), chess.NoPieceType)
		if err != nil {
			t.Fatalf("Play(%s) error: %v", mv, err)
		}
	}
	return out
}

func TestApplyAndRevertRestoresPosition(t *testing.T) {
	s := NewSession()
	fen := s.FEN()
	sample := s.BoardSample()

	for _, m := range s.LegalMoves() {
		if _, err := s.ApplyMove(m.From, m.To, m.Promotion); err != nil {
			t.Fatalf("ApplyMove(%s) error: %v", m, err)
		}
		if s.Turn() != chess.Black {
			t.Fatalf("Turn after ApplyMove(%s) = %v, want black", m, s.Turn())
		}
		s.RevertLastMove()
	}

	if got := s.FEN(); got != fen {
		t.Errorf("FEN = %q, want %q", got, fen)
	}
	if diff := cmp.Diff(sample, s.BoardSample()); diff != "" {
		t.Errorf("board sample mismatch (-want +got):\n%s", diff)
	}
	if s.Pending() != 0 {
		t.Errorf("Pending = %d, want 0", s.Pending())
	}
}

func TestApplyMoveRejectsIllegal(t *testing.T) {
	s := NewSession()
	_, err := s.ApplyMove(chess.E2, chess.E5, chess.NoPieceType)
	if !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("ApplyMove(e2e5) error = %v, want ErrIllegalMove", err)
	}
	var moveErr *MoveError
	if !errors.As(err, &moveErr) || moveErr.From != chess.E2 || moveErr.To != chess.E5 {
		t.Errorf("MoveError = %+v, want e2e5", moveErr)
	}
	if s.Pending() != 0 {
		t.Errorf("Pending = %d after rejected move, want 0", s.Pending())
	}
}

func TestRevertWithNothingAppliedIsNoop(t *testing.T) {
	s := NewSession()
	playAll(t, s, "e2e4")
	fen := s.FEN()
	s.RevertLastMove()
	if s.Len() != 1 || s.FEN() != fen {
		t.Errorf("Len = %d, FEN = %q: committed move must survive revert", s.Len(), s.FEN())
	}
}

func TestPlayRefusedWhileSearchPending(t *testing.T) {
	s := NewSession()
	if _, err := s.ApplyMove(chess.E2, chess.E4, chess.NoPieceType); err != nil {
		t.Fatalf("ApplyMove error: %v", err)
	}
	if _, err := s.Play(chess.D2, chess.D4, chess.NoPieceType); !errors.Is(err, ErrPendingSearch) {
		t.Errorf("Play error = %v, want ErrPendingSearch", err)
	}
	s.RevertLastMove()
}

func TestOutcomeKinds(t *testing.T) {
	tests := []struct {
		name     string
		fen      string
		move     string
		kind     MoveKind
		captured chess.PieceType
		promo    chess.PieceType
	}{
		{"quiet pawn push", "", "e2e4", Normal, chess.NoPieceType, chess.NoPieceType},
		{"king side castle", "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "e1g1", Castling, chess.NoPieceType, chess.NoPieceType},
		{"en passant", "4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 2", "e5d6", EnPassant, chess.Pawn, chess.NoPieceType},
		{"auto queen promotion", "8/P7/8/8/8/8/8/k6K w - - 0 1", "a7a8", Promotion, chess.NoPieceType, chess.Queen},
		{"capture", "4k3/8/8/3p4/4P3/8/8/4K3 w - - 0 1", "e4d5", Normal, chess.Pawn, chess.NoPieceType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession()
			if tt.fen != "" {
				var err error
				s, err = NewSessionFromFEN(tt.fen)
				if err != nil {
					t.Fatalf("NewSessionFromFEN(%q) error: %v", tt.fen, err)
				}
			}
			out := playAll(t, s, tt.move)
			if out.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", out.Kind, tt.kind)
			}
			if out.Move.Captured != tt.captured {
				t.Errorf("Captured = %v, want %v", out.Move.Captured, tt.captured)
			}
			if out.Move.Promotion != tt.promo {
				t.Errorf("Promotion = %v, want %v", out.Move.Promotion, tt.promo)
			}
		})
	}
}

func TestCheckmateReadFromPlayedMove(t *testing.T) {
	s := NewSession()
	out := playAll(t, s, "f2f3", "e7e5", "g2g4", "d8h4")

	if !out.Check || !out.Checkmate {
		t.Errorf("Outcome = %+v, want check and checkmate", out)
	}
	if out.SAN != "Qh4#" {
		t.Errorf("SAN = %q, want Qh4#", out.SAN)
	}
	if !s.Over() || s.Outcome() != chess.BlackWon || s.Method() != chess.Checkmate {
		t.Errorf("game state = %v/%v, want 0-1 by checkmate", s.Outcome(), s.Method())
	}
	if moves := s.LegalMoves(); len(moves) != 0 {
		t.Errorf("LegalMoves after mate = %d, want 0", len(moves))
	}
	if _, err := s.Play(chess.A2, chess.A3, chess.NoPieceType); !errors.Is(err, ErrGameOver) {
		t.Errorf("Play after mate error = %v, want ErrGameOver", err)
	}
}

func TestStalemate(t *testing.T) {
	s, err := NewSessionFromFEN("7k/4Q3/6K1/8/8/8/8/8 w - - 0 1")
	if err != nil {
		t.Fatalf("NewSessionFromFEN error: %v", err)
	}
	out := playAll(t, s, "e7f7")
	if !out.Stalemate || out.Checkmate || out.Check {
		t.Errorf("Outcome = %+v, want stalemate only", out)
	}
	if s.Method() != chess.Stalemate {
		t.Errorf("Method = %v, want stalemate", s.Method())
	}
}

func TestThreefoldRepetitionEndsGame(t *testing.T) {
	s := NewSession()
	playAll(t, s, "g1f3", "g8f6", "f3g1", "f6g8", "g1f3", "g8f6", "f3g1", "f6g8")
	if s.Outcome() != chess.Draw || s.Method() != chess.ThreefoldRepetition {
		t.Errorf("game state = %v/%v, want draw by threefold repetition", s.Outcome(), s.Method())
	}
}

func TestFiftyMoveRuleEndsGame(t *testing.T) {
	s, err := NewSessionFromFEN("4k3/8/8/8/8/8/8/R3K3 w - - 99 80")
	if err != nil {
		t.Fatalf("NewSessionFromFEN error: %v", err)
	}
	playAll(t, s, "a1a2")

	if s.Outcome() != chess.Draw || s.Method() != chess.FiftyMoveRule {
		t.Errorf("game state = %v/%v, want draw by fifty-move rule", s.Outcome(), s.Method())
	}
	if moves := s.LegalMoves(); len(moves) != 0 {
		t.Errorf("LegalMoves after fifty-move draw = %d, want 0", len(moves))
	}
	if _, err := s.Play(chess.E8, chess.D8, chess.NoPieceType); !errors.Is(err, ErrGameOver) {
		t.Errorf("Play after draw error = %v, want ErrGameOver", err)
	}
}

func TestUndo(t *testing.T) {
	s := NewSession()
	start := s.FEN()
	playAll(t, s, "e2e4")
	afterE4 := s.FEN()
	playAll(t, s, "e7e5", "g1f3")

	if err := s.Undo(2); err != nil {
		t.Fatalf("Undo(2) error: %v", err)
	}
	if s.Len() != 1 || s.FEN() != afterE4 {
		t.Errorf("after Undo(2): Len = %d, FEN = %q, want 1 and %q", s.Len(), s.FEN(), afterE4)
	}
	if err := s.Undo(2); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("Undo past start error = %v, want ErrNothingToUndo", err)
	}
	if err := s.Undo(1); err != nil || s.FEN() != start {
		t.Errorf("Undo(1) = %v, FEN = %q, want start position", err, s.FEN())
	}
}

func TestUndoRevivesFinishedGame(t *testing.T) {
	s := NewSession()
	playAll(t, s, "f2f3", "e7e5", "g2g4", "d8h4")
	if err := s.Undo(2); err != nil {
		t.Fatalf("Undo error: %v", err)
	}
	if s.Over() || s.Turn() != chess.White {
		t.Errorf("after Undo: over = %v, turn = %v, want live game with White to move", s.Over(), s.Turn())
	}
	playAll(t, s, "e2e4")
}

func TestUndoFromFEN(t *testing.T) {
	fen := "4k3/8/8/8/8/8/8/R3K3 w - - 10 40"
	s, err := NewSessionFromFEN(fen)
	if err != nil {
		t.Fatalf("NewSessionFromFEN error: %v", err)
	}
	playAll(t, s, "a1a7")
	if _, err := s.ApplyMove(chess.E8, chess.F8, chess.NoPieceType); err != nil {
		t.Fatalf("ApplyMove error: %v", err)
	}
	if err := s.Undo(1); !errors.Is(err, ErrPendingSearch) {
		t.Errorf("Undo during search error = %v, want ErrPendingSearch", err)
	}
	s.RevertLastMove()
	if err := s.Undo(1); err != nil || s.FEN() != fen {
		t.Errorf("Undo = %v, FEN = %q, want %q", err, s.FEN(), fen)
	}
}

func TestPGNAndFEN(t *testing.T) {
	s := NewSession()
	playAll(t, s, "e2e4", "e7e5", "g1f3")

	pgn := s.PGN()
	for _, want := range []string{"1. e4", "e5", "2. Nf3"} {
		if !strings.Contains(pgn, want) {
			t.Errorf("PGN %q does not contain %q", pgn, want)
		}
	}
	if got, want := s.FEN(), "rnbqkbnr/pppp1ppp/8/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R b KQkq - 1 2"; got != want {
		t.Errorf("FEN = %q, want %q", got, want)
	}
}

func TestLegalTargets(t *testing.T) {
	s := NewSession()
	got := s.LegalTargets(chess.G1)
	want := []chess.Square{chess.F3, chess.H3}
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LegalTargets(g1) mismatch (-want +got):\n%s", diff)
	}
}

func TestNewSessionFromFENInvalid(t *testing.T) {
	if _, err := NewSessionFromFEN("not a fen"); !errors.Is(err, ErrInvalidFEN) {
		t.Errorf("error = %v, want ErrInvalidFEN", err)
	}
}

func TestParseSquare(t *testing.T) {
	tests := []struct {
		in      string
		want    chess.Square
		wantErr bool
	}{
		{"a1", chess.A1, false},
		{"E4", chess.E4, false},
		{"h8", chess.H8, false},
		{"i1", chess.NoSquare, true},
		{"a9", chess.NoSquare, true},
		{"", chess.NoSquare, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSquare(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSquare(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseSquare(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
