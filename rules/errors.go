package rules

import (
	"errors"
	"fmt"

	"github.com/notnil/chess"
)

var (
	// ErrIllegalMove indicates a move the rules engine rejected.
	ErrIllegalMove = errors.New("illegal move")

	// ErrInvalidFEN indicates a malformed FEN string.
	ErrInvalidFEN = errors.New("invalid FEN string")

	// ErrGameOver indicates a move was attempted after the game ended.
	ErrGameOver = errors.New("game is over")

	// ErrNothingToUndo indicates an undo past the start of the game.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrPendingSearch indicates a committed move was attempted while
	// hypothetical moves are still applied.
	ErrPendingSearch = errors.New("hypothetical moves still applied")
)

// MoveError carries the squares of a rejected move.
type MoveError struct {
	From chess.Square
	To   chess.Square
	Err  error
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("move %s%s: %v", e.From, e.To, e.Err)
}

func (e *MoveError) Unwrap() error {
	return e.Err
}
