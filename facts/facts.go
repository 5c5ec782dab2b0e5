// Package facts holds the educational commentary shown after moves and the
// picker that draws from it without repeating until the pool runs out.
package facts

import (
	"fmt"
	"strings"

	"github.com/notnil/chess"
)

// Subject is the piece a fact talks about.
type Subject int

const (
	AnyPiece Subject = iota
	King
	Queen
	Rook
	Bishop
	Knight
	Pawn
)

// SubjectOf maps a piece type to its subject; chess.NoPieceType maps to AnyPiece.
func SubjectOf(pt chess.PieceType) Subject {
	switch pt {
	case chess.King:
		return King
	case chess.Queen:
		return Queen
	case chess.Rook:
		return Rook
	case chess.Bishop:
		return Bishop
	case chess.Knight:
		return Knight
	case chess.Pawn:
		return Pawn
	case chess.NoPieceType:
		return AnyPiece
	}
	panic(fmt.Sprintf("facts: unknown piece type %d", pt))
}

func (s Subject) String() string {
	switch s {
	case AnyPiece:
		return "all"
	case King:
		return "k"
	case Queen:
		return "q"
	case Rook:
		return "r"
	case Bishop:
		return "b"
	case Knight:
		return "n"
	case Pawn:
		return "p"
	}
	return fmt.Sprintf("Subject(%d)", int(s))
}

func (s Subject) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Subject) UnmarshalText(text []byte) (err error) {
	*s, err = ParseSubject(string(text))
	return err
}

// ParseSubject accepts a piece letter or "all".
func ParseSubject(text string) (Subject, error) {
	for s := AnyPiece; s <= Pawn; s++ {
		if strings.EqualFold(text, s.String()) {
			return s, nil
		}
	}
	return AnyPiece, fmt.Errorf("unknown piece %q", text)
}

// Level is the reader's experience.
type Level int

const (
	Beginner Level = iota
	Intermediate
	Advanced
)

func (l Level) String() string {
	switch l {
	case Beginner:
		return "beginner"
	case Intermediate:
		return "intermediate"
	case Advanced:
		return "advanced"
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

func (l Level) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

func (l *Level) UnmarshalText(text []byte) (err error) {
	*l, err = ParseLevel(string(text))
	return err
}

func ParseLevel(text string) (Level, error) {
	for l := Beginner; l <= Advanced; l++ {
		if strings.EqualFold(text, l.String()) {
			return l, nil
		}
	}
	return Beginner, fmt.Errorf("unknown level %q", text)
}

type Category int

const (
	History Category = iota
	Strategy
	Rules
	Tips
)

func (c Category) String() string {
	switch c {
	case History:
		return "history"
	case Strategy:
		return "strategy"
	case Rules:
		return "rules"
	case Tips:
		return "tips"
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

func (c Category) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Category) UnmarshalText(text []byte) (err error) {
	*c, err = ParseCategory(string(text))
	return err
}

func ParseCategory(text string) (Category, error) {
	for c := History; c <= Tips; c++ {
		if strings.EqualFold(text, c.String()) {
			return c, nil
		}
	}
	return History, fmt.Errorf("unknown category %q", text)
}

// Fact is one piece of commentary.
type Fact struct {
	ID       string   `json:"id"`
	Subject  Subject  `json:"piece"`
	Level    Level    `json:"level"`
	Category Category `json:"category"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
}

// Markdown renders the fact as a bold title over its content.
func (f Fact) Markdown() string {
	return "**" + f.Title + "**\n\n" + f.Content
}

// About reports whether the fact applies to moves of the given piece type.
func (f Fact) About(pt chess.PieceType) bool {
	return f.Subject == AnyPiece || f.Subject == SubjectOf(pt)
}
