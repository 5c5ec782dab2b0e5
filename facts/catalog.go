package facts

// Catalog is an immutable list of facts.
type Catalog struct {
	facts []Fact
}

// NewCatalog copies the given facts.
func NewCatalog(list []Fact) *Catalog {
	return &Catalog{facts: append([]Fact(nil), list...)}
}

// DefaultCatalog returns the built-in commentary.
func DefaultCatalog() *Catalog {
	return NewCatalog(builtin)
}

func (c *Catalog) filter(keep func(Fact) bool) []Fact {
	var out []Fact
	for _, f := range c.facts {
		if keep(f) {
			out = append(out, f)
		}
	}
	return out
}

// ForSubject returns facts about the subject plus the general ones.
func (c *Catalog) ForSubject(s Subject) []Fact {
	return c.filter(func(f Fact) bool { return f.Subject == s || f.Subject == AnyPiece })
}

func (c *Catalog) ForLevel(l Level) []Fact {
	return c.filter(func(f Fact) bool { return f.Level == l })
}

func (c *Catalog) ForCategory(cat Category) []Fact {
	return c.filter(func(f Fact) bool { return f.Category == cat })
}

func (c *Catalog) All() []Fact {
	return append([]Fact(nil), c.facts...)
}

func (c *Catalog) Len() int {
	return len(c.facts)
}

var builtin = []Fact{
	{"king-1", King, Beginner, Rules, "The Piece You Cannot Lose",
		"Checkmate ends the game, so every plan starts with keeping your own king safe. The king steps one square in any direction."},
	{"king-2", King, Intermediate, Rules, "Castling",
		"Castling is the only move where the king travels two squares. It tucks the king away and activates a rook, but it is not allowed out of, through, or into check."},
	{"king-3", King, Advanced, Strategy, "An Active Endgame King",
		"Once the queens are traded the king becomes a fighting piece. March it toward the centre to support passed pawns and attack weak ones."},

	{"queen-1", Queen, Beginner, Rules, "The Strongest Piece",
		"The queen moves like a rook and a bishop together. At about nine pawns she is worth more than a rook plus a minor piece."},
	{"queen-2", Queen, Intermediate, Strategy, "Develop Her Later",
		"Bringing the queen out early lets minor pieces chase her with tempo. Develop knights and bishops first."},
	{"queen-3", Queen, Advanced, Strategy, "Trading Queens",
		"Keep queens on in open, tactical positions where you have the initiative. Trade them when you are ahead in material or your king is the weaker one."},

	{"rook-1", Rook, Beginner, History, "Castle Towers",
		"Rooks are shaped like castle towers. They slide along ranks and files and are at their best on open files."},
	{"rook-2", Rook, Intermediate, Strategy, "Connect Your Rooks",
		"Rooks that defend each other on the back rank are far stronger than rooks left apart. Put them on open or half-open files."},
	{"rook-3", Rook, Advanced, Strategy, "Behind Passed Pawns",
		"In rook endings the rook belongs behind passed pawns, your own or your opponent's. Activity matters more than a pawn."},

	{"bishop-1", Bishop, Beginner, Rules, "Diagonal Only",
		"A bishop never leaves the colour it starts on. Each side begins with one light-squared and one dark-squared bishop."},
	{"bishop-2", Bishop, Intermediate, Strategy, "The Bishop Pair",
		"Two bishops cover both colours and grow stronger as the position opens. Giving one up for a knight needs a reason."},
	{"bishop-3", Bishop, Advanced, Strategy, "Good and Bad Bishops",
		"A bishop hemmed in by its own pawns on its colour is a bad bishop. Place your pawns on the other colour to free it."},

	{"knight-1", Knight, Beginner, Rules, "The Jumper",
		"The knight moves in an L shape and is the only piece that can jump over others. It always lands on the opposite colour."},
	{"knight-2", Knight, Intermediate, Strategy, "Knights on the Rim",
		"A knight on the edge controls at most four squares. From the centre it reaches eight."},
	{"knight-3", Knight, Advanced, Strategy, "Outposts",
		"A square that enemy pawns can never attack is an outpost. A knight planted there, defended by a pawn, can dominate the game."},

	{"pawn-1", Pawn, Beginner, Rules, "First Steps",
		"Pawns move forward one square, or two from their starting square, and capture diagonally. They never move backward."},
	{"pawn-2", Pawn, Intermediate, Rules, "En Passant",
		"If a pawn advances two squares and lands beside an enemy pawn, that pawn may capture it as if it had moved one. The chance lasts only one move."},
	{"pawn-3", Pawn, Advanced, Strategy, "Pawn Structure",
		"Doubled, isolated and backward pawns are long-term weaknesses. Pawn moves cannot be undone, so think before pushing."},

	{"general-1", AnyPiece, Beginner, History, "Chess Origins",
		"Chess began in India around the sixth century as chaturanga, the game of the four army divisions. It passed through Persia and the Arab world to Europe, where the modern rules took shape."},
	{"general-2", AnyPiece, Intermediate, History, "Famous Games",
		"The Immortal Game (Anderssen v Kieseritzky, 1851), the Game of the Century (D. Byrne v Fischer, 1956) and Kasparov v Topalov (1999) are among the most replayed games ever played."},
	{"general-3", AnyPiece, Advanced, History, "Chess Complexity",
		"The number of possible chess games is estimated at around 10^120, more than the atoms in the observable universe. The longest recorded tournament game lasted 269 moves over about 20 hours."},

	{"tip-1", AnyPiece, Beginner, Tips, "Control the Centre",
		"Pieces in the centre reach more squares. Open with central pawns and develop toward the middle of the board."},
	{"tip-2", AnyPiece, Intermediate, Tips, "Checks, Captures, Threats",
		"Before each move look at every check, capture and threat for both sides. Most blunders are missed forcing moves."},
	{"tip-3", AnyPiece, Advanced, Tips, "Think in Plans",
		"Tactics win material, but plans decide games. Weigh weak squares, piece activity, pawn structure and king safety together."},
}
