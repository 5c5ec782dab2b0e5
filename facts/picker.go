package facts

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/notnil/chess"
)

// Shown is the set of fact IDs a reader has already seen. The caller owns
// it, one per game or player, so sessions never share history.
type Shown struct {
	ids map[string]struct{}
}

func NewShown(ids ...string) *Shown {
	s := &Shown{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

func (s *Shown) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *Shown) Add(id string) {
	s.ids[id] = struct{}{}
}

// Reset forgets everything shown so far.
func (s *Shown) Reset() {
	clear(s.ids)
}

func (s *Shown) Len() int {
	return len(s.ids)
}

// IDs returns the shown IDs sorted.
func (s *Shown) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Picker draws random facts from a catalog.
type Picker struct {
	catalog *Catalog

	mu  sync.Mutex
	rng *rand.Rand
}

func NewPicker(catalog *Catalog, rng *rand.Rand) *Picker {
	return &Picker{catalog: catalog, rng: rng}
}

func (p *Picker) Catalog() *Catalog {
	return p.catalog
}

// Pick returns a random fact about the piece that is not yet in shown and
// records it there. When every matching fact has been shown, shown is reset
// and the draw starts over. ok is false only if no fact matches at all.
func (p *Picker) Pick(shown *Shown, piece chess.PieceType) (Fact, bool) {
	pool := p.catalog.ForSubject(SubjectOf(piece))
	if len(pool) == 0 {
		return Fact{}, false
	}

	unused := pool[:0:0]
	for _, f := range pool {
		if !shown.Has(f.ID) {
			unused = append(unused, f)
		}
	}
	if len(unused) == 0 {
		shown.Reset()
		unused = pool
	}

	p.mu.Lock()
	f := unused[p.rng.Intn(len(unused))]
	p.mu.Unlock()

	shown.Add(f.ID)
	return f, true
}
