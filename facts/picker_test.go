package facts

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/notnil/chess"
)

func newTestPicker() *Picker {
	return NewPicker(DefaultCatalog(), rand.New(rand.NewSource(1)))
}

func TestPickDoesNotRepeatUntilExhausted(t *testing.T) {
	p := newTestPicker()
	shown := NewShown()
	pool := p.Catalog().ForSubject(Queen)

	seen := map[string]bool{}
	for i := 0; i < len(pool); i++ {
		f, ok := p.Pick(shown, chess.Queen)
		if !ok {
			t.Fatalf("Pick %d returned no fact", i)
		}
		if !f.About(chess.Queen) {
			t.Errorf("Pick %d = %s, not about the queen", i, f.ID)
		}
		if seen[f.ID] {
			t.Fatalf("Pick %d repeated %s before pool was exhausted", i, f.ID)
		}
		seen[f.ID] = true
	}
	if shown.Len() != len(pool) {
		t.Fatalf("shown = %d, want %d", shown.Len(), len(pool))
	}

	f, ok := p.Pick(shown, chess.Queen)
	if !ok || !seen[f.ID] {
		t.Fatalf("Pick after exhaustion = (%s, %v), want a recycled queen fact", f.ID, ok)
	}
	if shown.Len() != 1 {
		t.Errorf("shown after reset = %d, want 1", shown.Len())
	}
}

func TestShownSetsAreIndependent(t *testing.T) {
	p := newTestPicker()
	a, b := NewShown(), NewShown()
	for i := 0; i < 3; i++ {
		p.Pick(a, chess.Knight)
	}
	if b.Len() != 0 {
		t.Errorf("second set has %d entries, want 0", b.Len())
	}
	a.Reset()
	if a.Len() != 0 {
		t.Errorf("Len after Reset = %d, want 0", a.Len())
	}
}

func TestPickEmptyCatalog(t *testing.T) {
	p := NewPicker(NewCatalog(nil), rand.New(rand.NewSource(1)))
	if _, ok := p.Pick(NewShown(), chess.Pawn); ok {
		t.Error("Pick from empty catalog should report no fact")
	}
}

func TestCatalogFilters(t *testing.T) {
	c := DefaultCatalog()
	for _, f := range c.ForLevel(Advanced) {
		if f.Level != Advanced {
			t.Errorf("ForLevel(advanced) returned %s at %v", f.ID, f.Level)
		}
	}
	for _, f := range c.ForCategory(Tips) {
		if f.Subject != AnyPiece {
			t.Errorf("tip %s is tied to %v", f.ID, f.Subject)
		}
	}
	general := 0
	for _, f := range c.ForCategory(History) {
		if f.Subject == AnyPiece {
			general++
		}
	}
	if general != 3 {
		t.Errorf("ForCategory(history) has %d general facts, want 3", general)
	}
	if got, want := len(c.ForSubject(Pawn)), 9; got != want {
		t.Errorf("ForSubject(pawn) = %d facts, want %d", got, want)
	}
	if c.Len() != len(c.All()) {
		t.Errorf("Len = %d, All = %d", c.Len(), len(c.All()))
	}
}

func TestShownIDsSorted(t *testing.T) {
	s := NewShown("rook-2", "king-1")
	s.Add("bishop-3")
	want := []string{"bishop-3", "king-1", "rook-2"}
	if diff := cmp.Diff(want, s.IDs()); diff != "" {
		t.Errorf("IDs mismatch (-want +got):\n%s", diff)
	}
}

func TestParseEnums(t *testing.T) {
	if s, err := ParseSubject("Q"); err != nil || s != Queen {
		t.Errorf("ParseSubject(Q) = (%v, %v)", s, err)
	}
	if s, err := ParseSubject("all"); err != nil || s != AnyPiece {
		t.Errorf("ParseSubject(all) = (%v, %v)", s, err)
	}
	if l, err := ParseLevel("Intermediate"); err != nil || l != Intermediate {
		t.Errorf("ParseLevel = (%v, %v)", l, err)
	}
	if c, err := ParseCategory("rules"); err != nil || c != Rules {
		t.Errorf("ParseCategory = (%v, %v)", c, err)
	}
	if _, err := ParseCategory("gossip"); err == nil {
		t.Error("ParseCategory(gossip) should fail")
	}
}

func TestMarkdown(t *testing.T) {
	f := Fact{Title: "T", Content: "C"}
	if got := f.Markdown(); got != "**T**\n\nC" {
		t.Errorf("Markdown = %q", got)
	}
}

func TestFactJSONUsesNames(t *testing.T) {
	f := Fact{ID: "queen-1", Subject: Queen, Level: Advanced, Category: Strategy}
	data, err := json.Marshal(f)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"id":"queen-1","piece":"q","level":"advanced","category":"strategy","title":"","content":""}`
	if string(data) != want {
		t.Errorf("Marshal = %s, want %s", data, want)
	}

	var back Fact
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(f, back); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
