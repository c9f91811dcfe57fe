package card

import (
	"math/rand"
	"testing"
)

func TestParseStringRoundTrip(t *testing.T) {
	tokens := []string{"AS", "TD", "2H", "9C", "KS", "JD"}
	for _, tok := range tokens {
		c, err := Parse(tok)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tok, err)
		}
		if got := c.String(); got != tok {
			t.Fatalf("round trip mismatch: Parse(%q).String() = %q", tok, got)
		}
	}
}

func TestParseLowercaseAndTen(t *testing.T) {
	c, err := Parse("10h")
	if err != nil {
		t.Fatalf("Parse(10h): %v", err)
	}
	if c.Rank() != 10 || c.Suit() != Heart {
		t.Fatalf("Parse(10h) = rank %d suit %v, want 10 Heart", c.Rank(), c.Suit())
	}
}

func TestParseInvalid(t *testing.T) {
	for _, tok := range []string{"", "X", "1Z", "AA"} {
		if _, err := Parse(tok); err == nil {
			t.Fatalf("Parse(%q): expected error", tok)
		}
	}
}

func TestAceRankIsFourteen(t *testing.T) {
	c, _ := Parse("AS")
	if c.Rank() != 14 || !c.IsAce() {
		t.Fatalf("ace rank = %d, IsAce = %v, want 14/true", c.Rank(), c.IsAce())
	}
}

func TestDeckResetHas52UniqueCards(t *testing.T) {
	d := NewDeck(rand.New(rand.NewSource(1)))
	if d.Len() != 52 {
		t.Fatalf("deck length = %d, want 52", d.Len())
	}
	seen := make(map[Card]bool)
	for d.Len() > 0 {
		c, err := d.Draw()
		if err != nil {
			t.Fatalf("Draw: %v", err)
		}
		if seen[c] {
			t.Fatalf("duplicate card drawn: %v", c)
		}
		seen[c] = true
	}
	if len(seen) != 52 {
		t.Fatalf("saw %d unique cards, want 52", len(seen))
	}
}

func TestDeckDeterministicGivenSeed(t *testing.T) {
	d1 := NewDeck(rand.New(rand.NewSource(42)))
	d2 := NewDeck(rand.New(rand.NewSource(42)))
	for i := 0; i < 52; i++ {
		c1, _ := d1.Draw()
		c2, _ := d2.Draw()
		if c1 != c2 {
			t.Fatalf("deck draw %d diverged: %v != %v", i, c1, c2)
		}
	}
}

func TestDeckDrawEmptyFails(t *testing.T) {
	d := NewDeck(rand.New(rand.NewSource(1)))
	if _, err := d.DrawMany(53); err == nil {
		t.Fatalf("DrawMany(53): expected error on a 52-card deck")
	}
	if _, err := d.DrawMany(52); err != nil {
		t.Fatalf("DrawMany(52): %v", err)
	}
	if _, err := d.Draw(); err == nil {
		t.Fatalf("Draw on empty deck: expected error")
	}
}
