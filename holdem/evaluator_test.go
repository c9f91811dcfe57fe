package holdem

import (
	"testing"

	"holdemlite/card"
)

func mustParse(t *testing.T, toks ...string) []card.Card {
	t.Helper()
	out := make([]card.Card, len(toks))
	for i, tok := range toks {
		c, err := card.Parse(tok)
		if err != nil {
			t.Fatalf("card.Parse(%q): %v", tok, err)
		}
		out[i] = c
	}
	return out
}

// Scenario 1 (spec.md §8): wheel straight beats three of a kind.
func TestWheelStraightBeatsThreeOfAKind(t *testing.T) {
	board := mustParse(t, "3H", "4C", "5S", "KD", "QD")

	wheelHole := mustParse(t, "AS", "2D")
	wheel := evaluateBestHand(append(append([]card.Card{}, wheelHole...), board...))
	if wheel.Rank != Straight {
		t.Fatalf("wheel hand rank = %v, want Straight", wheel.Rank)
	}
	if wheel.Kickers[0] != 5 {
		t.Fatalf("wheel high card = %d, want 5", wheel.Kickers[0])
	}

	tripsHole := mustParse(t, "QH", "QS")
	trips := evaluateBestHand(append(append([]card.Card{}, tripsHole...), board...))
	if trips.Rank != ThreeOfAKind {
		t.Fatalf("trips hand rank = %v, want ThreeOfAKind", trips.Rank)
	}

	if wheel.compare(trips) <= 0 {
		t.Fatalf("wheel straight must beat three of a kind")
	}
}

func TestRoyalFlushBeatsStraightFlush(t *testing.T) {
	royal := evaluateBestHand(mustParse(t, "AS", "KS", "QS", "JS", "TS"))
	straightFlush := evaluateBestHand(mustParse(t, "9H", "8H", "7H", "6H", "5H"))
	if royal.Rank != StraightFlush || straightFlush.Rank != StraightFlush {
		t.Fatalf("expected both hands classified as straight flush")
	}
	if royal.compare(straightFlush) <= 0 {
		t.Fatalf("ace-high straight flush must beat 9-high straight flush")
	}
}

func TestEvaluateBestHandPicksBestOfSeven(t *testing.T) {
	// Trip deuces plus a pair of sevens among seven cards makes a full house.
	cards := mustParse(t, "2H", "2C", "2D", "7S", "7D", "KH", "9D")
	eval := evaluateBestHand(cards)
	if eval.Rank != FullHouse {
		t.Fatalf("rank = %v, want FullHouse", eval.Rank)
	}
	if eval.Kickers[0] != 2 || eval.Kickers[1] != 7 {
		t.Fatalf("kickers = %v, want [2 7] (trip rank then pair rank)", eval.Kickers)
	}
}

func TestComparisonIsPermutationInvariant(t *testing.T) {
	a := mustParse(t, "AS", "KS", "QH", "JD", "9C", "2H", "3D")
	b := make([]card.Card, len(a))
	copy(b, a)
	b[0], b[len(b)-1] = b[len(b)-1], b[0]
	b[1], b[3] = b[3], b[1]

	evalA := evaluateBestHand(a)
	evalB := evaluateBestHand(b)
	if evalA.compare(evalB) != 0 {
		t.Fatalf("evaluation must be permutation-invariant over its inputs")
	}
}

func TestFlushBeatsStraight(t *testing.T) {
	flush := evaluateBestHand(mustParse(t, "2H", "5H", "9H", "JH", "KH"))
	straight := evaluateBestHand(mustParse(t, "2S", "3D", "4C", "5H", "6S"))
	if flush.compare(straight) <= 0 {
		t.Fatalf("flush must beat straight")
	}
}

func TestTieIsASplit(t *testing.T) {
	a := evaluateBestHand(mustParse(t, "AS", "KS", "QS", "JS", "9S"))
	b := evaluateBestHand(mustParse(t, "AH", "KH", "QH", "JH", "9H"))
	if a.compare(b) != 0 {
		t.Fatalf("identical-rank flushes must compare equal")
	}
}
