package card

import (
	"fmt"
	"math/rand"
)

var suits = [4]Suit{Spade, Heart, Club, Diamond}

// Deck is an ordered sequence of unique Card values, drawn from the top.
// It is mutated only by Reset and the two draw methods.
type Deck struct {
	cards []Card
}

// NewDeck returns a freshly reset, shuffled 52-card deck.
func NewDeck(rng *rand.Rand) *Deck {
	d := &Deck{}
	d.Reset(rng)
	return d
}

// Reset repopulates the deck with all 52 unique cards and shuffles it
// uniformly at random using rng. A caller-supplied *rand.Rand makes the
// shuffle deterministic given a fixed seed, per the replay/testing contract.
func (d *Deck) Reset(rng *rand.Rand) {
	cards := make([]Card, 0, 52)
	for _, s := range suits {
		for rank := 2; rank <= 14; rank++ {
			cards = append(cards, newCard(s, rank))
		}
	}
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	d.cards = cards
}

// NewDeckFromOrder builds a deck that draws in exactly the given order
// (order[0] drawn first), bypassing the shuffle. Used to pin a deterministic
// deal for tests and replays; order must contain 52 unique cards.
func NewDeckFromOrder(order []Card) *Deck {
	cards := make([]Card, len(order))
	for i, c := range order {
		cards[len(order)-1-i] = c
	}
	return &Deck{cards: cards}
}

// Len returns the number of cards remaining.
func (d *Deck) Len() int {
	return len(d.cards)
}

// Draw removes and returns the top card, failing when the deck is empty.
func (d *Deck) Draw() (Card, error) {
	if len(d.cards) == 0 {
		return CardInvalid, fmt.Errorf("card: deck is empty")
	}
	c := d.cards[len(d.cards)-1]
	d.cards = d.cards[:len(d.cards)-1]
	return c, nil
}

// DrawMany removes and returns the top n cards, failing unless at least n
// cards remain.
func (d *Deck) DrawMany(n int) ([]Card, error) {
	if n > len(d.cards) {
		return nil, fmt.Errorf("card: not enough cards to draw %d", n)
	}
	out := make([]Card, n)
	for i := 0; i < n; i++ {
		c, _ := d.Draw()
		out[i] = c
	}
	return out, nil
}
