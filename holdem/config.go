package holdem

import (
	"fmt"

	"holdemlite/card"
)

// Config parameterizes a Table. Seed and DeckOverride exist so tests (and a
// future replay feature) can pin a deterministic deal.
type Config struct {
	MaxPlayers int
	MinPlayers int

	SmallBlind int64
	BigBlind   int64
	Ante       int64

	// Seed fixes the shuffle RNG; 0 means time-based.
	Seed int64

	// ForcedDealerPosition pins the button for deterministic tests/replays.
	ForcedDealerPosition *int

	// DeckOverride pins the full 52-card draw order, consumed top-down.
	DeckOverride []card.Card
}

// DefaultConfig mirrors the lobby's default table (spec_full §4.12).
func DefaultConfig() Config {
	return Config{
		MaxPlayers: 6,
		MinPlayers: 2,
		SmallBlind: 50,
		BigBlind:   100,
	}
}

func (c Config) validate() error {
	if c.MaxPlayers < 2 || c.MaxPlayers > 9 {
		return fmt.Errorf("holdem: MaxPlayers must be in [2,9], got %d", c.MaxPlayers)
	}
	if c.MinPlayers < 2 || c.MinPlayers > c.MaxPlayers {
		return fmt.Errorf("holdem: MinPlayers must be in [2,MaxPlayers]")
	}
	if c.SmallBlind < 0 || c.BigBlind <= 0 || c.SmallBlind > c.BigBlind {
		return fmt.Errorf("holdem: invalid blinds sb=%d bb=%d", c.SmallBlind, c.BigBlind)
	}
	if c.Ante < 0 {
		return fmt.Errorf("holdem: Ante must be >= 0")
	}
	if c.ForcedDealerPosition != nil {
		if *c.ForcedDealerPosition < 0 || *c.ForcedDealerPosition >= c.MaxPlayers {
			return fmt.Errorf("holdem: forced dealer position out of range: %d", *c.ForcedDealerPosition)
		}
	}
	if err := validateDeckOverride(c.DeckOverride); err != nil {
		return err
	}
	return nil
}

func validateDeckOverride(deck []card.Card) error {
	if len(deck) == 0 {
		return nil
	}
	if len(deck) != 52 {
		return fmt.Errorf("holdem: deck override must contain 52 cards, got %d", len(deck))
	}
	seen := make(map[card.Card]struct{}, 52)
	for i, c := range deck {
		if _, ok := seen[c]; ok {
			return fmt.Errorf("holdem: deck override contains duplicate card at index %d: %v", i, c)
		}
		seen[c] = struct{}{}
	}
	return nil
}
