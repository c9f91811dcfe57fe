package holdem

// potResult is one main/side pot: a chip amount and the set of contender
// positions eligible to win it.
type potResult struct {
	Amount   int64
	Eligible map[int]bool
}

// calcPots builds layered side pots from each player's whole-hand
// contribution total, resolving spec.md §9's side-pot Open Question: for
// each distinct all-in contribution level, form a pot capped at that level
// across every contributor at or above it, eligible to whichever of those
// contributors is still in the hand (not folded).
//
// Grounded on the teacher's potManager.calcPotsByPlayerBets (holdem/pot.go),
// adapted from the chair-ID map to the dense position model and from
// per-round bets to whole-hand contribution totals (collected once at hand
// end instead of incrementally per street).
func calcPots(players []*PlayerState) []potResult {
	type contributor struct {
		pos    int
		amount int64
		inHand bool
	}
	contributors := make([]contributor, 0, len(players))
	for _, p := range players {
		if p.TotalCommitted <= 0 {
			continue
		}
		contributors = append(contributors, contributor{pos: p.Position, amount: p.TotalCommitted, inHand: p.InHand()})
	}
	// sort ascending by contribution amount (stable insertion sort; n is tiny).
	for i := 1; i < len(contributors); i++ {
		for j := i; j > 0 && contributors[j-1].amount > contributors[j].amount; j-- {
			contributors[j-1], contributors[j] = contributors[j], contributors[j-1]
		}
	}

	var layers []potResult
	var prevLevel int64
	n := len(contributors)
	for i := 0; i < n; {
		level := contributors[i].amount
		count := int64(n - i)
		amount := (level - prevLevel) * count
		eligible := make(map[int]bool)
		for _, c := range contributors[i:] {
			if c.inHand {
				eligible[c.pos] = true
			}
		}
		layers = append(layers, potResult{Amount: amount, Eligible: eligible})
		prevLevel = level
		for i < n && contributors[i].amount == level {
			i++
		}
	}

	// A layer with no eligible contender (everyone who reached it folded)
	// can't be awarded on its own; its chips were only ever put up by
	// players no longer in the hand, so they fold down into the nearest
	// lower layer that does have an eligible contender (falling back to
	// the nearest higher layer if there is no lower one).
	for i := 0; i < len(layers); i++ {
		if len(layers[i].Eligible) > 0 {
			continue
		}
		awarded := false
		for j := i - 1; j >= 0; j-- {
			if len(layers[j].Eligible) > 0 {
				layers[j].Amount += layers[i].Amount
				layers[i].Amount = 0
				awarded = true
				break
			}
		}
		if awarded {
			continue
		}
		for j := i + 1; j < len(layers); j++ {
			if len(layers[j].Eligible) > 0 {
				layers[j].Amount += layers[i].Amount
				layers[i].Amount = 0
				break
			}
		}
	}

	// Merge consecutive layers with identical eligible sets into one pot,
	// matching the teacher's presentation of pots as non-redundant.
	merged := make([]potResult, 0, len(layers))
	for _, l := range layers {
		if l.Amount == 0 && len(l.Eligible) == 0 {
			continue
		}
		if len(merged) > 0 && sameEligible(merged[len(merged)-1].Eligible, l.Eligible) {
			merged[len(merged)-1].Amount += l.Amount
			continue
		}
		merged = append(merged, l)
	}
	return merged
}

func sameEligible(a, b map[int]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}
