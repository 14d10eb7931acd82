// Package ledger implements the debt-ledger maintenance engine: split
// allocation, pairwise balance netting, and the item/instance
// lifecycle that drives both.
package ledger

import "github.com/divvyhq/divvy/internal/money"

// Allocate computes each participant's owed share of a price split
// equally. It is pure: callers persist the result and feed the deltas
// to the netter.
//
// Each share is price/n rounded down to the cent; the rounding
// remainder is added to the first participant's share, so the returned
// shares always sum exactly to the price. The rule is deterministic
// for a fixed participant order.
//
// Returns ErrInvalidSplit if participants is empty or price is not
// positive.
func Allocate(price money.Money, participants []string) (map[string]money.Money, error) {
	if len(participants) == 0 || !price.Positive() {
		return nil, ErrInvalidSplit
	}

	seen := make(map[string]bool, len(participants))
	for _, p := range participants {
		if p == "" || seen[p] {
			return nil, ErrInvalidSplit
		}
		seen[p] = true
	}

	share := price.DivFloor(len(participants))
	remainder := price.Sub(share.Mul(len(participants)))

	shares := make(map[string]money.Money, len(participants))
	for i, p := range participants {
		s := share
		if i == 0 {
			s = s.Add(remainder)
		}
		shares[p] = s
	}
	return shares, nil
}
