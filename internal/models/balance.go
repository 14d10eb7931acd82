package models

import "github.com/divvyhq/divvy/internal/money"

// Balance is a directed debt edge within a group: FromUser owes ToUser
// the given amount.
//
// Invariants maintained by the ledger engine:
//   - at most one row exists per (group, user pair), in one direction
//   - Amount is strictly positive; a row that would drop to or below
//     zero is deleted instead
type Balance struct {
	// GroupID is the group the debt belongs to.
	GroupID string

	// FromUserID is the debtor.
	FromUserID string

	// ToUserID is the creditor.
	ToUserID string

	// Amount is the net amount owed. Always positive.
	Amount money.Money
}
