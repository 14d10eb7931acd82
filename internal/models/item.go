package models

import "github.com/divvyhq/divvy/internal/money"

// Item is a purchase recorded under an instance. The creator is the
// payer: every non-payer participant's share becomes a debt toward
// them.
type Item struct {
	// ID is the unique identifier for the item (UUID format).
	ID string

	// InstanceID is the instance this item belongs to.
	InstanceID string

	// Name describes the purchase (e.g., "Pizza").
	Name string

	// Price is the full purchase price. Always positive.
	Price money.Money

	// CreatedBy is the user ID of the payer.
	CreatedBy string

	// CreatedAt is the Unix timestamp when the item was recorded.
	CreatedAt int64
}

// ItemSplit is one participant's owed share of an item. The payer,
// when among the participants, gets a split row too; it never becomes
// a balance.
type ItemSplit struct {
	// ItemID is the item this split belongs to.
	ItemID string

	// UserID is the participant who owes this share.
	UserID string

	// Amount is the share owed. Shares of one item sum exactly to the
	// item price.
	Amount money.Money
}
