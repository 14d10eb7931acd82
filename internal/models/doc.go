// Package models defines the core domain models for divvy.
//
// # Model hierarchy
//
//   - Group: a set of users sharing expenses, owns Instances and Balances
//   - Instance: a dated event within a group, owns Items
//   - Item: a purchase with a price and a payer, owns ItemSplits
//   - ItemSplit: one participant's owed share of an item
//   - Balance: the net directed debt between two users within a group
//
// Deletions cascade downward: removing a Group removes its Instances,
// Items, ItemSplits and Balances; removing an Instance removes its
// Items and their ItemSplits.
//
// # Design principles
//
//  1. Relationships use ID strings rather than pointers, avoiding
//     circular references between models.
//  2. Balances are derived state: they are only ever written by the
//     ledger engine in response to split creation or deletion, never
//     directly by a user action.
//  3. Amounts use money.Money everywhere; no float arithmetic touches
//     the ledger.
package models
