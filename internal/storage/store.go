// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/divvyhq/divvy/internal/models"
	"github.com/divvyhq/divvy/internal/money"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// LedgerStore is the narrow view of storage the balance netting engine
// operates on: directed pairwise balances keyed by
// (group, debtor, creditor). Keeping this interface small keeps the
// netting algorithm independent of the persistence technology.
type LedgerStore interface {
	// GetBalance returns the amount the debtor owes the creditor in the
	// group. Returns ErrNotFound if no such row exists.
	GetBalance(ctx context.Context, groupID, debtorID, creditorID string) (money.Money, error)

	// UpsertBalance creates or replaces the balance row for the triple.
	UpsertBalance(ctx context.Context, groupID, debtorID, creditorID string, amount money.Money) error

	// DeleteBalance removes the balance row for the triple. Deleting a
	// nonexistent row is not an error.
	DeleteBalance(ctx context.Context, groupID, debtorID, creditorID string) error
}

// Store is the full persistence surface. The sqlite and memory
// backends implement it; the ledger lifecycle manager and the HTTP
// layer consume it.
type Store interface {
	LedgerStore

	// Users.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// Groups. DeleteGroup cascades instances, items, splits and
	// balances.
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, id string) (*models.Group, error)
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error)
	AddGroupMember(ctx context.Context, groupID, userID string) error
	DeleteGroup(ctx context.Context, id string) error

	// Instances. DeleteInstance cascades items and splits; balance
	// reversal is the lifecycle manager's responsibility and must run
	// before the cascade.
	CreateInstance(ctx context.Context, instance *models.Instance) error
	GetInstance(ctx context.Context, id string) (*models.Instance, error)
	ListGroupInstances(ctx context.Context, groupID string) ([]*models.Instance, error)
	DeleteInstance(ctx context.Context, id string) error

	// Items and splits. DeleteItem cascades the item's splits.
	// CountGroupItems counts items across every instance of the group.
	CreateItem(ctx context.Context, item *models.Item) error
	GetItem(ctx context.Context, id string) (*models.Item, error)
	ListInstanceItems(ctx context.Context, instanceID string) ([]*models.Item, error)
	CountGroupItems(ctx context.Context, groupID string) (int, error)
	DeleteItem(ctx context.Context, id string) error
	CreateItemSplit(ctx context.Context, split *models.ItemSplit) error
	ListItemSplits(ctx context.Context, itemID string) ([]*models.ItemSplit, error)

	// Balance queries beyond the netting engine's needs.
	ListGroupBalances(ctx context.Context, groupID string) ([]*models.Balance, error)
	ListBalancesInvolving(ctx context.Context, groupID, userID string) ([]*models.Balance, error)
	DeleteGroupBalances(ctx context.Context, groupID string) error

	// InTx runs fn against a transaction-scoped store. If fn returns an
	// error the transaction rolls back; otherwise it commits. Calls
	// nested inside a transaction reuse the surrounding one.
	InTx(ctx context.Context, fn func(Store) error) error

	// Close releases any resources held by the store.
	Close() error
}
