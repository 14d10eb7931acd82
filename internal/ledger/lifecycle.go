package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/divvyhq/divvy/internal/models"
	"github.com/divvyhq/divvy/internal/storage"
)

// Manager orchestrates what happens to the ledger when items and
// instances are created or destroyed. Every mutation runs inside one
// store transaction and under a per-group lock, so two items touching
// the same pair can never interleave their read-modify-write cycles.
type Manager struct {
	store storage.Store
	sink  EventSink

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager builds a lifecycle manager. A nil sink discards ledger
// events.
func NewManager(store storage.Store, sink EventSink) *Manager {
	if sink == nil {
		sink = NopSink{}
	}
	return &Manager{
		store: store,
		sink:  sink,
		locks: make(map[string]*sync.Mutex),
	}
}

// groupLock returns the mutex serializing ledger mutations for one
// group, creating it on first use.
func (m *Manager) groupLock(groupID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[groupID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[groupID] = lock
	}
	return lock
}

// OnItemCreated persists the item and one split per participant, then
// applies each non-payer share as a debt toward the payer. The item's
// CreatedBy is the payer. If the payer is not among the participants
// the item is a gift: splits are stored but no balances are created.
//
// Returns ErrInvalidSplit for an empty or malformed participant set or
// a non-positive price. On any error nothing is persisted.
func (m *Manager) OnItemCreated(ctx context.Context, groupID string, item *models.Item, participants []string) error {
	shares, err := Allocate(item.Price, participants)
	if err != nil {
		return err
	}

	lock := m.groupLock(groupID)
	lock.Lock()
	defer lock.Unlock()

	err = m.store.InTx(ctx, func(tx storage.Store) error {
		if err := tx.CreateItem(ctx, item); err != nil {
			return fmt.Errorf("create item: %w", err)
		}

		payerIncluded := false
		for _, userID := range participants {
			if userID == item.CreatedBy {
				payerIncluded = true
			}
			split := &models.ItemSplit{ItemID: item.ID, UserID: userID, Amount: shares[userID]}
			if err := tx.CreateItemSplit(ctx, split); err != nil {
				return fmt.Errorf("create split: %w", err)
			}
		}

		if !payerIncluded {
			// Gift item: the payer asked for nothing back.
			slog.Info("item recorded as gift, no balances created",
				"item_id", item.ID, "payer", item.CreatedBy, "group_id", groupID)
			return nil
		}

		netter := NewNetter(tx, m.sink)
		for _, userID := range participants {
			if userID == item.CreatedBy {
				continue
			}
			// A share can floor to zero when the price is smaller than
			// one cent per participant; there is no debt to record.
			if shares[userID].IsZeroish() {
				continue
			}
			if err := netter.ApplyDebt(ctx, groupID, userID, item.CreatedBy, shares[userID]); err != nil {
				return fmt.Errorf("apply debt %s -> %s: %w", userID, item.CreatedBy, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("item created",
		"item_id", item.ID,
		"group_id", groupID,
		"price", item.Price.String(),
		"participants", len(participants),
	)
	return nil
}

// OnItemDeleted reverses every non-payer split of the item against the
// ledger, deletes the item (cascading its splits), and purges the
// group's balances if no items remain.
func (m *Manager) OnItemDeleted(ctx context.Context, groupID, itemID string) error {
	lock := m.groupLock(groupID)
	lock.Lock()
	defer lock.Unlock()

	err := m.store.InTx(ctx, func(tx storage.Store) error {
		item, err := tx.GetItem(ctx, itemID)
		if err != nil {
			return fmt.Errorf("get item: %w", err)
		}
		if err := m.reverseItem(ctx, tx, groupID, item); err != nil {
			return err
		}
		if err := tx.DeleteItem(ctx, itemID); err != nil {
			return fmt.Errorf("delete item: %w", err)
		}
		return m.purgeIfEmpty(ctx, tx, groupID)
	})
	if err != nil {
		return err
	}

	slog.Info("item deleted", "item_id", itemID, "group_id", groupID)
	return nil
}

// OnInstanceDeleted reverses the splits of every item in the instance,
// deletes the instance (cascading items and splits), and purges the
// group's balances if no items remain. The reversals must run before
// the cascade removes the split rows they are computed from.
func (m *Manager) OnInstanceDeleted(ctx context.Context, groupID, instanceID string) error {
	lock := m.groupLock(groupID)
	lock.Lock()
	defer lock.Unlock()

	err := m.store.InTx(ctx, func(tx storage.Store) error {
		items, err := tx.ListInstanceItems(ctx, instanceID)
		if err != nil {
			return fmt.Errorf("list instance items: %w", err)
		}
		for _, item := range items {
			if err := m.reverseItem(ctx, tx, groupID, item); err != nil {
				return err
			}
		}
		if err := tx.DeleteInstance(ctx, instanceID); err != nil {
			return fmt.Errorf("delete instance: %w", err)
		}
		return m.purgeIfEmpty(ctx, tx, groupID)
	})
	if err != nil {
		return err
	}

	slog.Info("instance deleted", "instance_id", instanceID, "group_id", groupID)
	return nil
}

// PurgeIfEmpty removes every balance row of the group if the group has
// no items left across all instances. This is a coarse reconciliation
// safeguard against ledger drift, not a precise netting operation.
func (m *Manager) PurgeIfEmpty(ctx context.Context, groupID string) error {
	lock := m.groupLock(groupID)
	lock.Lock()
	defer lock.Unlock()

	return m.store.InTx(ctx, func(tx storage.Store) error {
		return m.purgeIfEmpty(ctx, tx, groupID)
	})
}

// ListBalances returns every balance row of the group where the user
// is debtor or creditor.
func (m *Manager) ListBalances(ctx context.Context, groupID, userID string) ([]*models.Balance, error) {
	return m.store.ListBalancesInvolving(ctx, groupID, userID)
}

// reverseItem feeds each non-payer split of the item back through the
// netter in the reverse direction. Deletion mirrors creation: a gift
// item (payer absent from the splits) produced no balances, so its
// splits must not be reversed, and zero shares never became debts.
func (m *Manager) reverseItem(ctx context.Context, tx storage.Store, groupID string, item *models.Item) error {
	splits, err := tx.ListItemSplits(ctx, item.ID)
	if err != nil {
		return fmt.Errorf("list splits: %w", err)
	}

	payerIncluded := false
	for _, split := range splits {
		if split.UserID == item.CreatedBy {
			payerIncluded = true
			break
		}
	}
	if !payerIncluded {
		slog.Info("gift item removed, no balances to reverse",
			"item_id", item.ID, "payer", item.CreatedBy, "group_id", groupID)
		return nil
	}

	netter := NewNetter(tx, m.sink)
	for _, split := range splits {
		if split.UserID == item.CreatedBy || split.Amount.IsZeroish() {
			continue
		}
		if err := netter.ReverseDebt(ctx, groupID, split.UserID, item.CreatedBy, split.Amount); err != nil {
			return fmt.Errorf("reverse debt %s -> %s: %w", split.UserID, item.CreatedBy, err)
		}
	}
	return nil
}

func (m *Manager) purgeIfEmpty(ctx context.Context, tx storage.Store, groupID string) error {
	count, err := tx.CountGroupItems(ctx, groupID)
	if err != nil {
		return fmt.Errorf("count group items: %w", err)
	}
	if count > 0 {
		return nil
	}
	if err := tx.DeleteGroupBalances(ctx, groupID); err != nil {
		return fmt.Errorf("purge balances: %w", err)
	}
	slog.Info("group emptied, balances purged", "group_id", groupID)
	return nil
}
