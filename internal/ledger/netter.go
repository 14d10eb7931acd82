package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/divvyhq/divvy/internal/money"
	"github.com/divvyhq/divvy/internal/storage"
)

// Netter maintains the pairwise balance rows for a group. For any
// unordered user pair exactly one of three states holds: no debt, A
// owes B, or B owes A. Applying a debt against an existing
// opposite-direction entry nets the two instead of keeping both rows,
// so at most one directed row ever exists per pair.
//
// The netter does not validate group or user existence; that belongs
// to the calling layer. It also does not serialize concurrent
// mutations; the lifecycle manager holds the per-group lock.
type Netter struct {
	store storage.LedgerStore
	sink  EventSink
}

// NewNetter builds a netter over the given ledger store. A nil sink
// discards events.
func NewNetter(store storage.LedgerStore, sink EventSink) *Netter {
	if sink == nil {
		sink = NopSink{}
	}
	return &Netter{store: store, sink: sink}
}

// ApplyDebt records that debtor newly owes creditor an additional
// delta, netting against any existing opposite-direction balance.
// Returns ErrInvalidAmount if delta is not positive.
func (n *Netter) ApplyDebt(ctx context.Context, groupID, debtorID, creditorID string, delta money.Money) error {
	return n.apply(ctx, OpApply, groupID, debtorID, creditorID, delta)
}

// ReverseDebt undoes a previously applied debt of debtor toward
// creditor, typically because a split was deleted. It is the same
// netting transition run in the opposite direction: the reversal can
// reduce or clear the direct balance, or, if that balance was already
// netted away, create a debt from the creditor back to the debtor.
// Returns ErrInvalidAmount if delta is not positive.
func (n *Netter) ReverseDebt(ctx context.Context, groupID, debtorID, creditorID string, delta money.Money) error {
	return n.apply(ctx, OpReverse, groupID, creditorID, debtorID, delta)
}

// apply runs the netting transition for "debtor owes creditor delta".
// Amounts within epsilon of zero are never stored: the row is removed
// instead.
func (n *Netter) apply(ctx context.Context, op Op, groupID, debtorID, creditorID string, delta money.Money) error {
	if !delta.Positive() {
		return ErrInvalidAmount
	}

	// An opposite-direction entry wins: net against it first.
	opposite, err := n.store.GetBalance(ctx, groupID, creditorID, debtorID)
	switch {
	case err == nil:
		return n.net(ctx, op, groupID, debtorID, creditorID, delta, opposite)
	case errors.Is(err, storage.ErrNotFound):
		return n.accumulate(ctx, op, groupID, debtorID, creditorID, delta)
	default:
		return fmt.Errorf("read opposite balance: %w", err)
	}
}

// net cancels delta against an existing creditor-owes-debtor entry.
func (n *Netter) net(ctx context.Context, op Op, groupID, debtorID, creditorID string, delta, opposite money.Money) error {
	prev := opposite.Neg() // signed net position, debtor's perspective
	diff := opposite.Sub(delta)

	switch {
	case diff.IsZeroish():
		// Debts cancel exactly (within epsilon).
		if err := n.store.DeleteBalance(ctx, groupID, creditorID, debtorID); err != nil {
			return fmt.Errorf("delete netted balance: %w", err)
		}
		n.emit(op, TransitionCleared, groupID, debtorID, creditorID, delta, prev, money.Zero())
	case diff.Positive():
		// Opposite debt partially consumed.
		if err := n.store.UpsertBalance(ctx, groupID, creditorID, debtorID, diff); err != nil {
			return fmt.Errorf("reduce opposite balance: %w", err)
		}
		n.emit(op, TransitionReduced, groupID, debtorID, creditorID, delta, prev, diff.Neg())
	default:
		// Delta overshoots: direction flips, remainder owed forward.
		remainder := delta.Sub(opposite)
		if err := n.store.DeleteBalance(ctx, groupID, creditorID, debtorID); err != nil {
			return fmt.Errorf("delete flipped balance: %w", err)
		}
		if err := n.store.UpsertBalance(ctx, groupID, debtorID, creditorID, remainder); err != nil {
			return fmt.Errorf("write flipped balance: %w", err)
		}
		n.emit(op, TransitionFlipped, groupID, debtorID, creditorID, delta, prev, remainder)
	}
	return nil
}

// accumulate grows (or creates) the same-direction entry.
func (n *Netter) accumulate(ctx context.Context, op Op, groupID, debtorID, creditorID string, delta money.Money) error {
	current, err := n.store.GetBalance(ctx, groupID, debtorID, creditorID)
	existed := true
	if errors.Is(err, storage.ErrNotFound) {
		current, existed = money.Zero(), false
	} else if err != nil {
		return fmt.Errorf("read balance: %w", err)
	}

	next := current.Add(delta)
	if next.IsZeroish() {
		// Only reachable with sub-epsilon amounts; keep no stale row.
		if !existed {
			return nil
		}
		if err := n.store.DeleteBalance(ctx, groupID, debtorID, creditorID); err != nil {
			return fmt.Errorf("delete near-zero balance: %w", err)
		}
		n.emit(op, TransitionCleared, groupID, debtorID, creditorID, delta, current, money.Zero())
		return nil
	}

	if err := n.store.UpsertBalance(ctx, groupID, debtorID, creditorID, next); err != nil {
		return fmt.Errorf("write balance: %w", err)
	}
	transition := TransitionIncreased
	if !existed {
		transition = TransitionCreated
	}
	n.emit(op, transition, groupID, debtorID, creditorID, delta, current, next)
	return nil
}

func (n *Netter) emit(op Op, tr Transition, groupID, debtorID, creditorID string, delta, prev, next money.Money) {
	n.sink.LedgerChanged(Event{
		Op:         op,
		Transition: tr,
		GroupID:    groupID,
		Debtor:     debtorID,
		Creditor:   creditorID,
		Delta:      delta,
		Prev:       prev,
		Next:       next,
	})
}
