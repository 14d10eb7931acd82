package ledger

import (
	"log/slog"

	"github.com/divvyhq/divvy/internal/money"
)

// Op identifies the ledger mutation that produced an event.
type Op string

const (
	// OpApply is a debt application (split created).
	OpApply Op = "apply"
	// OpReverse is a debt reversal (split deleted).
	OpReverse Op = "reverse"
	// OpPurge is the purge of an emptied group's balances.
	OpPurge Op = "purge"
)

// Transition classifies what happened to the stored pair state.
type Transition string

const (
	// TransitionCreated means a new balance row was written for a pair
	// with no prior debt.
	TransitionCreated Transition = "created"
	// TransitionIncreased means an existing same-direction row grew.
	TransitionIncreased Transition = "increased"
	// TransitionReduced means an opposite-direction row shrank.
	TransitionReduced Transition = "reduced"
	// TransitionFlipped means an opposite-direction row was consumed
	// and the remainder written in the new direction.
	TransitionFlipped Transition = "flipped"
	// TransitionCleared means the pair returned to no debt.
	TransitionCleared Transition = "cleared"
)

// Event describes one pair-state change in the ledger. Debtor and
// Creditor name the direction of the delta being applied; Prev and
// Next are signed net positions for the pair seen from that direction
// (positive means debtor owes creditor).
type Event struct {
	Op         Op
	Transition Transition
	GroupID    string
	Debtor     string
	Creditor   string
	Delta      money.Money
	Prev       money.Money
	Next       money.Money
}

// EventSink receives ledger change events. Implementations must be
// fast and must not fail the mutation; sinks exist for auditability,
// not control flow.
type EventSink interface {
	LedgerChanged(Event)
}

// NopSink discards all events.
type NopSink struct{}

// LedgerChanged implements EventSink.
func (NopSink) LedgerChanged(Event) {}

// SlogSink logs every ledger change as a structured record.
type SlogSink struct{}

// LedgerChanged implements EventSink.
func (SlogSink) LedgerChanged(e Event) {
	slog.Info("ledger changed",
		"op", string(e.Op),
		"transition", string(e.Transition),
		"group_id", e.GroupID,
		"debtor", e.Debtor,
		"creditor", e.Creditor,
		"delta", e.Delta.String(),
		"prev", e.Prev.String(),
		"next", e.Next.String(),
	)
}

// MultiSink fans events out to several sinks.
type MultiSink []EventSink

// LedgerChanged implements EventSink.
func (m MultiSink) LedgerChanged(e Event) {
	for _, s := range m {
		s.LedgerChanged(e)
	}
}
