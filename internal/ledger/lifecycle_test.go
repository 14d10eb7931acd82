package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/divvyhq/divvy/internal/models"
	"github.com/divvyhq/divvy/internal/money"
	"github.com/divvyhq/divvy/internal/storage/memory"
)

type fixture struct {
	store   *memory.Store
	manager *Manager
	groupID string
	instID  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	group := &models.Group{Name: "trip", CreatedBy: "alice", Members: []string{"alice", "bob", "carol"}}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("create group: %v", err)
	}
	instance := &models.Instance{GroupID: group.ID, Name: "day one", Date: "2024-06-01", CreatedBy: "alice"}
	if err := store.CreateInstance(ctx, instance); err != nil {
		t.Fatalf("create instance: %v", err)
	}

	return &fixture{
		store:   store,
		manager: NewManager(store, nil),
		groupID: group.ID,
		instID:  instance.ID,
	}
}

func (f *fixture) addItem(t *testing.T, name, price, payer string, participants []string) *models.Item {
	t.Helper()
	item := &models.Item{InstanceID: f.instID, Name: name, Price: money.MustParse(price), CreatedBy: payer}
	if err := f.manager.OnItemCreated(context.Background(), f.groupID, item, participants); err != nil {
		t.Fatalf("OnItemCreated(%s): %v", name, err)
	}
	return item
}

func (f *fixture) balanceMap(t *testing.T) map[string]string {
	t.Helper()
	balances, err := f.store.ListGroupBalances(context.Background(), f.groupID)
	if err != nil {
		t.Fatalf("list balances: %v", err)
	}
	out := make(map[string]string, len(balances))
	for _, b := range balances {
		if !b.Amount.Positive() {
			t.Errorf("stored balance %s->%s is not positive: %s", b.FromUserID, b.ToUserID, b.Amount)
		}
		out[b.FromUserID+"->"+b.ToUserID] = b.Amount.String()
	}
	return out
}

func TestOnItemCreated(t *testing.T) {
	t.Run("creates splits and balances toward the payer", func(t *testing.T) {
		f := newFixture(t)
		item := f.addItem(t, "dinner", "30.00", "alice", []string{"alice", "bob", "carol"})

		splits, err := f.store.ListItemSplits(context.Background(), item.ID)
		if err != nil {
			t.Fatalf("list splits: %v", err)
		}
		if len(splits) != 3 {
			t.Fatalf("got %d splits, want 3 (payer included)", len(splits))
		}
		sum := money.Zero()
		for _, s := range splits {
			sum = sum.Add(s.Amount)
		}
		if sum.String() != "30.00" {
			t.Errorf("splits sum to %s, want 30.00", sum)
		}

		want := map[string]string{"bob->alice": "10.00", "carol->alice": "10.00"}
		if got := f.balanceMap(t); len(got) != 2 || got["bob->alice"] != want["bob->alice"] || got["carol->alice"] != want["carol->alice"] {
			t.Errorf("balances = %v, want %v", got, want)
		}
	})

	t.Run("empty participants rejected with nothing persisted", func(t *testing.T) {
		f := newFixture(t)
		item := &models.Item{InstanceID: f.instID, Name: "dinner", Price: money.MustParse("30.00"), CreatedBy: "alice"}
		err := f.manager.OnItemCreated(context.Background(), f.groupID, item, nil)
		if !errors.Is(err, ErrInvalidSplit) {
			t.Fatalf("error = %v, want ErrInvalidSplit", err)
		}
		if count, _ := f.store.CountGroupItems(context.Background(), f.groupID); count != 0 {
			t.Errorf("item persisted despite rejection")
		}
	})

	t.Run("shares that floor to zero create no debt", func(t *testing.T) {
		f := newFixture(t)
		// 0.02 over three people: the remainder lands on bob, alice and
		// carol owe nothing. Creation must not trip over the zero shares.
		item := f.addItem(t, "gum", "0.02", "bob", []string{"bob", "alice", "carol"})

		splits, err := f.store.ListItemSplits(context.Background(), item.ID)
		if err != nil {
			t.Fatalf("list splits: %v", err)
		}
		sum := money.Zero()
		for _, s := range splits {
			sum = sum.Add(s.Amount)
		}
		if sum.String() != "0.02" {
			t.Errorf("splits sum to %s, want 0.02", sum)
		}
		if got := f.balanceMap(t); len(got) != 0 {
			t.Errorf("zero shares created balances: %v", got)
		}

		if err := f.manager.OnItemDeleted(context.Background(), f.groupID, item.ID); err != nil {
			t.Fatalf("OnItemDeleted: %v", err)
		}
	})

	t.Run("zero non-payer shares skipped, real ones applied", func(t *testing.T) {
		f := newFixture(t)
		// Remainder goes to the first participant, bob, who is not the
		// payer: bob owes 0.02, the others owe nothing.
		f.addItem(t, "gum", "0.02", "alice", []string{"bob", "alice", "carol"})

		got := f.balanceMap(t)
		if len(got) != 1 || got["bob->alice"] != "0.02" {
			t.Errorf("balances = %v, want only bob->alice 0.02", got)
		}
	})

	t.Run("gift item stores splits but no balances", func(t *testing.T) {
		f := newFixture(t)
		item := f.addItem(t, "treat", "20.00", "alice", []string{"bob", "carol"})

		splits, err := f.store.ListItemSplits(context.Background(), item.ID)
		if err != nil {
			t.Fatalf("list splits: %v", err)
		}
		if len(splits) != 2 {
			t.Fatalf("got %d splits, want 2", len(splits))
		}
		if got := f.balanceMap(t); len(got) != 0 {
			t.Errorf("gift item created balances: %v", got)
		}
	})
}

// TestLunchCoffeeScenario is the canonical two-item netting flow:
// lunch paid by alice, coffee paid by bob, balances net to one row.
func TestLunchCoffeeScenario(t *testing.T) {
	f := newFixture(t)

	f.addItem(t, "lunch", "20.00", "alice", []string{"alice", "bob"})
	if got := f.balanceMap(t); len(got) != 1 || got["bob->alice"] != "10.00" {
		t.Fatalf("after lunch: balances = %v, want bob->alice 10.00", got)
	}

	f.addItem(t, "coffee", "6.00", "bob", []string{"alice", "bob"})
	if got := f.balanceMap(t); len(got) != 1 || got["bob->alice"] != "7.00" {
		t.Fatalf("after coffee: balances = %v, want bob->alice 7.00", got)
	}
}

func TestOnItemDeleted(t *testing.T) {
	t.Run("reverses balances back to no debt", func(t *testing.T) {
		f := newFixture(t)
		keep := f.addItem(t, "groceries", "9.00", "bob", []string{"alice", "bob", "carol"})
		item := f.addItem(t, "dinner", "30.00", "alice", []string{"alice", "bob", "carol"})

		if err := f.manager.OnItemDeleted(context.Background(), f.groupID, item.ID); err != nil {
			t.Fatalf("OnItemDeleted: %v", err)
		}

		// Only the groceries debts remain: alice and carol each owe bob
		// their 3.00 share.
		got := f.balanceMap(t)
		if len(got) != 2 || got["alice->bob"] != "3.00" || got["carol->bob"] != "3.00" {
			t.Errorf("balances = %v, want alice->bob 3.00 and carol->bob 3.00", got)
		}

		if _, err := f.store.GetItem(context.Background(), item.ID); err == nil {
			t.Error("deleted item still present")
		}
		if _, err := f.store.GetItem(context.Background(), keep.ID); err != nil {
			t.Errorf("kept item missing: %v", err)
		}
	})

	t.Run("deleting a gift reverses nothing", func(t *testing.T) {
		f := newFixture(t)
		// The keeper item holds the group non-empty so the purge cannot
		// mask an erroneous reversal of the gift's splits.
		f.addItem(t, "groceries", "9.00", "bob", []string{"alice", "bob", "carol"})
		gift := f.addItem(t, "treat", "20.00", "alice", []string{"bob", "carol"})

		before := f.balanceMap(t)
		if err := f.manager.OnItemDeleted(context.Background(), f.groupID, gift.ID); err != nil {
			t.Fatalf("OnItemDeleted: %v", err)
		}

		after := f.balanceMap(t)
		if len(after) != len(before) {
			t.Fatalf("balances changed by gift deletion: before %v, after %v", before, after)
		}
		for k, v := range before {
			if after[k] != v {
				t.Errorf("balance %s = %s, want %s (unchanged)", k, after[k], v)
			}
		}
		if _, err := f.store.GetItem(context.Background(), gift.ID); err == nil {
			t.Error("deleted gift still present")
		}
	})

	t.Run("deleting the last item purges all balances", func(t *testing.T) {
		f := newFixture(t)
		item := f.addItem(t, "dinner", "30.00", "alice", []string{"alice", "bob", "carol"})

		// Simulate rounding drift: a stray row the reversals won't touch.
		if err := f.store.UpsertBalance(context.Background(), f.groupID, "carol", "bob", money.MustParse("0.01")); err != nil {
			t.Fatalf("seed stray balance: %v", err)
		}

		if err := f.manager.OnItemDeleted(context.Background(), f.groupID, item.ID); err != nil {
			t.Fatalf("OnItemDeleted: %v", err)
		}
		if got := f.balanceMap(t); len(got) != 0 {
			t.Errorf("balances after emptying = %v, want none", got)
		}
	})
}

func TestOnInstanceDeleted(t *testing.T) {
	f := newFixture(t)
	f.addItem(t, "lunch", "20.00", "alice", []string{"alice", "bob"})
	f.addItem(t, "coffee", "6.00", "bob", []string{"alice", "bob"})

	// A second instance keeps the group non-empty after the first one
	// goes, so reversal (not the purge) must produce the end state.
	ctx := context.Background()
	other := &models.Instance{GroupID: f.groupID, Name: "day two", Date: "2024-06-02", CreatedBy: "alice"}
	if err := f.store.CreateInstance(ctx, other); err != nil {
		t.Fatalf("create instance: %v", err)
	}
	otherItem := &models.Item{InstanceID: other.ID, Name: "taxi", Price: money.MustParse("8.00"), CreatedBy: "carol"}
	if err := f.manager.OnItemCreated(ctx, f.groupID, otherItem, []string{"alice", "carol"}); err != nil {
		t.Fatalf("OnItemCreated(taxi): %v", err)
	}

	if err := f.manager.OnInstanceDeleted(ctx, f.groupID, f.instID); err != nil {
		t.Fatalf("OnInstanceDeleted: %v", err)
	}

	got := f.balanceMap(t)
	if len(got) != 1 || got["alice->carol"] != "4.00" {
		t.Errorf("balances = %v, want only alice->carol 4.00", got)
	}
	if _, err := f.store.GetInstance(ctx, f.instID); err == nil {
		t.Error("deleted instance still present")
	}

	// Removing the remaining instance empties the group entirely.
	if err := f.manager.OnInstanceDeleted(ctx, f.groupID, other.ID); err != nil {
		t.Fatalf("OnInstanceDeleted(day two): %v", err)
	}
	if got := f.balanceMap(t); len(got) != 0 {
		t.Errorf("balances after emptying group = %v, want none", got)
	}
}

func TestListBalances(t *testing.T) {
	f := newFixture(t)
	f.addItem(t, "dinner", "30.00", "alice", []string{"alice", "bob", "carol"})
	f.addItem(t, "wine", "12.00", "bob", []string{"bob", "carol"})

	ctx := context.Background()
	forCarol, err := f.manager.ListBalances(ctx, f.groupID, "carol")
	if err != nil {
		t.Fatalf("ListBalances: %v", err)
	}
	if len(forCarol) != 2 {
		t.Fatalf("carol involved in %d balances, want 2", len(forCarol))
	}
	for _, b := range forCarol {
		if b.FromUserID != "carol" && b.ToUserID != "carol" {
			t.Errorf("balance %s->%s does not involve carol", b.FromUserID, b.ToUserID)
		}
	}

	forAlice, err := f.manager.ListBalances(ctx, f.groupID, "alice")
	if err != nil {
		t.Fatalf("ListBalances: %v", err)
	}
	if len(forAlice) != 2 {
		t.Fatalf("alice involved in %d balances, want 2 (bob and carol owe her)", len(forAlice))
	}
}
