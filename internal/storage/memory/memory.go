// Package memory provides an in-memory implementation of
// storage.Store for development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/divvyhq/divvy/internal/models"
	"github.com/divvyhq/divvy/internal/money"
	"github.com/divvyhq/divvy/internal/storage"
)

// Ensure Store implements storage.Store.
var _ storage.Store = (*Store)(nil)

type balanceKey struct {
	groupID  string
	debtor   string
	creditor string
}

// Store keeps all state in maps. Transactionality is
// rollback-on-error: InTx snapshots the state and restores it if fn
// fails. Concurrent isolation between ledger mutations comes from the
// lifecycle manager's per-group lock, not from this store.
type Store struct {
	mu        sync.Mutex
	users     map[string]*models.User
	emails    map[string]string // email -> user id
	groups    map[string]*models.Group
	instances map[string]*models.Instance
	items     map[string]*models.Item
	splits    map[string][]*models.ItemSplit // item id -> splits
	balances  map[balanceKey]money.Money
	inTx      bool
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		users:     make(map[string]*models.User),
		emails:    make(map[string]string),
		groups:    make(map[string]*models.Group),
		instances: make(map[string]*models.Instance),
		items:     make(map[string]*models.Item),
		splits:    make(map[string][]*models.ItemSplit),
		balances:  make(map[balanceKey]money.Money),
	}
}

// Close implements storage.Store.
func (s *Store) Close() error { return nil }

// InTx snapshots the store, runs fn, and restores the snapshot if fn
// returns an error. Nested calls run inside the surrounding
// transaction.
func (s *Store) InTx(ctx context.Context, fn func(storage.Store) error) error {
	s.mu.Lock()
	if s.inTx {
		s.mu.Unlock()
		return fn(s)
	}
	s.inTx = true
	snap := s.snapshot()
	s.mu.Unlock()

	err := fn(s)

	s.mu.Lock()
	if err != nil {
		s.restore(snap)
	}
	s.inTx = false
	s.mu.Unlock()
	return err
}

type snapshotState struct {
	users     map[string]*models.User
	emails    map[string]string
	groups    map[string]*models.Group
	instances map[string]*models.Instance
	items     map[string]*models.Item
	splits    map[string][]*models.ItemSplit
	balances  map[balanceKey]money.Money
}

func (s *Store) snapshot() *snapshotState {
	snap := &snapshotState{
		users:     make(map[string]*models.User, len(s.users)),
		emails:    make(map[string]string, len(s.emails)),
		groups:    make(map[string]*models.Group, len(s.groups)),
		instances: make(map[string]*models.Instance, len(s.instances)),
		items:     make(map[string]*models.Item, len(s.items)),
		splits:    make(map[string][]*models.ItemSplit, len(s.splits)),
		balances:  make(map[balanceKey]money.Money, len(s.balances)),
	}
	for k, v := range s.users {
		u := *v
		snap.users[k] = &u
	}
	for k, v := range s.emails {
		snap.emails[k] = v
	}
	for k, v := range s.groups {
		g := *v
		g.Members = append([]string(nil), v.Members...)
		snap.groups[k] = &g
	}
	for k, v := range s.instances {
		in := *v
		snap.instances[k] = &in
	}
	for k, v := range s.items {
		it := *v
		snap.items[k] = &it
	}
	for k, v := range s.splits {
		cp := make([]*models.ItemSplit, len(v))
		for i, sp := range v {
			c := *sp
			cp[i] = &c
		}
		snap.splits[k] = cp
	}
	for k, v := range s.balances {
		snap.balances[k] = v
	}
	return snap
}

func (s *Store) restore(snap *snapshotState) {
	s.users = snap.users
	s.emails = snap.emails
	s.groups = snap.groups
	s.instances = snap.instances
	s.items = snap.items
	s.splits = snap.splits
	s.balances = snap.balances
}

// --- LedgerStore ---

// GetBalance implements storage.LedgerStore.
func (s *Store) GetBalance(ctx context.Context, groupID, debtorID, creditorID string) (money.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	amount, ok := s.balances[balanceKey{groupID, debtorID, creditorID}]
	if !ok {
		return money.Zero(), storage.ErrNotFound
	}
	return amount, nil
}

// UpsertBalance implements storage.LedgerStore.
func (s *Store) UpsertBalance(ctx context.Context, groupID, debtorID, creditorID string, amount money.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[balanceKey{groupID, debtorID, creditorID}] = amount
	return nil
}

// DeleteBalance implements storage.LedgerStore.
func (s *Store) DeleteBalance(ctx context.Context, groupID, debtorID, creditorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.balances, balanceKey{groupID, debtorID, creditorID})
	return nil
}

// --- Users ---

// CreateUser implements storage.Store.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt == 0 {
		user.CreatedAt = time.Now().Unix()
	}
	u := *user
	s.users[user.ID] = &u
	s.emails[user.Email] = user.ID
	return nil
}

// GetUserByEmail implements storage.Store.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.emails[email]
	if !ok {
		return nil, storage.ErrNotFound
	}
	u := *s.users[id]
	return &u, nil
}

// GetUserByID implements storage.Store.
func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	u := *user
	return &u, nil
}

// --- Groups ---

// CreateGroup implements storage.Store.
func (s *Store) CreateGroup(ctx context.Context, group *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}
	g := *group
	g.Members = append([]string(nil), group.Members...)
	s.groups[group.ID] = &g
	return nil
}

// GetGroup implements storage.Store.
func (s *Store) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	group, ok := s.groups[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	g := *group
	g.Members = append([]string(nil), group.Members...)
	return &g, nil
}

// ListGroupsForUser implements storage.Store.
func (s *Store) ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Group
	for _, group := range s.groups {
		if group.HasMember(userID) {
			g := *group
			g.Members = append([]string(nil), group.Members...)
			out = append(out, &g)
		}
	}
	return out, nil
}

// AddGroupMember implements storage.Store.
func (s *Store) AddGroupMember(ctx context.Context, groupID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	group, ok := s.groups[groupID]
	if !ok {
		return storage.ErrNotFound
	}
	if !group.HasMember(userID) {
		group.Members = append(group.Members, userID)
	}
	return nil
}

// DeleteGroup implements storage.Store. Cascades instances, items,
// splits and balances.
func (s *Store) DeleteGroup(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.groups, id)
	for instID, inst := range s.instances {
		if inst.GroupID != id {
			continue
		}
		s.deleteInstanceLocked(instID)
	}
	for key := range s.balances {
		if key.groupID == id {
			delete(s.balances, key)
		}
	}
	return nil
}

// --- Instances ---

// CreateInstance implements storage.Store.
func (s *Store) CreateInstance(ctx context.Context, instance *models.Instance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if instance.ID == "" {
		instance.ID = uuid.New().String()
	}
	if instance.CreatedAt == 0 {
		instance.CreatedAt = time.Now().Unix()
	}
	in := *instance
	s.instances[instance.ID] = &in
	return nil
}

// GetInstance implements storage.Store.
func (s *Store) GetInstance(ctx context.Context, id string) (*models.Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	instance, ok := s.instances[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	in := *instance
	return &in, nil
}

// ListGroupInstances implements storage.Store.
func (s *Store) ListGroupInstances(ctx context.Context, groupID string) ([]*models.Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Instance
	for _, instance := range s.instances {
		if instance.GroupID == groupID {
			in := *instance
			out = append(out, &in)
		}
	}
	return out, nil
}

// DeleteInstance implements storage.Store. Cascades items and splits.
func (s *Store) DeleteInstance(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.instances[id]; !ok {
		return storage.ErrNotFound
	}
	s.deleteInstanceLocked(id)
	return nil
}

func (s *Store) deleteInstanceLocked(id string) {
	delete(s.instances, id)
	for itemID, item := range s.items {
		if item.InstanceID == id {
			delete(s.items, itemID)
			delete(s.splits, itemID)
		}
	}
}

// --- Items and splits ---

// CreateItem implements storage.Store.
func (s *Store) CreateItem(ctx context.Context, item *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.CreatedAt == 0 {
		item.CreatedAt = time.Now().Unix()
	}
	it := *item
	s.items[item.ID] = &it
	return nil
}

// GetItem implements storage.Store.
func (s *Store) GetItem(ctx context.Context, id string) (*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	it := *item
	return &it, nil
}

// ListInstanceItems implements storage.Store.
func (s *Store) ListInstanceItems(ctx context.Context, instanceID string) ([]*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Item
	for _, item := range s.items {
		if item.InstanceID == instanceID {
			it := *item
			out = append(out, &it)
		}
	}
	return out, nil
}

// CountGroupItems implements storage.Store.
func (s *Store) CountGroupItems(ctx context.Context, groupID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, item := range s.items {
		instance, ok := s.instances[item.InstanceID]
		if ok && instance.GroupID == groupID {
			count++
		}
	}
	return count, nil
}

// DeleteItem implements storage.Store. Cascades the item's splits.
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.items, id)
	delete(s.splits, id)
	return nil
}

// CreateItemSplit implements storage.Store.
func (s *Store) CreateItemSplit(ctx context.Context, split *models.ItemSplit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp := *split
	s.splits[split.ItemID] = append(s.splits[split.ItemID], &sp)
	return nil
}

// ListItemSplits implements storage.Store.
func (s *Store) ListItemSplits(ctx context.Context, itemID string) ([]*models.ItemSplit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	splits := s.splits[itemID]
	out := make([]*models.ItemSplit, len(splits))
	for i, split := range splits {
		sp := *split
		out[i] = &sp
	}
	return out, nil
}

// --- Balance queries ---

// ListGroupBalances implements storage.Store.
func (s *Store) ListGroupBalances(ctx context.Context, groupID string) ([]*models.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Balance
	for key, amount := range s.balances {
		if key.groupID == groupID {
			out = append(out, &models.Balance{
				GroupID:    key.groupID,
				FromUserID: key.debtor,
				ToUserID:   key.creditor,
				Amount:     amount,
			})
		}
	}
	return out, nil
}

// ListBalancesInvolving implements storage.Store.
func (s *Store) ListBalancesInvolving(ctx context.Context, groupID, userID string) ([]*models.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Balance
	for key, amount := range s.balances {
		if key.groupID == groupID && (key.debtor == userID || key.creditor == userID) {
			out = append(out, &models.Balance{
				GroupID:    key.groupID,
				FromUserID: key.debtor,
				ToUserID:   key.creditor,
				Amount:     amount,
			})
		}
	}
	return out, nil
}

// DeleteGroupBalances implements storage.Store.
func (s *Store) DeleteGroupBalances(ctx context.Context, groupID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.balances {
		if key.groupID == groupID {
			delete(s.balances, key)
		}
	}
	return nil
}
