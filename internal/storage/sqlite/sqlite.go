// Package sqlite provides a SQLite-backed implementation of the
// storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/divvyhq/divvy/internal/models"
	"github.com/divvyhq/divvy/internal/money"
	"github.com/divvyhq/divvy/internal/storage"
)

// Ensure SQLiteStore implements storage.Store.
var _ storage.Store = (*SQLiteStore)(nil)

// querier is the overlap of *sql.DB and *sql.Tx the store needs, so
// the same methods can run inside or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	q  querier // db, or the active transaction
}

// New creates a new SQLiteStore with the given database path. It
// creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db, q: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// InTx runs fn against a transaction-scoped copy of the store. A call
// nested inside an open transaction reuses it.
func (s *SQLiteStore) InTx(ctx context.Context, fn func(storage.Store) error) error {
	if _, open := s.q.(*sql.Tx); open {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&SQLiteStore{db: s.db, q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// --- LedgerStore ---

// GetBalance returns the directed balance for (group, debtor,
// creditor), or storage.ErrNotFound.
func (s *SQLiteStore) GetBalance(ctx context.Context, groupID, debtorID, creditorID string) (money.Money, error) {
	var raw string
	err := s.q.QueryRowContext(ctx,
		"SELECT amount FROM balances WHERE group_id = ? AND from_user = ? AND to_user = ?",
		groupID, debtorID, creditorID,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return money.Zero(), storage.ErrNotFound
	}
	if err != nil {
		return money.Zero(), fmt.Errorf("failed to get balance: %w", err)
	}
	amount, err := money.Parse(raw)
	if err != nil {
		return money.Zero(), fmt.Errorf("corrupt balance amount %q: %w", raw, err)
	}
	return amount, nil
}

// UpsertBalance creates or replaces the balance row for the triple.
func (s *SQLiteStore) UpsertBalance(ctx context.Context, groupID, debtorID, creditorID string, amount money.Money) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO balances (group_id, from_user, to_user, amount) VALUES (?, ?, ?, ?)
		 ON CONFLICT (group_id, from_user, to_user) DO UPDATE SET amount = excluded.amount`,
		groupID, debtorID, creditorID, amount.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert balance: %w", err)
	}
	return nil
}

// DeleteBalance removes the balance row for the triple.
func (s *SQLiteStore) DeleteBalance(ctx context.Context, groupID, debtorID, creditorID string) error {
	_, err := s.q.ExecContext(ctx,
		"DELETE FROM balances WHERE group_id = ? AND from_user = ? AND to_user = ?",
		groupID, debtorID, creditorID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete balance: %w", err)
	}
	return nil
}

// ListGroupBalances returns every balance row of the group.
func (s *SQLiteStore) ListGroupBalances(ctx context.Context, groupID string) ([]*models.Balance, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT group_id, from_user, to_user, amount FROM balances WHERE group_id = ?",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}
	defer rows.Close()
	return scanBalances(rows)
}

// ListBalancesInvolving returns the group's balance rows where the
// user is debtor or creditor.
func (s *SQLiteStore) ListBalancesInvolving(ctx context.Context, groupID, userID string) ([]*models.Balance, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT group_id, from_user, to_user, amount FROM balances
		 WHERE group_id = ? AND (from_user = ? OR to_user = ?)`,
		groupID, userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}
	defer rows.Close()
	return scanBalances(rows)
}

// DeleteGroupBalances removes every balance row of the group.
func (s *SQLiteStore) DeleteGroupBalances(ctx context.Context, groupID string) error {
	_, err := s.q.ExecContext(ctx, "DELETE FROM balances WHERE group_id = ?", groupID)
	if err != nil {
		return fmt.Errorf("failed to purge balances: %w", err)
	}
	return nil
}

func scanBalances(rows *sql.Rows) ([]*models.Balance, error) {
	var out []*models.Balance
	for rows.Next() {
		var b models.Balance
		var raw string
		if err := rows.Scan(&b.GroupID, &b.FromUserID, &b.ToUserID, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		amount, err := money.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("corrupt balance amount %q: %w", raw, err)
		}
		b.Amount = amount
		out = append(out, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate balances: %w", err)
	}
	return out, nil
}

// --- Users ---

// CreateUser persists a new user.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt == 0 {
		user.CreatedAt = time.Now().Unix()
	}
	_, err := s.q.ExecContext(ctx,
		"INSERT INTO users (id, name, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)",
		user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUserByEmail retrieves a user by email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "SELECT id, name, email, password_hash, created_at FROM users WHERE email = ?", email)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, "SELECT id, name, email, password_hash, created_at FROM users WHERE id = ?", id)
}

func (s *SQLiteStore) getUser(ctx context.Context, query, arg string) (*models.User, error) {
	user := &models.User{}
	err := s.q.QueryRowContext(ctx, query, arg).
		Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// --- Groups ---

// CreateGroup persists a new group and its member rows.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}
	return s.InTx(ctx, func(tx storage.Store) error {
		txs := tx.(*SQLiteStore)
		_, err := txs.q.ExecContext(ctx,
			"INSERT INTO groups (id, name, description, created_by, created_at) VALUES (?, ?, ?, ?, ?)",
			group.ID, group.Name, group.Description, group.CreatedBy, group.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert group: %w", err)
		}
		for _, member := range group.Members {
			if err := txs.AddGroupMember(ctx, group.ID, member); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetGroup retrieves a group with its members.
func (s *SQLiteStore) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	group := &models.Group{}
	err := s.q.QueryRowContext(ctx,
		"SELECT id, name, description, created_by, created_at FROM groups WHERE id = ?", id,
	).Scan(&group.ID, &group.Name, &group.Description, &group.CreatedBy, &group.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	rows, err := s.q.QueryContext(ctx,
		"SELECT user_id FROM group_members WHERE group_id = ? ORDER BY user_id", id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var member string
		if err := rows.Scan(&member); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		group.Members = append(group.Members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return group, nil
}

// ListGroupsForUser returns every group the user is a member of.
func (s *SQLiteStore) ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT g.id FROM groups g
		 JOIN group_members m ON m.group_id = g.id
		 WHERE m.user_id = ? ORDER BY g.created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan group id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}

	groups := make([]*models.Group, 0, len(ids))
	for _, id := range ids {
		group, err := s.GetGroup(ctx, id)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// AddGroupMember adds a user to the group. Adding an existing member
// is a no-op.
func (s *SQLiteStore) AddGroupMember(ctx context.Context, groupID, userID string) error {
	_, err := s.q.ExecContext(ctx,
		"INSERT OR IGNORE INTO group_members (group_id, user_id) VALUES (?, ?)",
		groupID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

// DeleteGroup removes the group; instances, items, splits, members and
// balances cascade.
func (s *SQLiteStore) DeleteGroup(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, "DELETE FROM groups WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// --- Instances ---

// CreateInstance persists a new instance.
func (s *SQLiteStore) CreateInstance(ctx context.Context, instance *models.Instance) error {
	if instance.ID == "" {
		instance.ID = uuid.New().String()
	}
	if instance.CreatedAt == 0 {
		instance.CreatedAt = time.Now().Unix()
	}
	_, err := s.q.ExecContext(ctx,
		"INSERT INTO instances (id, group_id, name, date, description, created_by, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		instance.ID, instance.GroupID, instance.Name, instance.Date, instance.Description, instance.CreatedBy, instance.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert instance: %w", err)
	}
	return nil
}

// GetInstance retrieves an instance by ID.
func (s *SQLiteStore) GetInstance(ctx context.Context, id string) (*models.Instance, error) {
	instance := &models.Instance{}
	err := s.q.QueryRowContext(ctx,
		"SELECT id, group_id, name, date, description, created_by, created_at FROM instances WHERE id = ?", id,
	).Scan(&instance.ID, &instance.GroupID, &instance.Name, &instance.Date, &instance.Description, &instance.CreatedBy, &instance.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get instance: %w", err)
	}
	return instance, nil
}

// ListGroupInstances returns the group's instances ordered by date.
func (s *SQLiteStore) ListGroupInstances(ctx context.Context, groupID string) ([]*models.Instance, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT id, group_id, name, date, description, created_by, created_at FROM instances WHERE group_id = ? ORDER BY date",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}
	defer rows.Close()

	var out []*models.Instance
	for rows.Next() {
		instance := &models.Instance{}
		if err := rows.Scan(&instance.ID, &instance.GroupID, &instance.Name, &instance.Date,
			&instance.Description, &instance.CreatedBy, &instance.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan instance: %w", err)
		}
		out = append(out, instance)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate instances: %w", err)
	}
	return out, nil
}

// DeleteInstance removes the instance; items and splits cascade.
func (s *SQLiteStore) DeleteInstance(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, "DELETE FROM instances WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete instance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// --- Items and splits ---

// CreateItem persists a new item.
func (s *SQLiteStore) CreateItem(ctx context.Context, item *models.Item) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.CreatedAt == 0 {
		item.CreatedAt = time.Now().Unix()
	}
	_, err := s.q.ExecContext(ctx,
		"INSERT INTO items (id, instance_id, name, price, created_by, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		item.ID, item.InstanceID, item.Name, item.Price.String(), item.CreatedBy, item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}
	return nil
}

// GetItem retrieves an item by ID.
func (s *SQLiteStore) GetItem(ctx context.Context, id string) (*models.Item, error) {
	item := &models.Item{}
	var raw string
	err := s.q.QueryRowContext(ctx,
		"SELECT id, instance_id, name, price, created_by, created_at FROM items WHERE id = ?", id,
	).Scan(&item.ID, &item.InstanceID, &item.Name, &raw, &item.CreatedBy, &item.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	price, err := money.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("corrupt item price %q: %w", raw, err)
	}
	item.Price = price
	return item, nil
}

// ListInstanceItems returns the instance's items in creation order.
func (s *SQLiteStore) ListInstanceItems(ctx context.Context, instanceID string) ([]*models.Item, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT id, instance_id, name, price, created_by, created_at FROM items WHERE instance_id = ? ORDER BY created_at",
		instanceID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var out []*models.Item
	for rows.Next() {
		item := &models.Item{}
		var raw string
		if err := rows.Scan(&item.ID, &item.InstanceID, &item.Name, &raw, &item.CreatedBy, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		price, err := money.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("corrupt item price %q: %w", raw, err)
		}
		item.Price = price
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}
	return out, nil
}

// CountGroupItems counts items across every instance of the group.
func (s *SQLiteStore) CountGroupItems(ctx context.Context, groupID string) (int, error) {
	var count int
	err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM items i
		 JOIN instances ins ON ins.id = i.instance_id
		 WHERE ins.group_id = ?`,
		groupID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return count, nil
}

// DeleteItem removes the item; its splits cascade.
func (s *SQLiteStore) DeleteItem(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, "DELETE FROM items WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// CreateItemSplit persists one participant's share of an item.
func (s *SQLiteStore) CreateItemSplit(ctx context.Context, split *models.ItemSplit) error {
	_, err := s.q.ExecContext(ctx,
		"INSERT INTO item_splits (item_id, user_id, amount) VALUES (?, ?, ?)",
		split.ItemID, split.UserID, split.Amount.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert split: %w", err)
	}
	return nil
}

// ListItemSplits returns the item's splits.
func (s *SQLiteStore) ListItemSplits(ctx context.Context, itemID string) ([]*models.ItemSplit, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT item_id, user_id, amount FROM item_splits WHERE item_id = ? ORDER BY user_id",
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list splits: %w", err)
	}
	defer rows.Close()

	var out []*models.ItemSplit
	for rows.Next() {
		split := &models.ItemSplit{}
		var raw string
		if err := rows.Scan(&split.ItemID, &split.UserID, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		amount, err := money.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("corrupt split amount %q: %w", raw, err)
		}
		split.Amount = amount
		out = append(out, split)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}
	return out, nil
}
