// Package sqlite persists the last good board fetch so a restarted client
// can render immediately while the network load runs.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sundvall/ordna/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName is the registration name of the modernc.org/sqlite driver.
const driverName = "sqlite"

// Cache stores one serialized board snapshot per row kind.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the snapshot database at path.
func Open(path string) (*Cache, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	cache := &Cache{db: db}
	if err := cache.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return cache, nil
}

// OpenInMemory opens an in-memory cache, used by tests.
func OpenInMemory() (*Cache, error) {
	db, err := sql.Open(driverName, "file::memory:?cache=shared")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	cache := &Cache{db: db}
	if err := cache.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return cache, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// migrate ensures the snapshot tables exist.
func (c *Cache) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			payload_json TEXT NOT NULL,
			fetched_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS task_groups (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			sequence INTEGER NOT NULL,
			fetched_at TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite cache: %w", err)
		}
	}
	return nil
}

// SaveSnapshot replaces the cached snapshot with the given collections.
// The cache is written only after successful loads; optimistic board
// mutations never touch it.
func (c *Cache) SaveSnapshot(ctx context.Context, orders []domain.Order, groups []domain.TaskGroup) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx, `DELETE FROM orders;`); err != nil {
		return fmt.Errorf("clear cached orders: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM task_groups;`); err != nil {
		return fmt.Errorf("clear cached task groups: %w", err)
	}
	for _, order := range orders {
		if order.ID == "" {
			continue
		}
		payload, err := json.Marshal(order)
		if err != nil {
			return fmt.Errorf("encode order %s: %w", order.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO orders (id, payload_json, fetched_at) VALUES (?, ?, ?);`,
			order.ID, string(payload), now,
		); err != nil {
			return fmt.Errorf("insert cached order %s: %w", order.ID, err)
		}
	}
	for _, group := range groups {
		id := group.ID
		if id == "" {
			id = group.Name
		}
		if id == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO task_groups (id, name, sequence, fetched_at) VALUES (?, ?, ?, ?);`,
			id, group.Name, group.Sequence, now,
		); err != nil {
			return fmt.Errorf("insert cached task group %s: %w", group.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot tx: %w", err)
	}
	return nil
}

// LoadSnapshot returns the cached collections in insertion order. An empty
// cache yields empty slices, not an error.
func (c *Cache) LoadSnapshot(ctx context.Context) ([]domain.Order, []domain.TaskGroup, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT payload_json FROM orders ORDER BY rowid;`)
	if err != nil {
		return nil, nil, fmt.Errorf("query cached orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, nil, fmt.Errorf("scan cached order: %w", err)
		}
		var order domain.Order
		if err := json.Unmarshal([]byte(payload), &order); err != nil {
			return nil, nil, fmt.Errorf("decode cached order: %w", err)
		}
		order.RecomputeHighestStatus()
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate cached orders: %w", err)
	}

	groupRows, err := c.db.QueryContext(ctx, `SELECT id, name, sequence FROM task_groups ORDER BY sequence, rowid;`)
	if err != nil {
		return nil, nil, fmt.Errorf("query cached task groups: %w", err)
	}
	defer groupRows.Close()

	groups := []domain.TaskGroup{}
	for groupRows.Next() {
		var group domain.TaskGroup
		if err := groupRows.Scan(&group.ID, &group.Name, &group.Sequence); err != nil {
			return nil, nil, fmt.Errorf("scan cached task group: %w", err)
		}
		groups = append(groups, group)
	}
	if err := groupRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate cached task groups: %w", err)
	}
	return orders, groups, nil
}
