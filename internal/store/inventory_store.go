package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/vbonduro/pantry/internal/db"
	"github.com/vbonduro/pantry/internal/inventory"
)

// InventoryStore is the SQL-backed document store for per-user inventories.
type InventoryStore struct {
	db      *sql.DB
	dialect db.Dialect
}

func NewInventoryStore(d *sql.DB, dialect db.Dialect) *InventoryStore {
	return &InventoryStore{db: d, dialect: dialect}
}

func (s *InventoryStore) FetchAll(ctx context.Context, userID string) (inventory.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, quantity FROM inventory_items WHERE user_id = ?
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch inventory: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	snap := inventory.Snapshot{}
	for rows.Next() {
		var (
			name string
			qty  int
		)
		if err := rows.Scan(&name, &qty); err != nil {
			return nil, fmt.Errorf("failed to scan inventory item: %w", err)
		}
		snap[name] = qty
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating inventory: %w", err)
	}

	return snap, nil
}

// BatchWrite applies muts in a single transaction. Any failure rolls the
// whole batch back.
func (s *InventoryStore) BatchWrite(ctx context.Context, userID string, muts []inventory.Mutation) error {
	for _, m := range muts {
		if m.Op != inventory.OpUpsert && m.Op != inventory.OpDelete {
			return fmt.Errorf("unknown mutation op %q for %q", m.Op, m.Name)
		}
		if m.Op == inventory.OpUpsert && m.Quantity <= 0 {
			return fmt.Errorf("invalid quantity %d for %q", m.Quantity, m.Name)
		}
	}
	if len(muts) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	upsert := s.upsertQuery()
	for _, m := range muts {
		switch m.Op {
		case inventory.OpUpsert:
			_, err = tx.ExecContext(ctx, upsert, userID, m.Name, m.Quantity)
		case inventory.OpDelete:
			_, err = tx.ExecContext(ctx, `
				DELETE FROM inventory_items WHERE user_id = ? AND name = ?
			`, userID, m.Name)
		}
		if err != nil {
			return fmt.Errorf("failed to %s item %q: %w", m.Op, m.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

func (s *InventoryStore) upsertQuery() string {
	if s.dialect == db.DialectMySQL {
		return `
			INSERT INTO inventory_items (user_id, name, quantity) VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE quantity = VALUES(quantity)
		`
	}
	return `
		INSERT INTO inventory_items (user_id, name, quantity) VALUES (?, ?, ?)
		ON CONFLICT (user_id, name) DO UPDATE SET quantity = excluded.quantity, updated_at = datetime('now')
	`
}
