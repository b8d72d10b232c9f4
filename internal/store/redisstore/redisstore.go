// Package redisstore keeps each user's inventory in a Redis hash keyed by
// item name.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/vbonduro/pantry/internal/inventory"
)

const (
	inventoryKeyPrefix = "inventory:"
	maxWatchRetries    = 5
)

// ErrWrongType is returned when a user's inventory key holds something other
// than a hash.
var ErrWrongType = errors.New("inventory key is not a hash")

type InventoryStore struct {
	client *redis.Client
}

func NewInventoryStore(client *redis.Client) *InventoryStore {
	return &InventoryStore{client: client}
}

func (s *InventoryStore) FetchAll(ctx context.Context, userID string) (inventory.Snapshot, error) {
	fields, err := s.client.HGetAll(ctx, inventoryKeyPrefix+userID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch inventory: %w", err)
	}

	snap := make(inventory.Snapshot, len(fields))
	for name, raw := range fields {
		qty, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("corrupt quantity %q for %q: %w", raw, name, err)
		}
		snap[name] = qty
	}
	return snap, nil
}

// BatchWrite applies every mutation in one MULTI/EXEC. Redis does not roll
// back a transaction when a queued command fails at run time, so the key is
// WATCHed and checked to be a hash (or absent) before queueing: HSET and HDEL
// on a hash cannot fail, and a concurrent change to the key aborts EXEC
// before anything is applied.
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

	key := inventoryKeyPrefix + userID
	txf := func(tx *redis.Tx) error {
		typ, err := tx.Type(ctx, key).Result()
		if err != nil {
			return err
		}
		if typ != "hash" && typ != "none" {
			return fmt.Errorf("%w: %s holds a %s", ErrWrongType, key, typ)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, m := range muts {
				if m.Op == inventory.OpDelete {
					pipe.HDel(ctx, key, m.Name)
					continue
				}
				pipe.HSet(ctx, key, m.Name, m.Quantity)
			}
			return nil
		})
		return err
	}

	for i := 0; i < maxWatchRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to write inventory batch: %w", err)
		}
		return nil
	}
	return fmt.Errorf("failed to write inventory batch: %w", redis.TxFailedErr)
}
