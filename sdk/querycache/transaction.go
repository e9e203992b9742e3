package querycache

import (
	"context"
	"errors"
	"sync"
)

// ErrTransactionSettled is returned when a settled transaction is used again.
var ErrTransactionSettled = errors.New("transaction already settled")

// Transaction is an optimistic change to one cached key. It records the value
// before the change so a failed mutation can put it back exactly. At most one
// transaction is open per key; BeginTransaction waits for the previous one to
// settle.
type Transaction[T any] struct {
	cache *Cache
	key   Key
	e     *entry

	prev    T
	hadPrev bool

	once    sync.Once
	settled bool
	mu      sync.Mutex
}

// BeginTransaction opens a transaction on key. It waits for any open
// transaction on the same key, then cancels in-flight fetches of key so a late
// response cannot overwrite the optimistic value, and snapshots the current
// value (including its absence).
func BeginTransaction[T any](ctx context.Context, c *Cache, key Key) (*Transaction[T], error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	e := c.entryLocked(key)
	c.mu.Unlock()

	select {
	case e.txn <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	c.CancelQueries(key)

	t := &Transaction[T]{cache: c, key: key, e: e}
	t.prev, t.hadPrev = GetQueryData[T](c, key)
	return t, nil
}

// Previous returns the snapshot taken when the transaction began.
func (t *Transaction[T]) Previous() (T, bool) {
	return t.prev, t.hadPrev
}

// Apply writes the speculative value into the cache.
func (t *Transaction[T]) Apply(next T) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.settled {
		return ErrTransactionSettled
	}
	t.cache.SetQueryData(t.key, next)
	return nil
}

// Commit keeps the speculative value and releases the key.
func (t *Transaction[T]) Commit() {
	t.settle(false)
}

// Rollback restores the snapshot and releases the key.
func (t *Transaction[T]) Rollback() {
	t.settle(true)
}

func (t *Transaction[T]) settle(rollback bool) {
	t.once.Do(func() {
		t.mu.Lock()
		t.settled = true
		t.mu.Unlock()

		if rollback {
			if t.hadPrev {
				t.cache.SetQueryData(t.key, t.prev)
			} else {
				t.cache.RemoveQueryData(t.key)
			}
		}
		<-t.e.txn
	})
}

// Settle finishes the transaction from the outcome of the remote mutation:
// mutErr rolls back, nil commits. Either way the key is then invalidated so
// the cache converges on the server's state. It returns mutErr, or the
// refetch error when the mutation succeeded.
func (t *Transaction[T]) Settle(ctx context.Context, mutErr error) error {
	if mutErr != nil {
		t.Rollback()
	} else {
		t.Commit()
	}

	if err := t.cache.InvalidateQueries(ctx, t.key); err != nil && mutErr == nil {
		return err
	}
	return mutErr
}

// Optimistic describes a mutation whose effect is shown before the remote
// call confirms it.
type Optimistic[T any] struct {
	Key Key

	// Update derives the speculative value from the snapshot. It must not
	// modify prev.
	Update func(prev T, ok bool) T

	// Mutate performs the remote call.
	Mutate func(ctx context.Context) error
}

// RunOptimistic applies m in one call: begin, apply, mutate, settle.
func RunOptimistic[T any](ctx context.Context, c *Cache, m Optimistic[T]) error {
	txn, err := BeginTransaction[T](ctx, c, m.Key)
	if err != nil {
		return err
	}

	prev, ok := txn.Previous()
	if err := txn.Apply(m.Update(prev, ok)); err != nil {
		txn.Rollback()
		return err
	}

	return txn.Settle(ctx, m.Mutate(ctx))
}
