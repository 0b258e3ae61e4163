// Package memory is a copy-on-write in-process store. Update runs against a
// private copy of the state that replaces the live state only on success.
package memory

import (
	"context"
	"fmt"
	"sync"

	"restaurant-pos/internal/models"
	"restaurant-pos/internal/store"
)

type table[T any] struct {
	key   func(T) string
	clone func(T) T
	rows  map[string]T
	order []string
}

func newTable[T any](key func(T) string, clone func(T) T) *table[T] {
	return &table[T]{key: key, clone: clone, rows: make(map[string]T)}
}

// copy is shallow over values; values are cloned on every read and write
func (t *table[T]) copy() *table[T] {
	rows := make(map[string]T, len(t.rows))
	for k, v := range t.rows {
		rows[k] = v
	}
	return &table[T]{
		key:   t.key,
		clone: t.clone,
		rows:  rows,
		order: append([]string(nil), t.order...),
	}
}

func (t *table[T]) Get(_ context.Context, id string) (T, bool, error) {
	v, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, false, nil
	}
	return t.clone(v), true, nil
}

func (t *table[T]) List(_ context.Context) ([]T, error) {
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.clone(t.rows[id]))
	}
	return out, nil
}

func (t *table[T]) Save(_ context.Context, v T) error {
	id := t.key(v)
	if id == "" {
		return fmt.Errorf("cannot save entity without id")
	}
	if _, ok := t.rows[id]; !ok {
		t.order = append(t.order, id)
	}
	t.rows[id] = t.clone(v)
	return nil
}

func (t *table[T]) Delete(_ context.Context, id string) error {
	if _, ok := t.rows[id]; !ok {
		return nil
	}
	delete(t.rows, id)
	for i, k := range t.order {
		if k == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return nil
}

type ledger struct {
	*table[models.Transaction]
}

func (l ledger) Append(ctx context.Context, tx models.Transaction) error {
	if _, ok := l.rows[tx.ID]; ok {
		return fmt.Errorf("transaction %s already recorded", tx.ID)
	}
	return l.Save(ctx, tx)
}

type state struct {
	menu         *table[models.MenuItem]
	categories   *table[models.Category]
	tables       *table[models.Table]
	orders       *table[models.Order]
	drivers      *table[models.Driver]
	reservations *table[models.Reservation]
	users        *table[models.User]
	transactions *table[models.Transaction]
	sequences    map[string]int
}

func newState() *state {
	return &state{
		menu:         newTable(func(v models.MenuItem) string { return v.ID }, models.MenuItem.Clone),
		categories:   newTable(func(v models.Category) string { return v.ID }, models.Category.Clone),
		tables:       newTable(func(v models.Table) string { return v.ID }, models.Table.Clone),
		orders:       newTable(func(v models.Order) string { return v.ID }, models.Order.Clone),
		drivers:      newTable(func(v models.Driver) string { return v.ID }, models.Driver.Clone),
		reservations: newTable(func(v models.Reservation) string { return v.ID }, models.Reservation.Clone),
		users:        newTable(func(v models.User) string { return v.ID }, models.User.Clone),
		transactions: newTable(func(v models.Transaction) string { return v.ID }, models.Transaction.Clone),
		sequences:    make(map[string]int),
	}
}

func (s *state) copy() *state {
	seqs := make(map[string]int, len(s.sequences))
	for k, v := range s.sequences {
		seqs[k] = v
	}
	return &state{
		menu:         s.menu.copy(),
		categories:   s.categories.copy(),
		tables:       s.tables.copy(),
		orders:       s.orders.copy(),
		drivers:      s.drivers.copy(),
		reservations: s.reservations.copy(),
		users:        s.users.copy(),
		transactions: s.transactions.copy(),
		sequences:    seqs,
	}
}

func (s *state) MenuItems() store.Repository[models.MenuItem]       { return s.menu }
func (s *state) Categories() store.Repository[models.Category]      { return s.categories }
func (s *state) Tables() store.Repository[models.Table]             { return s.tables }
func (s *state) Orders() store.Repository[models.Order]             { return s.orders }
func (s *state) Drivers() store.Repository[models.Driver]           { return s.drivers }
func (s *state) Reservations() store.Repository[models.Reservation] { return s.reservations }
func (s *state) Users() store.Repository[models.User]               { return s.users }
func (s *state) Transactions() store.Ledger                         { return ledger{s.transactions} }

func (s *state) NextSequence(_ context.Context, name string) (int, error) {
	s.sequences[name]++
	return s.sequences[name], nil
}

// Store is the in-memory store.Store
type Store struct {
	writeMu sync.Mutex
	mu      sync.RWMutex
	current *state
}

// New creates an empty store
func New() *Store {
	return &Store{current: newState()}
}

// View runs fn against the latest committed state
func (s *Store) View(ctx context.Context, fn func(store.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	snapshot := s.current
	s.mu.RUnlock()

	// Writes made inside View are dropped
	return fn(snapshot.copy())
}

// Update runs fn against a private copy and publishes it if fn succeeds
func (s *Store) Update(ctx context.Context, fn func(store.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	next := s.current.copy()
	s.mu.RUnlock()

	if err := fn(next); err != nil {
		return err
	}

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()
	return nil
}

// Close is a no-op
func (s *Store) Close() {}
