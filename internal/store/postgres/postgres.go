// Package postgres implements store.Store over pgx. Every unit of work is a
// database transaction; writers are additionally serialized in-process.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"

	"restaurant-pos/internal/database"
	"restaurant-pos/internal/models"
	"restaurant-pos/internal/store"
)

// Store is the PostgreSQL store.Store
type Store struct {
	db      *database.DB
	writeMu sync.Mutex
}

// New wraps an open database
func New(db *database.DB) *Store {
	return &Store{db: db}
}

// View runs fn in a read-only repeatable-read transaction
func (s *Store) View(ctx context.Context, fn func(store.Repos) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(newRepos(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Update runs fn in a serializable transaction and commits when fn succeeds
func (s *Store) Update(ctx context.Context, fn func(store.Repos) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(newRepos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close closes the underlying pool
func (s *Store) Close() {
	s.db.Close()
}

type repos struct {
	tx pgx.Tx
}

func newRepos(tx pgx.Tx) *repos {
	return &repos{tx: tx}
}

func (r *repos) MenuItems() store.Repository[models.MenuItem] {
	return &repo[models.MenuItem]{tx: r.tx, m: menuItemMapper}
}

func (r *repos) Categories() store.Repository[models.Category] {
	return &repo[models.Category]{tx: r.tx, m: categoryMapper}
}

func (r *repos) Tables() store.Repository[models.Table] {
	return &repo[models.Table]{tx: r.tx, m: tableMapper}
}

func (r *repos) Orders() store.Repository[models.Order] {
	return &orderRepo{repo: repo[models.Order]{tx: r.tx, m: orderMapper}}
}

func (r *repos) Drivers() store.Repository[models.Driver] {
	return &repo[models.Driver]{tx: r.tx, m: driverMapper}
}

func (r *repos) Reservations() store.Repository[models.Reservation] {
	return &repo[models.Reservation]{tx: r.tx, m: reservationMapper}
}

func (r *repos) Users() store.Repository[models.User] {
	return &repo[models.User]{tx: r.tx, m: userMapper}
}

func (r *repos) Transactions() store.Ledger {
	return &ledger{repo: repo[models.Transaction]{tx: r.tx, m: transactionMapper}}
}

func (r *repos) NextSequence(ctx context.Context, name string) (int, error) {
	var n int
	if err := r.tx.QueryRow(ctx, database.NextSequenceSQL, name).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to advance sequence %s: %w", name, err)
	}
	return n, nil
}

// mapper describes how one entity maps onto its table; columns[0] is the key
type mapper[T any] struct {
	table   string
	columns []string
	key     func(T) string
	values  func(T) []any
	scan    func(row pgx.Row) (T, error)
}

func (m mapper[T]) selectSQL() string {
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(m.columns, ", "), m.table)
}

func (m mapper[T]) upsertSQL() string {
	placeholders := make([]string, len(m.columns))
	updates := make([]string, 0, len(m.columns)-1)
	for i, c := range m.columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		if i > 0 {
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
		}
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		m.table, strings.Join(m.columns, ", "), strings.Join(placeholders, ", "),
		m.columns[0], strings.Join(updates, ", "))
}

func (m mapper[T]) insertSQL() string {
	placeholders := make([]string, len(m.columns))
	for i := range m.columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		m.table, strings.Join(m.columns, ", "), strings.Join(placeholders, ", "))
}

type repo[T any] struct {
	tx pgx.Tx
	m  mapper[T]
}

func (r *repo[T]) Get(ctx context.Context, id string) (T, bool, error) {
	sql := r.m.selectSQL() + fmt.Sprintf(" WHERE %s = $1", r.m.columns[0])
	v, err := r.m.scan(r.tx.QueryRow(ctx, sql, id))
	if errors.Is(err, pgx.ErrNoRows) {
		var zero T
		return zero, false, nil
	}
	if err != nil {
		var zero T
		return zero, false, fmt.Errorf("failed to get %s %s: %w", r.m.table, id, err)
	}
	return v, true, nil
}

func (r *repo[T]) List(ctx context.Context) ([]T, error) {
	rows, err := r.tx.Query(ctx, r.m.selectSQL()+" ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.m.table, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := r.m.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", r.m.table, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *repo[T]) Save(ctx context.Context, v T) error {
	if r.m.key(v) == "" {
		return fmt.Errorf("cannot save %s without id", r.m.table)
	}
	if _, err := r.tx.Exec(ctx, r.m.upsertSQL(), r.m.values(v)...); err != nil {
		return fmt.Errorf("failed to save %s %s: %w", r.m.table, r.m.key(v), err)
	}
	return nil
}

func (r *repo[T]) Delete(ctx context.Context, id string) error {
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", r.m.table, r.m.columns[0])
	if _, err := r.tx.Exec(ctx, sql, id); err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", r.m.table, id, err)
	}
	return nil
}

// orderRepo appends to order_status_log whenever a save changes the status
type orderRepo struct {
	repo[models.Order]
}

func (r *orderRepo) Save(ctx context.Context, o models.Order) error {
	prev, found, err := r.Get(ctx, o.ID)
	if err != nil {
		return err
	}
	if err := r.repo.Save(ctx, o); err != nil {
		return err
	}
	if found && prev.Status == o.Status {
		return nil
	}
	if _, err := r.tx.Exec(ctx, database.InsertOrderStatusLogSQL, o.ID, string(o.Status), o.UpdatedAt); err != nil {
		return fmt.Errorf("failed to log status for order %s: %w", o.ID, err)
	}
	return nil
}

// ledger never updates rows; a duplicate id fails on the primary key
type ledger struct {
	repo[models.Transaction]
}

func (l *ledger) Append(ctx context.Context, t models.Transaction) error {
	if _, err := l.tx.Exec(ctx, l.m.insertSQL(), l.m.values(t)...); err != nil {
		return fmt.Errorf("failed to append transaction %s: %w", t.ID, err)
	}
	return nil
}
