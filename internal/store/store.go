// Package store defines the repository abstraction the engine runs against.
// Every command runs inside Update and either commits all of its writes or
// none of them.
package store

import (
	"context"

	"restaurant-pos/internal/models"
)

// Repository is a keyed collection of one entity type. Values returned are
// copies; mutating them has no effect until passed back to Save.
type Repository[T any] interface {
	Get(ctx context.Context, id string) (T, bool, error)
	List(ctx context.Context) ([]T, error)
	Save(ctx context.Context, v T) error
	Delete(ctx context.Context, id string) error
}

// Ledger is the append-only transaction log
type Ledger interface {
	Append(ctx context.Context, tx models.Transaction) error
	Get(ctx context.Context, id string) (models.Transaction, bool, error)
	List(ctx context.Context) ([]models.Transaction, error)
}

// Repos is the set of repositories visible inside one unit of work
type Repos interface {
	MenuItems() Repository[models.MenuItem]
	Categories() Repository[models.Category]
	Tables() Repository[models.Table]
	Orders() Repository[models.Order]
	Drivers() Repository[models.Driver]
	Reservations() Repository[models.Reservation]
	Users() Repository[models.User]
	Transactions() Ledger

	// NextSequence increments and returns the named counter, starting at 1
	NextSequence(ctx context.Context, name string) (int, error)
}

// Store runs units of work. Update calls are serialized; a non-nil error
// from fn discards every write made inside it.
type Store interface {
	View(ctx context.Context, fn func(Repos) error) error
	Update(ctx context.Context, fn func(Repos) error) error
	Close()
}
