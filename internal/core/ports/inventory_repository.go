// internal/core/ports/inventory_repository.go
package ports

import (
	"context"

	"github.com/ammerola/inventory-be/internal/core/domain"
)

// ProductRepository is the persistence port for the products collection.
// Lock methods return nil, nil when nothing matches.
type ProductRepository interface {
	Insert(ctx context.Context, p *domain.Product) (int64, error)
	Find(ctx context.Context, filter domain.Filter, sort domain.Sort) ([]domain.Product, error)

	// LockByID and LockByName read a product for a read-check-write
	// sequence. Inside a transaction the row stays locked until commit.
	// LockByName returns the lowest id among products sharing the name.
	LockByID(ctx context.Context, id int64) (*domain.Product, error)
	LockByName(ctx context.Context, name string) (*domain.Product, error)

	SetQuantity(ctx context.Context, id, quantity int64) error
	Update(ctx context.Context, values domain.Values, filter domain.Filter) (int64, error)
	Delete(ctx context.Context, filter domain.Filter) (int64, error)
}

// SaleRepository is the persistence port for the sales collection.
type SaleRepository interface {
	Insert(ctx context.Context, s *domain.Sale) (int64, error)
	Find(ctx context.Context, filter domain.Filter, sort domain.Sort) ([]domain.Sale, error)
	Update(ctx context.Context, values domain.Values, filter domain.Filter) (int64, error)
	Delete(ctx context.Context, filter domain.Filter) (int64, error)
}

// Repositories groups the repositories bound to one connection or
// transaction.
type Repositories struct {
	Products ProductRepository
	Sales    SaleRepository
}

// Storage is the storage engine as seen by the core.
type Storage interface {
	// Repositories returns repositories running outside any transaction.
	Repositories() Repositories

	// WithinTx runs fn in one transaction. The transaction commits when fn
	// returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
