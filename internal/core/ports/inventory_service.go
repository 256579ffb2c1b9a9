// internal/core/ports/inventory_service.go
package ports

import (
	"context"
	"iter"

	"github.com/ammerola/inventory-be/internal/core/domain"
)

// InventoryService is the operation surface over both collections.
// path is "<collection>" or "<collection>/<id>".
type InventoryService interface {
	// Query returns a lazy sequence; each range re-runs the query.
	Query(ctx context.Context, path string, opts QueryOptions) (iter.Seq2[domain.Entity, error], error)
	Insert(ctx context.Context, path string, values domain.Values) (int64, error)
	Update(ctx context.Context, path string, values domain.Values, filter domain.Filter) (int64, error)
	Delete(ctx context.Context, path string, filter domain.Filter) (int64, error)
}

// QueryOptions holds the optional filter and sort of a query.
type QueryOptions struct {
	Filter domain.Filter
	Sort   domain.Sort
}
