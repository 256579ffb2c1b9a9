// internal/core/services/reconcile.go
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ammerola/inventory-be/internal/core/domain"
	"github.com/ammerola/inventory-be/internal/core/ports"
)

// saleState names the steps of a sale write; it is logged, never stored.
type saleState string

const (
	stateReceived       saleState = "received"
	stateValidated      saleState = "validated"
	stateRejected       saleState = "rejected"
	stateProductLookup  saleState = "product_lookup"
	stateNotFound       saleState = "not_found"
	stateStockChecked   saleState = "stock_checked"
	stateInsufficient   saleState = "insufficient"
	stateProductDebited saleState = "product_debited"
	stateSaleWritten    saleState = "sale_written"
	stateAborted        saleState = "aborted"
	stateDone           saleState = "done"
)

// StockReconciler debits a product's stock for a sale.
type StockReconciler struct {
	logger *slog.Logger
}

// NewStockReconciler creates a new reconciler
func NewStockReconciler(logger *slog.Logger) *StockReconciler {
	return &StockReconciler{
		logger: logger.With(slog.String("component", "reconciler")),
	}
}

// Debit locks the product a sale refers to, checks that it holds at least
// the sold quantity and writes the reduced quantity. It must run inside the
// transaction that also writes the sale. The returned product carries the
// new quantity.
//
// The product is resolved by values.ProductID when present, otherwise by
// exact name with the lowest id winning.
func (r *StockReconciler) Debit(ctx context.Context, products ports.ProductRepository, values domain.Values) (*domain.Product, error) {
	if values.Quantity == nil {
		return nil, domain.MissingField("quantity")
	}
	requested := *values.Quantity

	r.trace(ctx, stateProductLookup, values)

	product, err := r.lookup(ctx, products, values)
	if err != nil {
		r.trace(ctx, stateAborted, values, slog.String("error", err.Error()))
		return nil, err
	}

	if product == nil {
		r.trace(ctx, stateNotFound, values)
		unmatched := &domain.UnmatchedProductError{}
		if values.ProductID != nil {
			unmatched.ProductID = *values.ProductID
		}
		if values.Name != nil {
			unmatched.Name = *values.Name
		}
		return nil, unmatched
	}

	if values.ProductID != nil && values.Name != nil && *values.Name != product.Name {
		r.trace(ctx, stateAborted, values, slog.Int64("product_id", product.ID))
		return nil, domain.InvalidValue("name", fmt.Sprintf("does not match product %d", product.ID))
	}

	r.trace(ctx, stateStockChecked, values,
		slog.Int64("product_id", product.ID),
		slog.Int64("available", product.Quantity))

	if requested > product.Quantity {
		r.trace(ctx, stateInsufficient, values,
			slog.Int64("product_id", product.ID),
			slog.Int64("available", product.Quantity),
			slog.Int64("requested", requested))
		return nil, &domain.InsufficientStockError{
			ProductID: product.ID,
			Name:      product.Name,
			Available: product.Quantity,
			Requested: requested,
		}
	}

	remaining := product.Quantity - requested
	if err := products.SetQuantity(ctx, product.ID, remaining); err != nil {
		return nil, err
	}
	product.Quantity = remaining

	r.trace(ctx, stateProductDebited, values,
		slog.Int64("product_id", product.ID),
		slog.Int64("remaining", remaining))

	return product, nil
}

func (r *StockReconciler) lookup(ctx context.Context, products ports.ProductRepository, values domain.Values) (*domain.Product, error) {
	if values.ProductID != nil {
		return products.LockByID(ctx, *values.ProductID)
	}
	if values.Name != nil {
		return products.LockByName(ctx, *values.Name)
	}
	return nil, domain.MissingField("name")
}

func (r *StockReconciler) trace(ctx context.Context, state saleState, values domain.Values, attrs ...any) {
	args := append([]any{slog.String("state", string(state))}, attrs...)
	if values.Name != nil {
		args = append(args, slog.String("product_name", *values.Name))
	}
	if values.Quantity != nil {
		args = append(args, slog.Int64("quantity", *values.Quantity))
	}
	r.logger.DebugContext(ctx, "sale reconciliation", args...)
}
