// internal/core/services/inventory.go
package services

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"sync"

	"github.com/ammerola/inventory-be/internal/core/domain"
	"github.com/ammerola/inventory-be/internal/core/ports"
	"github.com/ammerola/inventory-be/internal/core/router"
)

// errNoSaleRows rolls back a reconciled sale update that matched no sale.
var errNoSaleRows = errors.New("sale update matched no rows")

// InventoryService routes, validates and persists writes against the
// products and sales collections, reconciling stock for sales.
type InventoryService struct {
	storage    ports.Storage
	notifier   ports.ChangeNotifier
	reconciler *StockReconciler
	logger     *slog.Logger

	// writeMu keeps a single writer per process.
	writeMu sync.Mutex
}

// Statically assert that *InventoryService implements the InventoryService interface.
var _ ports.InventoryService = (*InventoryService)(nil)

// NewInventoryService creates a new inventory service. A nil notifier
// discards change announcements.
func NewInventoryService(storage ports.Storage, notifier ports.ChangeNotifier, logger *slog.Logger) *InventoryService {
	if notifier == nil {
		notifier = ports.ChangeNotifierFunc(func(context.Context, domain.Change) error { return nil })
	}
	return &InventoryService{
		storage:    storage,
		notifier:   notifier,
		reconciler: NewStockReconciler(logger),
		logger:     logger.With(slog.String("service", "inventory")),
	}
}

// Query resolves path and returns its rows. Nothing is read until the
// sequence is ranged over, and every range reads again.
func (s *InventoryService) Query(ctx context.Context, path string, opts ports.QueryOptions) (iter.Seq2[domain.Entity, error], error) {
	target, err := router.Resolve(domain.OpQuery, path, opts.Filter)
	if err != nil {
		return nil, err
	}
	if err := router.ValidateSort(target.Collection, opts.Sort); err != nil {
		return nil, err
	}

	repos := s.storage.Repositories()

	return func(yield func(domain.Entity, error) bool) {
		switch target.Collection {
		case domain.CollectionProducts:
			rows, err := repos.Products.Find(ctx, target.Filter, opts.Sort)
			emit(rows, err, yield)
		case domain.CollectionSales:
			rows, err := repos.Sales.Find(ctx, target.Filter, opts.Sort)
			emit(rows, err, yield)
		}
	}, nil
}

func emit[T domain.Entity](rows []T, err error, yield func(domain.Entity, error) bool) {
	if err != nil {
		yield(nil, err)
		return
	}
	for _, row := range rows {
		if !yield(row, nil) {
			return
		}
	}
}

// Insert adds a row to the collection named by path and returns its id.
func (s *InventoryService) Insert(ctx context.Context, path string, values domain.Values) (int64, error) {
	target, err := router.Resolve(domain.OpInsert, path, nil)
	if err != nil {
		return 0, err
	}
	if err := domain.ValidateInsert(target.Collection, values); err != nil {
		s.logger.DebugContext(ctx, "insert rejected",
			slog.String("collection", string(target.Collection)),
			slog.String("state", string(stateRejected)),
			slog.String("error", err.Error()))
		return 0, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if target.Collection == domain.CollectionSales {
		return s.insertSale(ctx, values)
	}

	product := domain.NewProduct(values)
	id, err := s.storage.Repositories().Products.Insert(ctx, &product)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to insert product",
			slog.String("name", product.Name),
			slog.String("error", err.Error()))
		return 0, err
	}

	s.logger.InfoContext(ctx, "product inserted",
		slog.Int64("id", id),
		slog.String("name", product.Name),
		slog.Int64("quantity", product.Quantity))

	s.announce(ctx, domain.NewChange(domain.CollectionProducts, domain.OpInsert, &id))
	return id, nil
}

func (s *InventoryService) insertSale(ctx context.Context, values domain.Values) (int64, error) {
	s.logger.DebugContext(ctx, "sale received", slog.String("state", string(stateValidated)))

	reconcile := values.Quantity != nil
	var (
		saleID  int64
		debited *domain.Product
	)

	err := s.storage.WithinTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		if reconcile {
			product, err := s.reconciler.Debit(ctx, repos.Products, values)
			if err != nil {
				return err
			}
			values.ProductID = &product.ID
			debited = product
		}

		sale := domain.NewSale(values)
		id, err := repos.Sales.Insert(ctx, &sale)
		if err != nil {
			return err
		}
		saleID = id
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "sale insert aborted",
			slog.String("state", string(stateAborted)),
			slog.String("error", err.Error()))
		return 0, err
	}

	s.logger.InfoContext(ctx, "sale recorded",
		slog.String("state", string(stateSaleWritten)),
		slog.Int64("sale_id", saleID))

	if debited != nil {
		s.announce(ctx, domain.NewChange(domain.CollectionProducts, domain.OpUpdate, domain.Ptr(debited.ID)))
	}
	s.announce(ctx, domain.NewChange(domain.CollectionSales, domain.OpInsert, &saleID))

	s.logger.DebugContext(ctx, "sale insert complete", slog.String("state", string(stateDone)))
	return saleID, nil
}

// Update applies a partial payload to the rows selected by path and filter
// and returns the number of rows changed. An empty payload changes nothing
// and touches no storage.
func (s *InventoryService) Update(ctx context.Context, path string, values domain.Values, filter domain.Filter) (int64, error) {
	target, err := router.Resolve(domain.OpUpdate, path, filter)
	if err != nil {
		return 0, err
	}
	if values.IsEmpty() {
		s.logger.DebugContext(ctx, "empty update ignored", slog.String("path", path))
		return 0, nil
	}
	if err := domain.ValidateUpdate(target.Collection, values); err != nil {
		return 0, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if target.Collection == domain.CollectionSales {
		return s.updateSales(ctx, target, values)
	}

	n, err := s.storage.Repositories().Products.Update(ctx, values, target.Filter)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to update products",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return 0, err
	}

	s.logger.InfoContext(ctx, "products updated",
		slog.String("path", path),
		slog.Int64("rows", n))

	if n > 0 {
		s.announce(ctx, domain.NewChange(domain.CollectionProducts, domain.OpUpdate, target.RowID))
	}
	return n, nil
}

func (s *InventoryService) updateSales(ctx context.Context, target router.Target, values domain.Values) (int64, error) {
	reconcile := values.Quantity != nil && values.HasProductRef()
	if reconcile && !target.IsRow() {
		return 0, domain.InvalidValue("quantity", "stock is reconciled for one sale at a time, update sales/{id}")
	}

	var (
		n       int64
		debited *domain.Product
	)

	err := s.storage.WithinTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		if reconcile {
			product, err := s.reconciler.Debit(ctx, repos.Products, values)
			if err != nil {
				return err
			}
			values.ProductID = &product.ID
			debited = product
		}

		rows, err := repos.Sales.Update(ctx, values, target.Filter)
		if err != nil {
			return err
		}
		if rows == 0 && reconcile {
			return errNoSaleRows
		}
		n = rows
		return nil
	})
	if errors.Is(err, errNoSaleRows) {
		s.logger.InfoContext(ctx, "sale update matched no rows, stock left unchanged")
		return 0, nil
	}
	if err != nil {
		s.logger.WarnContext(ctx, "sale update aborted",
			slog.String("state", string(stateAborted)),
			slog.String("error", err.Error()))
		return 0, err
	}

	s.logger.InfoContext(ctx, "sales updated",
		slog.Int64("rows", n),
		slog.Bool("reconciled", debited != nil))

	if debited != nil {
		s.announce(ctx, domain.NewChange(domain.CollectionProducts, domain.OpUpdate, domain.Ptr(debited.ID)))
	}
	if n > 0 {
		s.announce(ctx, domain.NewChange(domain.CollectionSales, domain.OpUpdate, target.RowID))
	}
	return n, nil
}

// Delete removes the rows selected by path and filter. Deleting a product
// never touches its sales.
func (s *InventoryService) Delete(ctx context.Context, path string, filter domain.Filter) (int64, error) {
	target, err := router.Resolve(domain.OpDelete, path, filter)
	if err != nil {
		return 0, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	repos := s.storage.Repositories()

	var n int64
	switch target.Collection {
	case domain.CollectionProducts:
		n, err = repos.Products.Delete(ctx, target.Filter)
	case domain.CollectionSales:
		n, err = repos.Sales.Delete(ctx, target.Filter)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to delete rows",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return 0, err
	}

	s.logger.InfoContext(ctx, "rows deleted",
		slog.String("path", path),
		slog.Int64("rows", n))

	if n > 0 {
		s.announce(ctx, domain.NewChange(target.Collection, domain.OpDelete, target.RowID))
	}
	return n, nil
}

// announce publishes changes in order. The write is already committed, so
// a failed announcement is logged rather than returned.
func (s *InventoryService) announce(ctx context.Context, change domain.Change) {
	if err := s.notifier.Notify(ctx, change); err != nil {
		s.logger.ErrorContext(ctx, "failed to announce change",
			slog.String("collection", string(change.Collection)),
			slog.String("op", string(change.Op)),
			slog.String("error", err.Error()))
	}
}
