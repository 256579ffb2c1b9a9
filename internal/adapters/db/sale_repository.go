// internal/adapters/db/sale_repository.go
package db

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/ammerola/inventory-be/internal/core/domain"
	"github.com/ammerola/inventory-be/internal/core/ports"
)

var saleColumns = []string{
	"id", "product_id", "name", "price", "quantity", "supplier", "supplier_phone", "created_at",
}

// saleRepository implements ports.SaleRepository
type saleRepository struct {
	run     runner
	dialect Dialect
	logger  *slog.Logger
}

var _ ports.SaleRepository = (*saleRepository)(nil)

func (r *saleRepository) Insert(ctx context.Context, s *domain.Sale) (int64, error) {
	s.CreatedAt = time.Now().UTC()

	var productID any
	if s.ProductID != nil {
		productID = *s.ProductID
	}

	q := r.dialect.builder().
		Insert("sales").
		Columns("product_id", "name", "price", "quantity", "supplier", "supplier_phone", "created_at").
		Values(productID, s.ProductName, s.Price, s.Quantity, string(s.Supplier), s.SupplierPhone, s.CreatedAt)

	id, err := insertRow(ctx, r.run, r.dialect, q)
	if err != nil {
		return 0, domain.NewPersistenceError("insert sale", err)
	}
	s.ID = id

	r.logger.DebugContext(ctx, "sale saved",
		slog.Int64("id", id),
		slog.String("name", s.ProductName),
		slog.Int64("quantity", s.Quantity))

	return id, nil
}

func (r *saleRepository) Find(ctx context.Context, filter domain.Filter, sort domain.Sort) ([]domain.Sale, error) {
	q := r.dialect.builder().Select(saleColumns...).From("sales")
	q = applySelection(q, filter, sort)

	query, args, err := q.ToSql()
	if err != nil {
		return nil, domain.NewPersistenceError("build sale query", err)
	}

	rows, err := r.run.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.NewPersistenceError("query sales", err)
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0)
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, domain.NewPersistenceError("scan sale", err)
		}
		sales = append(sales, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewPersistenceError("iterate sales", err)
	}

	return sales, nil
}

func (r *saleRepository) Update(ctx context.Context, values domain.Values, filter domain.Filter) (int64, error) {
	q := r.dialect.builder().Update("sales").SetMap(values.Columns())
	if len(filter) > 0 {
		q = q.Where(squirrel.Eq(filter))
	}

	n, err := execUpdate(ctx, r.run, q)
	if err != nil {
		return 0, domain.NewPersistenceError("update sales", err)
	}
	return n, nil
}

func (r *saleRepository) Delete(ctx context.Context, filter domain.Filter) (int64, error) {
	q := r.dialect.builder().Delete("sales")
	if len(filter) > 0 {
		q = q.Where(squirrel.Eq(filter))
	}

	n, err := execDelete(ctx, r.run, q)
	if err != nil {
		return 0, domain.NewPersistenceError("delete sales", err)
	}
	return n, nil
}

func scanSale(row scanner) (*domain.Sale, error) {
	var (
		s         domain.Sale
		productID sql.NullInt64
		supplier  string
	)
	if err := row.Scan(
		&s.ID, &productID, &s.ProductName, &s.Price, &s.Quantity,
		&supplier, &s.SupplierPhone, &s.CreatedAt,
	); err != nil {
		return nil, err
	}
	if productID.Valid {
		s.ProductID = &productID.Int64
	}
	s.Supplier = domain.Supplier(supplier)
	return &s, nil
}
