// internal/adapters/db/product_repository.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/ammerola/inventory-be/internal/core/domain"
	"github.com/ammerola/inventory-be/internal/core/ports"
)

var productColumns = []string{
	"id", "name", "price", "quantity", "supplier", "supplier_phone", "created_at", "updated_at",
}

// productRepository implements ports.ProductRepository
type productRepository struct {
	run     runner
	dialect Dialect
	logger  *slog.Logger
}

var _ ports.ProductRepository = (*productRepository)(nil)

type scanner interface {
	Scan(dest ...any) error
}

func (r *productRepository) Insert(ctx context.Context, p *domain.Product) (int64, error) {
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	q := r.dialect.builder().
		Insert("products").
		Columns("name", "price", "quantity", "supplier", "supplier_phone", "created_at", "updated_at").
		Values(p.Name, p.Price, p.Quantity, string(p.Supplier), p.SupplierPhone, p.CreatedAt, p.UpdatedAt)

	id, err := insertRow(ctx, r.run, r.dialect, q)
	if err != nil {
		return 0, domain.NewPersistenceError("insert product", err)
	}
	p.ID = id

	r.logger.DebugContext(ctx, "product saved",
		slog.Int64("id", id),
		slog.String("name", p.Name))

	return id, nil
}

func (r *productRepository) Find(ctx context.Context, filter domain.Filter, sort domain.Sort) ([]domain.Product, error) {
	q := r.dialect.builder().Select(productColumns...).From("products")
	q = applySelection(q, filter, sort)

	query, args, err := q.ToSql()
	if err != nil {
		return nil, domain.NewPersistenceError("build product query", err)
	}

	rows, err := r.run.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.NewPersistenceError("query products", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, domain.NewPersistenceError("scan product", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewPersistenceError("iterate products", err)
	}

	return products, nil
}

// LockByID reads a product and holds its row until the transaction ends.
func (r *productRepository) LockByID(ctx context.Context, id int64) (*domain.Product, error) {
	q := r.dialect.builder().Select(productColumns...).From("products").
		Where(squirrel.Eq{"id": id}).
		Limit(1)
	return r.one(ctx, "lock product", r.dialect.lock(q))
}

// LockByName locks the product with the exact name, lowest id first.
func (r *productRepository) LockByName(ctx context.Context, name string) (*domain.Product, error) {
	q := r.dialect.builder().Select(productColumns...).From("products").
		Where(squirrel.Eq{"name": name}).
		OrderBy("id ASC").
		Limit(1)
	return r.one(ctx, "lock product", r.dialect.lock(q))
}

func (r *productRepository) SetQuantity(ctx context.Context, id int64, quantity int64) error {
	q := r.dialect.builder().Update("products").
		Set("quantity", quantity).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id})

	if _, err := execUpdate(ctx, r.run, q); err != nil {
		return domain.NewPersistenceError("set product quantity", err)
	}
	return nil
}

func (r *productRepository) Update(ctx context.Context, values domain.Values, filter domain.Filter) (int64, error) {
	cols := values.Columns()
	cols["updated_at"] = time.Now().UTC()

	q := r.dialect.builder().Update("products").SetMap(cols)
	if len(filter) > 0 {
		q = q.Where(squirrel.Eq(filter))
	}

	n, err := execUpdate(ctx, r.run, q)
	if err != nil {
		return 0, domain.NewPersistenceError("update products", err)
	}
	return n, nil
}

func (r *productRepository) Delete(ctx context.Context, filter domain.Filter) (int64, error) {
	q := r.dialect.builder().Delete("products")
	if len(filter) > 0 {
		q = q.Where(squirrel.Eq(filter))
	}

	n, err := execDelete(ctx, r.run, q)
	if err != nil {
		return 0, domain.NewPersistenceError("delete products", err)
	}
	return n, nil
}

func (r *productRepository) one(ctx context.Context, op string, q squirrel.SelectBuilder) (*domain.Product, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, domain.NewPersistenceError(op, err)
	}

	p, err := scanProduct(r.run.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewPersistenceError(op, err)
	}
	return p, nil
}

func scanProduct(row scanner) (*domain.Product, error) {
	var (
		p        domain.Product
		supplier string
	)
	if err := row.Scan(
		&p.ID, &p.Name, &p.Price, &p.Quantity,
		&supplier, &p.SupplierPhone, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Supplier = domain.Supplier(supplier)
	return &p, nil
}

// applySelection adds the filter and ordering shared by both collections.
func applySelection(q squirrel.SelectBuilder, filter domain.Filter, sort domain.Sort) squirrel.SelectBuilder {
	if len(filter) > 0 {
		q = q.Where(squirrel.Eq(filter))
	}
	if sort.Field == "" {
		return q.OrderBy("id ASC")
	}
	if sort.Desc {
		return q.OrderBy(sort.Field + " DESC")
	}
	return q.OrderBy(sort.Field + " ASC")
}

func insertRow(ctx context.Context, run runner, d Dialect, q squirrel.InsertBuilder) (int64, error) {
	if d.returning {
		query, args, err := q.Suffix("RETURNING id").ToSql()
		if err != nil {
			return 0, err
		}
		var id int64
		if err := run.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	query, args, err := q.ToSql()
	if err != nil {
		return 0, err
	}
	res, err := run.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func execUpdate(ctx context.Context, run runner, q squirrel.UpdateBuilder) (int64, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return 0, err
	}
	return execAffected(ctx, run, query, args)
}

func execDelete(ctx context.Context, run runner, q squirrel.DeleteBuilder) (int64, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return 0, err
	}
	return execAffected(ctx, run, query, args)
}

func execAffected(ctx context.Context, run runner, query string, args []any) (int64, error) {
	res, err := run.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
