package db_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/inventory-be/internal/adapters/db"
	"github.com/ammerola/inventory-be/internal/core/domain"
	"github.com/ammerola/inventory-be/internal/core/ports"
	"github.com/ammerola/inventory-be/test/helpers"
)

func openMigratedSQLite(t *testing.T) *db.SQLiteDatabase {
	t.Helper()
	return helpers.SetupTestSQLite(t).Database
}

func findProduct(t *testing.T, products ports.ProductRepository, id int64) domain.Product {
	t.Helper()
	rows, err := products.Find(context.Background(), domain.Filter{"id": id}, domain.Sort{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	return rows[0]
}

func TestSQLite_MigrateAndRoundTrip(t *testing.T) {
	database := openMigratedSQLite(t)
	store := db.NewStore(database.SQL(), db.SQLite, helpers.TestLogger())
	ctx := context.Background()

	products := store.Repositories().Products
	id, err := products.Insert(ctx, &domain.Product{Name: "FC176", Price: 1000, Quantity: 445, Supplier: domain.SupplierForex})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	err = store.WithinTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		p, err := repos.Products.LockByName(ctx, "FC176")
		if err != nil {
			return err
		}
		return repos.Products.SetQuantity(ctx, p.ID, p.Quantity-100)
	})
	require.NoError(t, err)

	got := findProduct(t, products, id)
	assert.Equal(t, int64(345), got.Quantity)
	assert.Equal(t, domain.SupplierForex, got.Supplier)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestSQLite_RejectsNegativeQuantity(t *testing.T) {
	database := openMigratedSQLite(t)
	store := db.NewStore(database.SQL(), db.SQLite, helpers.TestLogger())
	ctx := context.Background()

	id, err := store.Repositories().Products.Insert(ctx, &domain.Product{Name: "FC176", Price: 1000, Quantity: 5, Supplier: domain.SupplierForex})
	require.NoError(t, err)

	err = store.Repositories().Products.SetQuantity(ctx, id, -1)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersistence)
}

func TestSQLite_RolledBackTxLeavesStock(t *testing.T) {
	database := openMigratedSQLite(t)
	store := db.NewStore(database.SQL(), db.SQLite, helpers.TestLogger())
	ctx := context.Background()

	id, err := store.Repositories().Products.Insert(ctx, &domain.Product{Name: "FC176", Price: 1000, Quantity: 445, Supplier: domain.SupplierForex})
	require.NoError(t, err)

	err = store.WithinTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		if err := repos.Products.SetQuantity(ctx, id, 0); err != nil {
			return err
		}
		return &domain.InsufficientStockError{ProductID: id, Available: 445, Requested: 500}
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	got := findProduct(t, store.Repositories().Products, id)
	assert.Equal(t, int64(445), got.Quantity)

	health := database.Health(ctx)
	assert.Equal(t, "healthy", health["status"])
}
