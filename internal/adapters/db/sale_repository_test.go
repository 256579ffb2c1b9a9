package db_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/inventory-be/internal/adapters/db"
	"github.com/ammerola/inventory-be/internal/core/domain"
	"github.com/ammerola/inventory-be/test/helpers"
)

var saleCols = []string{"id", "product_id", "name", "price", "quantity", "supplier", "supplier_phone", "created_at"}

func TestSaleRepository_Insert(t *testing.T) {
	mock, sqlDB := helpers.SetupMockDB(t)
	repo := db.NewStore(sqlDB, db.Postgres, helpers.TestLogger()).Repositories().Sales

	mock.ExpectQuery(regexp.QuoteMeta(
		"INSERT INTO sales (product_id,name,price,quantity,supplier,supplier_phone,created_at) VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id")).
		WithArgs(int64(1), "FC176", int64(1500), int64(100), "forex", "", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))

	s := &domain.Sale{ProductID: domain.Ptr(int64(1)), ProductName: "FC176", Price: 1500, Quantity: 100, Supplier: domain.SupplierForex}
	id, err := repo.Insert(context.Background(), s)

	require.NoError(t, err)
	assert.Equal(t, int64(10), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaleRepository_Insert_WithoutProduct(t *testing.T) {
	mock, sqlDB := helpers.SetupMockDB(t)
	repo := db.NewStore(sqlDB, db.SQLite, helpers.TestLogger()).Repositories().Sales

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sales")).
		WithArgs(nil, "gift card", int64(500), int64(0), "unknown", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(4, 1))

	s := &domain.Sale{ProductName: "gift card", Price: 500, Supplier: domain.SupplierUnknown}
	id, err := repo.Insert(context.Background(), s)

	require.NoError(t, err)
	assert.Equal(t, int64(4), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaleRepository_Find(t *testing.T) {
	mock, sqlDB := helpers.SetupMockDB(t)
	repo := db.NewStore(sqlDB, db.Postgres, helpers.TestLogger()).Repositories().Sales
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM sales WHERE product_id = $1 ORDER BY id ASC")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(saleCols).
			AddRow(10, 1, "FC176", 1500, 100, "forex", "", now).
			AddRow(11, nil, "FC176", 1500, 5, "forex", "", now))

	sales, err := repo.Find(context.Background(), domain.Filter{"product_id": int64(1)}, domain.Sort{})

	require.NoError(t, err)
	require.Len(t, sales, 2)
	require.NotNil(t, sales[0].ProductID)
	assert.Equal(t, int64(1), *sales[0].ProductID)
	assert.Nil(t, sales[1].ProductID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaleRepository_UpdateAndDelete(t *testing.T) {
	mock, sqlDB := helpers.SetupMockDB(t)
	repo := db.NewStore(sqlDB, db.Postgres, helpers.TestLogger()).Repositories().Sales

	mock.ExpectExec(regexp.QuoteMeta("UPDATE sales SET product_id = $1, quantity = $2 WHERE id = $3")).
		WithArgs(int64(1), int64(20), int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sales WHERE id = $1")).
		WithArgs(int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ctx := context.Background()
	n, err := repo.Update(ctx, domain.Values{ProductID: domain.Ptr(int64(1)), Quantity: domain.Ptr(int64(20))}, domain.Filter{"id": int64(10)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.Delete(ctx, domain.Filter{"id": int64(10)})
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.NoError(t, mock.ExpectationsWereMet())
}
