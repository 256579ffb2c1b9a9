// internal/core/services/concurrency_test.go
package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/inventory-be/internal/core/domain"
	"github.com/ammerola/inventory-be/internal/core/ports"
	"github.com/ammerola/inventory-be/internal/core/services"
	"github.com/ammerola/inventory-be/test/helpers"
)

func TestInventoryService_ConcurrentSalesNeverOversell(t *testing.T) {
	const (
		stock   = int64(100)
		perSale = int64(10)
		sellers = 20
	)

	sqlite := helpers.SetupTestSQLite(t)
	service := services.NewInventoryService(sqlite.Store, nil, helpers.TestLogger())
	ctx := context.Background()

	id, err := service.Insert(ctx, "products", domain.Values{
		Name:     domain.Ptr("FC176"),
		Price:    domain.Ptr(int64(1000)),
		Quantity: domain.Ptr(stock),
		Supplier: domain.Ptr(domain.SupplierForex),
	})
	require.NoError(t, err)

	var (
		wg           sync.WaitGroup
		succeeded    atomic.Int64
		insufficient atomic.Int64
		unexpected   = make(chan error, sellers)
	)
	for i := 0; i < sellers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.Insert(ctx, "sales", helpers.CreateTestSaleValues(perSale))
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				insufficient.Add(1)
			default:
				unexpected <- err
			}
		}()
	}
	wg.Wait()
	close(unexpected)

	for err := range unexpected {
		t.Errorf("unexpected sale error: %v", err)
	}

	remaining := productQuantity(t, service, id)
	assert.Equal(t, stock, succeeded.Load()*perSale+remaining, "stock and sold quantity disagree")
	assert.Equal(t, int64(sellers), succeeded.Load()+insufficient.Load())
	assert.Equal(t, stock/perSale, succeeded.Load())
	assert.Zero(t, remaining)
	assert.Len(t, collect(t, service, "sales"), int(succeeded.Load()))
}

func productQuantity(t *testing.T, service *services.InventoryService, id int64) int64 {
	t.Helper()
	rows := collect(t, service, fmt.Sprintf("products/%d", id))
	require.Len(t, rows, 1)
	product, ok := rows[0].(domain.Product)
	require.True(t, ok)
	return product.Quantity
}

func collect(t *testing.T, service *services.InventoryService, path string) []domain.Entity {
	t.Helper()
	seq, err := service.Query(context.Background(), path, ports.QueryOptions{})
	require.NoError(t, err)

	var rows []domain.Entity
	for entity, err := range seq {
		require.NoError(t, err)
		rows = append(rows, entity)
	}
	return rows
}
