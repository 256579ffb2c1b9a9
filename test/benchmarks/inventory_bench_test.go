package benchmarks

import (
	"context"
	"fmt"
	"testing"

	"github.com/ammerola/inventory-be/internal/adapters/notify"
	"github.com/ammerola/inventory-be/internal/core/domain"
	"github.com/ammerola/inventory-be/internal/core/ports"
	"github.com/ammerola/inventory-be/internal/core/services"
	"github.com/ammerola/inventory-be/test/helpers"
)

func newBenchService(b *testing.B) *services.InventoryService {
	b.Helper()
	sqlite := helpers.SetupTestSQLite(b)
	hub := notify.NewHub(helpers.TestLogger())
	b.Cleanup(hub.Close)
	return services.NewInventoryService(sqlite.Store, hub, helpers.TestLogger())
}

func productValues(name string, quantity int64) domain.Values {
	return domain.Values{
		Name:     domain.Ptr(name),
		Price:    domain.Ptr(int64(1000)),
		Quantity: domain.Ptr(quantity),
		Supplier: domain.Ptr(domain.SupplierForex),
	}
}

func BenchmarkInventoryOperations(b *testing.B) {
	service := newBenchService(b)
	ctx := context.Background()

	b.Run("InsertProduct", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			if _, err := service.Insert(ctx, "products", productValues(fmt.Sprintf("BENCH-%d", i), 10)); err != nil {
				b.Fatal(err)
			}
		}
	})

	stockID, err := service.Insert(ctx, "products", productValues("FC176", int64(1)<<40))
	if err != nil {
		b.Fatal(err)
	}

	b.Run("SellByName", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			if _, err := service.Insert(ctx, "sales", helpers.CreateTestSaleValues(1)); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("SellByID", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			v := helpers.CreateTestSaleValues(1, func(v *domain.Values) { v.ProductID = &stockID })
			if _, err := service.Insert(ctx, "sales", v); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("QueryRow", func(b *testing.B) {
		path := fmt.Sprintf("products/%d", stockID)
		for i := 0; i < b.N; i++ {
			rows, err := service.Query(ctx, path, ports.QueryOptions{})
			if err != nil {
				b.Fatal(err)
			}
			for _, err := range rows {
				if err != nil {
					b.Fatal(err)
				}
			}
		}
	})

	b.Run("QueryFilteredSorted", func(b *testing.B) {
		opts := ports.QueryOptions{
			Filter: domain.Filter{"supplier": "forex"},
			Sort:   domain.Sort{Field: "quantity", Desc: true},
		}
		for i := 0; i < b.N; i++ {
			rows, err := service.Query(ctx, "products", opts)
			if err != nil {
				b.Fatal(err)
			}
			for range rows {
			}
		}
	})
}

func BenchmarkDecodeValues(b *testing.B) {
	payload := []byte(`{"name":"FC176","product_id":1,"price":1000,"quantity":100,"supplier":"forex","supplier_phone":"0612345678"}`)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := domain.DecodeValues(payload); err != nil {
			b.Fatal(err)
		}
	}
}
