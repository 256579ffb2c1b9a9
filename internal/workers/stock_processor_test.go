// internal/workers/stock_processor_test.go
package workers_test

import (
	"context"
	"errors"
	"iter"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/inventory-be/internal/core/domain"
	"github.com/ammerola/inventory-be/internal/core/ports"
	"github.com/ammerola/inventory-be/internal/workers"
	"github.com/ammerola/inventory-be/test/helpers"
	"github.com/ammerola/inventory-be/test/mocks"
)

func productSeq(products ...domain.Product) iter.Seq2[domain.Entity, error] {
	return func(yield func(domain.Entity, error) bool) {
		for _, p := range products {
			if !yield(p, nil) {
				return
			}
		}
	}
}

func changeTask(t *testing.T, change domain.Change) *asynq.Task {
	t.Helper()
	task, err := workers.NewChangeTask(change)
	require.NoError(t, err)
	return task
}

func TestStockProcessor_ProcessChange(t *testing.T) {
	productChange := domain.NewChange(domain.CollectionProducts, domain.OpUpdate, domain.Ptr(int64(1)))
	low := *helpers.CreateTestProduct(func(p *domain.Product) { p.Quantity = 4 })
	healthy := *helpers.CreateTestProduct()

	tests := []struct {
		name       string
		change     domain.Change
		setupMocks func(*mocks.MockInventoryService, *mocks.MockCacheRepository)
		wantErr    bool
	}{
		{
			name:   "first_low_reading_alerts",
			change: productChange,
			setupMocks: func(s *mocks.MockInventoryService, c *mocks.MockCacheRepository) {
				s.EXPECT().Query(gomock.Any(), "products/1", ports.QueryOptions{}).Return(productSeq(low), nil)
				c.EXPECT().SetNX(gomock.Any(), "stock:low:1", int64(4), time.Hour).Return(true, nil)
			},
		},
		{
			name:   "repeated_low_reading_is_deduplicated",
			change: productChange,
			setupMocks: func(s *mocks.MockInventoryService, c *mocks.MockCacheRepository) {
				s.EXPECT().Query(gomock.Any(), "products/1", ports.QueryOptions{}).Return(productSeq(low), nil)
				c.EXPECT().SetNX(gomock.Any(), "stock:low:1", int64(4), time.Hour).Return(false, nil)
			},
		},
		{
			name:   "recovered_stock_clears_marker",
			change: productChange,
			setupMocks: func(s *mocks.MockInventoryService, c *mocks.MockCacheRepository) {
				s.EXPECT().Query(gomock.Any(), "products/1", ports.QueryOptions{}).Return(productSeq(healthy), nil)
				c.EXPECT().Delete(gomock.Any(), "stock:low:1").Return(nil)
			},
		},
		{
			name:   "missing_product_clears_marker",
			change: productChange,
			setupMocks: func(s *mocks.MockInventoryService, c *mocks.MockCacheRepository) {
				s.EXPECT().Query(gomock.Any(), "products/1", ports.QueryOptions{}).Return(productSeq(), nil)
				c.EXPECT().Delete(gomock.Any(), "stock:low:1").Return(nil)
			},
		},
		{
			name:   "deleted_product_clears_marker",
			change: domain.NewChange(domain.CollectionProducts, domain.OpDelete, domain.Ptr(int64(1))),
			setupMocks: func(s *mocks.MockInventoryService, c *mocks.MockCacheRepository) {
				c.EXPECT().Delete(gomock.Any(), "stock:low:1").Return(nil)
			},
		},
		{
			name:       "sale_changes_are_ignored",
			change:     domain.NewChange(domain.CollectionSales, domain.OpInsert, domain.Ptr(int64(9))),
			setupMocks: func(*mocks.MockInventoryService, *mocks.MockCacheRepository) {},
		},
		{
			name:       "bulk_changes_are_ignored",
			change:     domain.NewChange(domain.CollectionProducts, domain.OpUpdate, nil),
			setupMocks: func(*mocks.MockInventoryService, *mocks.MockCacheRepository) {},
		},
		{
			name:   "cache_failure_is_retried",
			change: productChange,
			setupMocks: func(s *mocks.MockInventoryService, c *mocks.MockCacheRepository) {
				s.EXPECT().Query(gomock.Any(), "products/1", ports.QueryOptions{}).Return(productSeq(low), nil)
				c.EXPECT().SetNX(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(false, errors.New("redis down"))
			},
			wantErr: true,
		},
		{
			name:   "query_failure_is_retried",
			change: productChange,
			setupMocks: func(s *mocks.MockInventoryService, c *mocks.MockCacheRepository) {
				s.EXPECT().Query(gomock.Any(), "products/1", ports.QueryOptions{}).
					Return(nil, domain.NewPersistenceError("find products", errors.New("timeout")))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			service := mocks.NewMockInventoryService(ctrl)
			cache := mocks.NewMockCacheRepository(ctrl)
			tt.setupMocks(service, cache)

			processor := workers.NewStockProcessor(service, cache, 10, time.Hour, helpers.TestLogger())
			err := processor.ProcessChange(context.Background(), changeTask(t, tt.change))

			if tt.wantErr {
				require.Error(t, err)
				assert.False(t, workers.IsSkipRetry(err))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestStockProcessor_MalformedPayload(t *testing.T) {
	ctrl := gomock.NewController(t)
	processor := workers.NewStockProcessor(mocks.NewMockInventoryService(ctrl), nil, 10, time.Hour, helpers.TestLogger())

	err := processor.ProcessChange(context.Background(), asynq.NewTask(workers.TypeInventoryChanged, []byte("{bad")))
	require.Error(t, err)
	assert.True(t, workers.IsSkipRetry(err))
}

func TestStockProcessor_WithoutCacheAlwaysAlerts(t *testing.T) {
	ctrl := gomock.NewController(t)
	service := mocks.NewMockInventoryService(ctrl)
	low := *helpers.CreateTestProduct(func(p *domain.Product) { p.Quantity = 0 })
	service.EXPECT().Query(gomock.Any(), "products/1", gomock.Any()).Return(productSeq(low), nil).Times(2)

	processor := workers.NewStockProcessor(service, nil, 10, time.Hour, helpers.TestLogger())
	task := changeTask(t, domain.NewChange(domain.CollectionProducts, domain.OpUpdate, domain.Ptr(int64(1))))

	require.NoError(t, processor.ProcessChange(context.Background(), task))
	require.NoError(t, processor.ProcessChange(context.Background(), task))
}

func TestNewChangeTask(t *testing.T) {
	task := changeTask(t, domain.NewChange(domain.CollectionSales, domain.OpInsert, domain.Ptr(int64(3))))
	assert.Equal(t, workers.TypeInventoryChanged, task.Type())
	assert.Contains(t, string(task.Payload()), `"collection":"sales"`)
}
