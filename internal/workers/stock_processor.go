// internal/workers/stock_processor.go
package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/inventory-be/internal/core/domain"
	"github.com/ammerola/inventory-be/internal/core/ports"
)

// Task types
const (
	TypeInventoryChanged = "inventory:changed"
)

// NewChangeTask wraps a change in an asynq task
func NewChangeTask(change domain.Change) (*asynq.Task, error) {
	payload, err := json.Marshal(change)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal change: %w", err)
	}
	return asynq.NewTask(TypeInventoryChanged, payload), nil
}

// StockProcessor watches product changes and raises a low-stock alert
// once per product until its stock recovers.
type StockProcessor struct {
	service   ports.InventoryService
	cache     ports.CacheRepository
	threshold int64
	alertTTL  time.Duration
	logger    *slog.Logger
}

// NewStockProcessor creates a new stock processor. cache may be nil, in
// which case every low reading alerts.
func NewStockProcessor(service ports.InventoryService, cache ports.CacheRepository, threshold int64, alertTTL time.Duration, logger *slog.Logger) *StockProcessor {
	return &StockProcessor{
		service:   service,
		cache:     cache,
		threshold: threshold,
		alertTTL:  alertTTL,
		logger:    logger.With(slog.String("processor", "stock")),
	}
}

// ProcessChange handles TypeInventoryChanged tasks
func (p *StockProcessor) ProcessChange(ctx context.Context, t *asynq.Task) error {
	var change domain.Change
	if err := json.Unmarshal(t.Payload(), &change); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	if change.Collection != domain.CollectionProducts || change.ID == nil {
		return nil
	}
	id := *change.ID
	key := lowStockKey(id)

	if change.Op == domain.OpDelete {
		return p.clearAlert(ctx, key)
	}

	product, err := p.loadProduct(ctx, id)
	if err != nil {
		return err
	}
	if product == nil {
		return p.clearAlert(ctx, key)
	}

	if product.Quantity > p.threshold {
		return p.clearAlert(ctx, key)
	}

	if p.cache != nil {
		first, err := p.cache.SetNX(ctx, key, product.Quantity, p.alertTTL)
		if err != nil {
			return fmt.Errorf("failed to record low stock alert: %w", err)
		}
		if !first {
			p.logger.DebugContext(ctx, "low stock already reported",
				slog.Int64("product_id", id))
			return nil
		}
	}

	p.logger.WarnContext(ctx, "low stock",
		slog.Int64("product_id", product.ID),
		slog.String("name", product.Name),
		slog.Int64("quantity", product.Quantity),
		slog.Int64("threshold", p.threshold),
		slog.String("supplier", string(product.Supplier)),
		slog.String("supplier_phone", product.SupplierPhone))

	return nil
}

func (p *StockProcessor) loadProduct(ctx context.Context, id int64) (*domain.Product, error) {
	rows, err := p.service.Query(ctx, fmt.Sprintf("%s/%d", domain.CollectionProducts, id), ports.QueryOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to query product %d: %w", id, err)
	}

	for entity, err := range rows {
		if err != nil {
			return nil, fmt.Errorf("failed to read product %d: %w", id, err)
		}
		if product, ok := entity.(domain.Product); ok {
			return &product, nil
		}
	}

	return nil, nil
}

func (p *StockProcessor) clearAlert(ctx context.Context, key string) error {
	if p.cache == nil {
		return nil
	}
	if err := p.cache.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to clear low stock alert: %w", err)
	}
	return nil
}

func lowStockKey(id int64) string {
	return fmt.Sprintf("stock:low:%d", id)
}

// IsSkipRetry reports whether err must not be retried
func IsSkipRetry(err error) bool {
	return errors.Is(err, asynq.SkipRetry)
}
