// internal/core/ports/notifier.go
package ports

import (
	"context"

	"github.com/ammerola/inventory-be/internal/core/domain"
)

// ChangeNotifier announces committed changes to subscribers.
type ChangeNotifier interface {
	Notify(ctx context.Context, change domain.Change) error
}

// ChangeNotifierFunc adapts a function to ChangeNotifier.
type ChangeNotifierFunc func(ctx context.Context, change domain.Change) error

func (f ChangeNotifierFunc) Notify(ctx context.Context, change domain.Change) error {
	return f(ctx, change)
}
