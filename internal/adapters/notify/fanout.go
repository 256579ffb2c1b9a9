// internal/adapters/notify/fanout.go
package notify

import (
	"context"
	"errors"

	"github.com/ammerola/inventory-be/internal/core/domain"
	"github.com/ammerola/inventory-be/internal/core/ports"
)

// Fanout forwards each change to every notifier in order. All notifiers
// are tried; their errors are joined.
type Fanout struct {
	notifiers []ports.ChangeNotifier
}

var _ ports.ChangeNotifier = (*Fanout)(nil)

// NewFanout skips nil notifiers
func NewFanout(notifiers ...ports.ChangeNotifier) *Fanout {
	f := &Fanout{}
	for _, n := range notifiers {
		if n != nil {
			f.notifiers = append(f.notifiers, n)
		}
	}
	return f
}

// Add appends a notifier
func (f *Fanout) Add(n ports.ChangeNotifier) {
	if n != nil {
		f.notifiers = append(f.notifiers, n)
	}
}

// Len returns the number of notifiers
func (f *Fanout) Len() int {
	return len(f.notifiers)
}

func (f *Fanout) Notify(ctx context.Context, change domain.Change) error {
	var errs []error
	for _, n := range f.notifiers {
		if err := n.Notify(ctx, change); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
