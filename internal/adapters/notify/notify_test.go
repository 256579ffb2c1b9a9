package notify_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/inventory-be/internal/adapters/notify"
	"github.com/ammerola/inventory-be/internal/core/domain"
	"github.com/ammerola/inventory-be/internal/core/ports"
	"github.com/ammerola/inventory-be/test/helpers"
	"github.com/ammerola/inventory-be/test/mocks"
)

func TestHub_DeliversInOrder(t *testing.T) {
	hub := notify.NewHub(helpers.TestLogger())
	ctx := context.Background()

	ch, cancel := hub.Subscribe(4)
	defer cancel()

	require.NoError(t, hub.Notify(ctx, domain.NewChange(domain.CollectionProducts, domain.OpUpdate, domain.Ptr(int64(1)))))
	require.NoError(t, hub.Notify(ctx, domain.NewChange(domain.CollectionSales, domain.OpInsert, domain.Ptr(int64(2)))))

	first := <-ch
	second := <-ch
	assert.Equal(t, domain.CollectionProducts, first.Collection)
	assert.Equal(t, domain.CollectionSales, second.Collection)
}

func TestHub_FullSubscriberDropsChange(t *testing.T) {
	hub := notify.NewHub(helpers.TestLogger())
	ctx := context.Background()

	slow, cancelSlow := hub.Subscribe(1)
	defer cancelSlow()
	fast, cancelFast := hub.Subscribe(4)
	defer cancelFast()

	for i := int64(1); i <= 3; i++ {
		require.NoError(t, hub.Notify(ctx, domain.NewChange(domain.CollectionSales, domain.OpInsert, domain.Ptr(i))))
	}

	assert.Len(t, slow, 1)
	assert.Len(t, fast, 3)
	assert.Equal(t, domain.Ptr(int64(1)), (<-slow).ID)
}

func TestHub_CancelAndClose(t *testing.T) {
	hub := notify.NewHub(helpers.TestLogger())

	ch, cancel := hub.Subscribe(0)
	assert.Equal(t, 1, hub.Subscribers())

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)
	assert.Zero(t, hub.Subscribers())

	other, _ := hub.Subscribe(1)
	hub.Close()
	_, open = <-other
	assert.False(t, open)

	late, _ := hub.Subscribe(1)
	_, open = <-late
	assert.False(t, open)
}

func TestFanout_Notify(t *testing.T) {
	ctrl := gomock.NewController(t)
	first := mocks.NewMockChangeNotifier(ctrl)
	second := mocks.NewMockChangeNotifier(ctrl)

	change := domain.NewChange(domain.CollectionProducts, domain.OpDelete, nil)
	boom := errors.New("redis down")

	gomock.InOrder(
		first.EXPECT().Notify(gomock.Any(), change).Return(boom),
		second.EXPECT().Notify(gomock.Any(), change).Return(nil),
	)

	fanout := notify.NewFanout(first, nil, second)
	assert.Equal(t, 2, fanout.Len())

	err := fanout.Notify(context.Background(), change)
	assert.ErrorIs(t, err, boom)
}

func TestFanout_Add(t *testing.T) {
	var seen []domain.Operation
	fanout := notify.NewFanout()
	fanout.Add(nil)
	fanout.Add(ports.ChangeNotifierFunc(func(_ context.Context, c domain.Change) error {
		seen = append(seen, c.Op)
		return nil
	}))

	require.NoError(t, fanout.Notify(context.Background(), domain.NewChange(domain.CollectionSales, domain.OpUpdate, nil)))
	assert.Equal(t, []domain.Operation{domain.OpUpdate}, seen)
}
