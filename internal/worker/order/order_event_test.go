package order

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/inipunyacita/merthanaya-pos-sub001/internal/config"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/entity"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/messaging"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/notifier"
	repo "github.com/inipunyacita/merthanaya-pos-sub001/internal/repository/inventory"
	inventorysvc "github.com/inipunyacita/merthanaya-pos-sub001/internal/service/inventory"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/worker"
)

type MockAdjuster struct {
	mock.Mock
}

func (m *MockAdjuster) ApplyDelta(ctx context.Context, productID string, delta float64, reason entity.MovementReason, note *string) (repo.Adjustment, error) {
	args := m.Called(ctx, productID, delta, reason, note)
	return args.Get(0).(repo.Adjustment), args.Error(1)
}

func (m *MockAdjuster) ListBelowThreshold(ctx context.Context, threshold float64) ([]*entity.Product, error) {
	args := m.Called(ctx, threshold)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Product), args.Error(1)
}

func (m *MockAdjuster) ListMovements(ctx context.Context, productID string, limit int) ([]*entity.StockMovement, error) {
	args := m.Called(ctx, productID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.StockMovement), args.Error(1)
}

func testConfig() config.Config {
	cfg := config.Config{}
	cfg.App.LowStockThreshold = 10
	cfg.Messaging.Kafka.Topic = "orders.events"
	return cfg
}

func encode(t *testing.T, evt notifier.OrderEvent) messaging.Message {
	t.Helper()
	payload, err := json.Marshal(evt)
	require.NoError(t, err)
	return messaging.Message{Topic: "orders.events", Value: payload}
}

func TestOrderEventHandler(t *testing.T) {
	newHandler := func(adjuster *MockAdjuster) (worker.HandlerRegistration, *notifier.Hub) {
		logger := zap.NewNop()
		hub := notifier.NewHub(logger)
		svc := inventorysvc.NewService(adjuster, testConfig(), logger)
		return NewOrderEventHandler(logger, testConfig(), hub, svc), hub
	}

	t.Run("RebroadcastsIntoLocalHub", func(t *testing.T) {
		adjuster := new(MockAdjuster)
		adjuster.On("ListBelowThreshold", mock.Anything, 10.0).Return([]*entity.Product{}, nil)

		reg, hub := newHandler(adjuster)
		assert.Equal(t, "orders.events", reg.Topic)

		events, cancel := hub.Subscribe()
		defer cancel()

		evt := notifier.OrderEvent{
			Type:       notifier.EventCreated,
			OrderID:    "order-1",
			Day:        "2026-03-14",
			Seq:        7,
			TicketCode: "#007",
			Status:     entity.StatusPending,
			Total:      4650000,
			ItemCount:  2,
			OccurredAt: time.Now().UTC(),
		}
		require.NoError(t, reg.Handler(context.Background(), encode(t, evt)))

		select {
		case got := <-events:
			assert.Equal(t, evt.OrderID, got.OrderID)
			assert.Equal(t, evt.TicketCode, got.TicketCode)
		case <-time.After(time.Second):
			t.Fatal("expected rebroadcast event")
		}
		adjuster.AssertExpectations(t)
	})

	t.Run("UpdatedEventsSkipStockCheck", func(t *testing.T) {
		adjuster := new(MockAdjuster)

		reg, _ := newHandler(adjuster)

		evt := notifier.OrderEvent{
			Type:    notifier.EventUpdated,
			OrderID: "order-1",
			Status:  entity.StatusPaid,
		}
		require.NoError(t, reg.Handler(context.Background(), encode(t, evt)))

		adjuster.AssertNotCalled(t, "ListBelowThreshold", mock.Anything, mock.Anything)
	})

	t.Run("MalformedPayloadIsAnError", func(t *testing.T) {
		adjuster := new(MockAdjuster)

		reg, _ := newHandler(adjuster)

		msg := messaging.Message{Topic: "orders.events", Value: []byte("not json")}
		assert.Error(t, reg.Handler(context.Background(), msg))
	})

	t.Run("LowStockCheckFailureIsSwallowed", func(t *testing.T) {
		adjuster := new(MockAdjuster)
		adjuster.On("ListBelowThreshold", mock.Anything, 10.0).Return(nil, context.DeadlineExceeded)

		reg, _ := newHandler(adjuster)

		evt := notifier.OrderEvent{Type: notifier.EventCreated, OrderID: "order-2"}
		require.NoError(t, reg.Handler(context.Background(), encode(t, evt)))
	})
}
