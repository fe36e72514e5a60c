package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/inipunyacita/merthanaya-pos-sub001/internal/config"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/entity"
	repo "github.com/inipunyacita/merthanaya-pos-sub001/internal/repository/inventory"
	"github.com/inipunyacita/merthanaya-pos-sub001/pkg/errorbank"
)

// --- Mocks ---

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

func newTestService(adjuster *MockAdjuster) *Service {
	cfg := config.Config{App: config.App{LowStockThreshold: 10}}
	return NewService(adjuster, cfg, zap.NewNop())
}

func kindOf(t *testing.T, err error) errorbank.Kind {
	t.Helper()
	require.Error(t, err)
	return errorbank.From(err).Kind()
}

// --- Tests ---

func TestService_Adjust(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		adjuster := new(MockAdjuster)
		svc := newTestService(adjuster)

		expected := repo.Adjustment{ProductID: "prod-1", ProductName: "Beras Premium", PreviousStock: 50, NewStock: 47.5}
		adjuster.On("ApplyDelta", mock.Anything, "prod-1", -2.5, entity.ReasonManual, (*string)(nil)).Return(expected, nil)

		adj, err := svc.Adjust(ctx, "prod-1", -2.5, nil)
		require.NoError(t, err)
		assert.Equal(t, expected, adj)
		adjuster.AssertExpectations(t)
	})

	t.Run("ZeroDelta", func(t *testing.T) {
		adjuster := new(MockAdjuster)
		svc := newTestService(adjuster)

		_, err := svc.Adjust(ctx, "prod-1", 0, nil)
		assert.Equal(t, errorbank.KindBadRequest, kindOf(t, err))
		adjuster.AssertNotCalled(t, "ApplyDelta")
	})

	t.Run("MissingProductID", func(t *testing.T) {
		svc := newTestService(new(MockAdjuster))
		_, err := svc.Adjust(ctx, "", 1, nil)
		assert.Equal(t, errorbank.KindBadRequest, kindOf(t, err))
	})

	t.Run("NotFound", func(t *testing.T) {
		adjuster := new(MockAdjuster)
		svc := newTestService(adjuster)

		adjuster.On("ApplyDelta", mock.Anything, "prod-x", 1.0, entity.ReasonManual, (*string)(nil)).
			Return(repo.Adjustment{}, repo.ErrNotFound)

		_, err := svc.Adjust(ctx, "prod-x", 1, nil)
		assert.Equal(t, errorbank.KindNotFound, kindOf(t, err))
	})

	t.Run("ConflictOrUnreachable", func(t *testing.T) {
		adjuster := new(MockAdjuster)
		svc := newTestService(adjuster)

		adjuster.On("ApplyDelta", mock.Anything, "prod-1", 1.0, entity.ReasonManual, (*string)(nil)).
			Return(repo.Adjustment{}, errors.New("deadlock"))

		_, err := svc.Adjust(ctx, "prod-1", 1, nil)
		assert.Equal(t, errorbank.KindUnavailable, kindOf(t, err))
	})
}

func TestService_LowStock(t *testing.T) {
	ctx := context.Background()

	t.Run("DefaultThreshold", func(t *testing.T) {
		adjuster := new(MockAdjuster)
		svc := newTestService(adjuster)

		products := []*entity.Product{{ID: "prod-1", Stock: 8}}
		adjuster.On("ListBelowThreshold", mock.Anything, 10.0).Return(products, nil)

		items, err := svc.LowStock(ctx, 0)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, 10.0, items[0].Threshold)
	})

	t.Run("ExplicitThreshold", func(t *testing.T) {
		adjuster := new(MockAdjuster)
		svc := newTestService(adjuster)

		adjuster.On("ListBelowThreshold", mock.Anything, 25.0).Return([]*entity.Product{}, nil)

		items, err := svc.LowStock(ctx, 25)
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}

func TestService_Movements(t *testing.T) {
	ctx := context.Background()
	adjuster := new(MockAdjuster)
	svc := newTestService(adjuster)

	movements := []*entity.StockMovement{{ID: "mov-1", Reason: entity.ReasonSale, Delta: -2.5}}
	adjuster.On("ListMovements", mock.Anything, "prod-1", 20).Return(movements, nil)

	got, err := svc.Movements(ctx, "prod-1", 20)
	require.NoError(t, err)
	assert.Equal(t, movements, got)
}
