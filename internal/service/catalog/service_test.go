package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/inipunyacita/merthanaya-pos-sub001/internal/config"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/entity"
	repo "github.com/inipunyacita/merthanaya-pos-sub001/internal/repository/catalog"
	"github.com/inipunyacita/merthanaya-pos-sub001/pkg/errorbank"
)

// --- Mocks ---

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Create(ctx context.Context, product *entity.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockStore) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Product), args.Error(1)
}

func (m *MockStore) GetByBarcode(ctx context.Context, code string) (*entity.Product, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Product), args.Error(1)
}

func (m *MockStore) List(ctx context.Context, filter repo.ListFilter) ([]*entity.Product, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entity.Product), args.Int(1), args.Error(2)
}

func (m *MockStore) Update(ctx context.Context, product *entity.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockStore) SoftDelete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Fixtures ---

func newTestService(store *MockStore) *Service {
	cfg := config.Config{Cache: config.Cache{DefaultTTL: time.Minute}}
	return NewService(store, nil, cfg, zap.NewNop())
}

func validInput() Input {
	return Input{
		Name:     "Beras Premium",
		Category: "staples",
		Price:    1500000,
		Stock:    50,
		Unit:     "weight",
	}
}

func kindOf(t *testing.T, err error) errorbank.Kind {
	t.Helper()
	require.Error(t, err)
	return errorbank.From(err).Kind()
}

// --- Tests ---

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		store := new(MockStore)
		svc := newTestService(store)

		store.On("Create", mock.Anything, mock.AnythingOfType("*entity.Product")).Return(nil)

		product, err := svc.Create(ctx, validInput())
		require.NoError(t, err)
		assert.NotEmpty(t, product.ID)
		assert.True(t, product.Active)
		assert.Equal(t, entity.UnitWeight, product.Unit)
		store.AssertExpectations(t)
	})

	t.Run("MissingName", func(t *testing.T) {
		store := new(MockStore)
		svc := newTestService(store)

		in := validInput()
		in.Name = ""
		_, err := svc.Create(ctx, in)
		assert.Equal(t, errorbank.KindBadRequest, kindOf(t, err))
		store.AssertNotCalled(t, "Create")
	})

	t.Run("NegativePrice", func(t *testing.T) {
		svc := newTestService(new(MockStore))

		in := validInput()
		in.Price = -1
		_, err := svc.Create(ctx, in)
		assert.Equal(t, errorbank.KindBadRequest, kindOf(t, err))
	})

	t.Run("UnknownUnit", func(t *testing.T) {
		svc := newTestService(new(MockStore))

		in := validInput()
		in.Unit = "dozen"
		_, err := svc.Create(ctx, in)
		assert.Equal(t, errorbank.KindBadRequest, kindOf(t, err))
	})
}

func TestService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		store := new(MockStore)
		svc := newTestService(store)

		expected := &entity.Product{ID: "prod-1", Name: "Beras Premium"}
		store.On("GetByID", mock.Anything, "prod-1").Return(expected, nil)

		product, err := svc.Get(ctx, "prod-1")
		require.NoError(t, err)
		assert.Equal(t, expected, product)
	})

	t.Run("NotFound", func(t *testing.T) {
		store := new(MockStore)
		svc := newTestService(store)

		store.On("GetByID", mock.Anything, "prod-x").Return(nil, repo.ErrNotFound)

		_, err := svc.Get(ctx, "prod-x")
		assert.Equal(t, errorbank.KindNotFound, kindOf(t, err))
	})
}

func TestService_GetByBarcode(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		store := new(MockStore)
		svc := newTestService(store)

		expected := &entity.Product{ID: "prod-1"}
		store.On("GetByBarcode", mock.Anything, "8991002100015").Return(expected, nil)

		product, err := svc.GetByBarcode(ctx, "8991002100015")
		require.NoError(t, err)
		assert.Equal(t, expected, product)
	})

	t.Run("EmptyCode", func(t *testing.T) {
		svc := newTestService(new(MockStore))
		_, err := svc.GetByBarcode(ctx, "")
		assert.Equal(t, errorbank.KindBadRequest, kindOf(t, err))
	})
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("StockIsNotEditable", func(t *testing.T) {
		store := new(MockStore)
		svc := newTestService(store)

		existing := &entity.Product{ID: "prod-1", Name: "Old Name", Stock: 50, Active: true}
		store.On("GetByID", mock.Anything, "prod-1").Return(existing, nil)
		store.On("Update", mock.Anything, mock.MatchedBy(func(p *entity.Product) bool {
			return p.Name == "Beras Premium" && p.Stock == 50
		})).Return(nil)

		in := validInput()
		in.Stock = 9999
		product, err := svc.Update(ctx, "prod-1", in)
		require.NoError(t, err)
		assert.Equal(t, 50.0, product.Stock)
		store.AssertExpectations(t)
	})

	t.Run("NotFound", func(t *testing.T) {
		store := new(MockStore)
		svc := newTestService(store)

		store.On("GetByID", mock.Anything, "prod-x").Return(nil, repo.ErrNotFound)

		_, err := svc.Update(ctx, "prod-x", validInput())
		assert.Equal(t, errorbank.KindNotFound, kindOf(t, err))
	})
}

func TestService_SoftDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		store := new(MockStore)
		svc := newTestService(store)

		store.On("SoftDelete", mock.Anything, "prod-1").Return(nil)
		assert.NoError(t, svc.SoftDelete(ctx, "prod-1"))
	})

	t.Run("RepositoryError", func(t *testing.T) {
		store := new(MockStore)
		svc := newTestService(store)

		store.On("SoftDelete", mock.Anything, "prod-1").Return(errors.New("db down"))
		err := svc.SoftDelete(ctx, "prod-1")
		assert.Equal(t, errorbank.KindInternal, kindOf(t, err))
	})
}
