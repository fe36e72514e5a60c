package order

import (
	"context"
	"database/sql/driver"
	"errors"
	"sync"
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
	repo "github.com/inipunyacita/merthanaya-pos-sub001/internal/repository/order"
	"github.com/inipunyacita/merthanaya-pos-sub001/pkg/errorbank"
)

// --- Mocks ---

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Create(ctx context.Context, order *entity.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockStore) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

func (m *MockStore) Transition(ctx context.Context, id string, to entity.OrderStatus) (*entity.Order, error) {
	args := m.Called(ctx, id, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

func (m *MockStore) ListPending(ctx context.Context) ([]*entity.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Order), args.Error(1)
}

func (m *MockStore) ListPaid(ctx context.Context, page, pageSize int) ([]*entity.Order, int, error) {
	args := m.Called(ctx, page, pageSize)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entity.Order), args.Int(1), args.Error(2)
}

func (m *MockStore) ListHistory(ctx context.Context, filter repo.HistoryFilter) ([]*entity.Order, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entity.Order), args.Int(1), args.Error(2)
}

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Product), args.Error(1)
}

type MockSink struct {
	mock.Mock
}

func (m *MockSink) Publish(evt notifier.OrderEvent) {
	m.Called(evt)
}

type MockBus struct {
	mock.Mock
}

func (m *MockBus) Publish(ctx context.Context, key, value []byte) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockBus) Consume(ctx context.Context, handler messaging.Handler) error {
	args := m.Called(ctx, handler)
	return args.Error(0)
}

func (m *MockBus) Topic() string { return "orders.events" }

// --- Fixtures ---

func testConfig() config.Config {
	return config.Config{
		App: config.App{
			Timezone:      "UTC",
			CreateRetries: 3,
		},
		Cache: config.Cache{DefaultTTL: time.Minute},
	}
}

func newTestService(t *testing.T, store *MockStore, catalog *MockCatalog, sink *MockSink) *Service {
	t.Helper()
	svc, err := NewService(store, catalog, sink, nil, nil, testConfig(), zap.NewNop())
	require.NoError(t, err)
	return svc
}

func rice() *entity.Product {
	return &entity.Product{
		ID:     "prod-rice",
		Name:   "Beras Premium",
		Price:  1500000,
		Stock:  50,
		Unit:   entity.UnitWeight,
		Active: true,
	}
}

func soap() *entity.Product {
	return &entity.Product{
		ID:     "prod-soap",
		Name:   "Sabun Mandi",
		Price:  450000,
		Stock:  120,
		Unit:   entity.UnitItem,
		Active: true,
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
		catalog := new(MockCatalog)
		sink := new(MockSink)
		svc := newTestService(t, store, catalog, sink)

		catalog.On("GetByID", mock.Anything, "prod-rice").Return(rice(), nil)
		catalog.On("GetByID", mock.Anything, "prod-soap").Return(soap(), nil)
		store.On("Create", mock.Anything, mock.AnythingOfType("*entity.Order")).
			Run(func(args mock.Arguments) {
				args.Get(1).(*entity.Order).Seq = 1
			}).
			Return(nil)
		sink.On("Publish", mock.MatchedBy(func(evt notifier.OrderEvent) bool {
			return evt.Type == notifier.EventCreated && evt.TicketCode == "#001"
		})).Return()

		order, err := svc.Create(ctx, []CartLine{
			{ProductID: "prod-rice", Quantity: 2.5},
			{ProductID: "prod-soap", Quantity: 2},
		})
		require.NoError(t, err)

		assert.Equal(t, entity.StatusPending, order.Status)
		assert.Equal(t, 1, order.Seq)
		require.Len(t, order.Items, 2)

		// Price snapshots and rounded subtotals.
		assert.Equal(t, "Beras Premium", order.Items[0].ProductName)
		assert.Equal(t, int64(1500000), order.Items[0].UnitPrice)
		assert.Equal(t, int64(3750000), order.Items[0].Subtotal)
		assert.Equal(t, int64(900000), order.Items[1].Subtotal)
		assert.Equal(t, int64(4650000), order.Total)

		store.AssertExpectations(t)
		sink.AssertExpectations(t)
	})

	t.Run("EmptyCart", func(t *testing.T) {
		store := new(MockStore)
		catalog := new(MockCatalog)
		sink := new(MockSink)
		svc := newTestService(t, store, catalog, sink)

		_, err := svc.Create(ctx, nil)
		assert.Equal(t, errorbank.KindBadRequest, kindOf(t, err))
		store.AssertNotCalled(t, "Create")
	})

	t.Run("NonPositiveQuantity", func(t *testing.T) {
		store := new(MockStore)
		catalog := new(MockCatalog)
		sink := new(MockSink)
		svc := newTestService(t, store, catalog, sink)

		_, err := svc.Create(ctx, []CartLine{{ProductID: "prod-rice", Quantity: 0}})
		assert.Equal(t, errorbank.KindBadRequest, kindOf(t, err))

		_, err = svc.Create(ctx, []CartLine{{ProductID: "prod-rice", Quantity: -1}})
		assert.Equal(t, errorbank.KindBadRequest, kindOf(t, err))
	})

	t.Run("UnknownProduct", func(t *testing.T) {
		store := new(MockStore)
		catalog := new(MockCatalog)
		sink := new(MockSink)
		svc := newTestService(t, store, catalog, sink)

		catalog.On("GetByID", mock.Anything, "prod-ghost").Return(nil, errors.New("not found"))

		_, err := svc.Create(ctx, []CartLine{{ProductID: "prod-ghost", Quantity: 1}})
		assert.Equal(t, errorbank.KindBadRequest, kindOf(t, err))
		store.AssertNotCalled(t, "Create")
	})

	t.Run("InactiveProduct", func(t *testing.T) {
		store := new(MockStore)
		catalog := new(MockCatalog)
		sink := new(MockSink)
		svc := newTestService(t, store, catalog, sink)

		retired := soap()
		retired.Active = false
		catalog.On("GetByID", mock.Anything, "prod-soap").Return(retired, nil)

		_, err := svc.Create(ctx, []CartLine{{ProductID: "prod-soap", Quantity: 1}})
		assert.Equal(t, errorbank.KindBadRequest, kindOf(t, err))
	})

	t.Run("FractionalQuantityForDiscreteUnit", func(t *testing.T) {
		store := new(MockStore)
		catalog := new(MockCatalog)
		sink := new(MockSink)
		svc := newTestService(t, store, catalog, sink)

		catalog.On("GetByID", mock.Anything, "prod-soap").Return(soap(), nil)

		_, err := svc.Create(ctx, []CartLine{{ProductID: "prod-soap", Quantity: 1.5}})
		assert.Equal(t, errorbank.KindBadRequest, kindOf(t, err))
		store.AssertNotCalled(t, "Create")
	})

	t.Run("FractionalQuantityForWeightUnit", func(t *testing.T) {
		store := new(MockStore)
		catalog := new(MockCatalog)
		sink := new(MockSink)
		svc := newTestService(t, store, catalog, sink)

		catalog.On("GetByID", mock.Anything, "prod-rice").Return(rice(), nil)
		store.On("Create", mock.Anything, mock.Anything).Return(nil)
		sink.On("Publish", mock.Anything).Return()

		order, err := svc.Create(ctx, []CartLine{{ProductID: "prod-rice", Quantity: 0.25}})
		require.NoError(t, err)
		assert.Equal(t, int64(375000), order.Total)
	})

	t.Run("RetriesTransientFailures", func(t *testing.T) {
		store := new(MockStore)
		catalog := new(MockCatalog)
		sink := new(MockSink)
		svc := newTestService(t, store, catalog, sink)

		catalog.On("GetByID", mock.Anything, "prod-soap").Return(soap(), nil)
		store.On("Create", mock.Anything, mock.Anything).Return(driver.ErrBadConn).Twice()
		store.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
		sink.On("Publish", mock.Anything).Return()

		_, err := svc.Create(ctx, []CartLine{{ProductID: "prod-soap", Quantity: 1}})
		require.NoError(t, err)
		store.AssertNumberOfCalls(t, "Create", 3)
	})

	t.Run("RetriesExhausted", func(t *testing.T) {
		store := new(MockStore)
		catalog := new(MockCatalog)
		sink := new(MockSink)
		svc := newTestService(t, store, catalog, sink)

		catalog.On("GetByID", mock.Anything, "prod-soap").Return(soap(), nil)
		store.On("Create", mock.Anything, mock.Anything).Return(driver.ErrBadConn)

		_, err := svc.Create(ctx, []CartLine{{ProductID: "prod-soap", Quantity: 1}})
		assert.Equal(t, errorbank.KindUnavailable, kindOf(t, err))
		store.AssertNumberOfCalls(t, "Create", 3)
		sink.AssertNotCalled(t, "Publish")
	})

	t.Run("PermanentFailureIsNotRetried", func(t *testing.T) {
		store := new(MockStore)
		catalog := new(MockCatalog)
		sink := new(MockSink)
		svc := newTestService(t, store, catalog, sink)

		catalog.On("GetByID", mock.Anything, "prod-soap").Return(soap(), nil)
		store.On("Create", mock.Anything, mock.Anything).Return(errors.New("null value in column"))

		_, err := svc.Create(ctx, []CartLine{{ProductID: "prod-soap", Quantity: 1}})
		assert.Equal(t, errorbank.KindUnavailable, kindOf(t, err))
		store.AssertNumberOfCalls(t, "Create", 1)
		sink.AssertNotCalled(t, "Publish")
	})

	t.Run("ProductUnavailableIsNotRetried", func(t *testing.T) {
		store := new(MockStore)
		catalog := new(MockCatalog)
		sink := new(MockSink)
		svc := newTestService(t, store, catalog, sink)

		catalog.On("GetByID", mock.Anything, "prod-soap").Return(soap(), nil)
		store.On("Create", mock.Anything, mock.Anything).Return(repo.ErrProductUnavailable)

		_, err := svc.Create(ctx, []CartLine{{ProductID: "prod-soap", Quantity: 1}})
		assert.Equal(t, errorbank.KindBadRequest, kindOf(t, err))
		store.AssertNumberOfCalls(t, "Create", 1)
	})
}

func TestService_Transitions(t *testing.T) {
	ctx := context.Background()

	paidOrder := func() *entity.Order {
		return &entity.Order{
			ID:     "order-1",
			Day:    time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
			Seq:    7,
			Status: entity.StatusPaid,
			Total:  900000,
		}
	}

	t.Run("PaySuccess", func(t *testing.T) {
		store := new(MockStore)
		sink := new(MockSink)
		svc := newTestService(t, store, new(MockCatalog), sink)

		store.On("Transition", mock.Anything, "order-1", entity.StatusPaid).Return(paidOrder(), nil)
		sink.On("Publish", mock.MatchedBy(func(evt notifier.OrderEvent) bool {
			return evt.Type == notifier.EventUpdated && evt.Status == entity.StatusPaid && evt.TicketCode == "#007"
		})).Return()

		order, err := svc.Pay(ctx, "order-1")
		require.NoError(t, err)
		assert.Equal(t, entity.StatusPaid, order.Status)
		sink.AssertExpectations(t)
	})

	t.Run("CancelSuccess", func(t *testing.T) {
		store := new(MockStore)
		sink := new(MockSink)
		svc := newTestService(t, store, new(MockCatalog), sink)

		cancelled := paidOrder()
		cancelled.Status = entity.StatusCancelled
		store.On("Transition", mock.Anything, "order-1", entity.StatusCancelled).Return(cancelled, nil)
		sink.On("Publish", mock.Anything).Return()

		order, err := svc.Cancel(ctx, "order-1")
		require.NoError(t, err)
		assert.Equal(t, entity.StatusCancelled, order.Status)
	})

	t.Run("NotFound", func(t *testing.T) {
		store := new(MockStore)
		sink := new(MockSink)
		svc := newTestService(t, store, new(MockCatalog), sink)

		store.On("Transition", mock.Anything, "order-x", entity.StatusPaid).Return(nil, repo.ErrNotFound)

		_, err := svc.Pay(ctx, "order-x")
		assert.Equal(t, errorbank.KindNotFound, kindOf(t, err))
	})

	t.Run("AlreadyTerminal", func(t *testing.T) {
		store := new(MockStore)
		sink := new(MockSink)
		svc := newTestService(t, store, new(MockCatalog), sink)

		store.On("Transition", mock.Anything, "order-1", entity.StatusCancelled).Return(nil, repo.ErrInvalidTransition)

		_, err := svc.Cancel(ctx, "order-1")
		assert.Equal(t, errorbank.KindConflict, kindOf(t, err))
		sink.AssertNotCalled(t, "Publish")
	})
}

func TestService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		store := new(MockStore)
		svc := newTestService(t, store, new(MockCatalog), new(MockSink))

		expected := &entity.Order{ID: "order-1", Status: entity.StatusPending}
		store.On("GetByID", mock.Anything, "order-1").Return(expected, nil)

		order, err := svc.Get(ctx, "order-1")
		require.NoError(t, err)
		assert.Equal(t, expected, order)
	})

	t.Run("NotFound", func(t *testing.T) {
		store := new(MockStore)
		svc := newTestService(t, store, new(MockCatalog), new(MockSink))

		store.On("GetByID", mock.Anything, "order-x").Return(nil, repo.ErrNotFound)

		_, err := svc.Get(ctx, "order-x")
		assert.Equal(t, errorbank.KindNotFound, kindOf(t, err))
	})
}

func TestService_ListHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("UnknownStatus", func(t *testing.T) {
		svc := newTestService(t, new(MockStore), new(MockCatalog), new(MockSink))
		_, _, err := svc.ListHistory(ctx, HistoryQuery{Status: "SHIPPED"})
		assert.Equal(t, errorbank.KindBadRequest, kindOf(t, err))
	})

	t.Run("InvertedRange", func(t *testing.T) {
		svc := newTestService(t, new(MockStore), new(MockCatalog), new(MockSink))
		from := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
		to := from.Add(-time.Hour)
		_, _, err := svc.ListHistory(ctx, HistoryQuery{From: &from, To: &to})
		assert.Equal(t, errorbank.KindBadRequest, kindOf(t, err))
	})

	t.Run("SearchByInvoiceCode", func(t *testing.T) {
		store := new(MockStore)
		svc := newTestService(t, store, new(MockCatalog), new(MockSink))

		store.On("ListHistory", mock.Anything, mock.MatchedBy(func(f repo.HistoryFilter) bool {
			return f.Seq != nil && *f.Seq == 7 && f.Day != nil && f.Day.Day() == 14
		})).Return([]*entity.Order{}, 0, nil)

		_, _, err := svc.ListHistory(ctx, HistoryQuery{Search: "INV-20260314-0007"})
		require.NoError(t, err)
		store.AssertExpectations(t)
	})

	t.Run("SearchByTicketCode", func(t *testing.T) {
		store := new(MockStore)
		svc := newTestService(t, store, new(MockCatalog), new(MockSink))

		store.On("ListHistory", mock.Anything, mock.MatchedBy(func(f repo.HistoryFilter) bool {
			return f.Seq != nil && *f.Seq == 12 && f.Day == nil
		})).Return([]*entity.Order{}, 0, nil)

		_, _, err := svc.ListHistory(ctx, HistoryQuery{Search: "#012"})
		require.NoError(t, err)
	})

	t.Run("SearchGarbage", func(t *testing.T) {
		svc := newTestService(t, new(MockStore), new(MockCatalog), new(MockSink))
		_, _, err := svc.ListHistory(ctx, HistoryQuery{Search: "whatever"})
		assert.Equal(t, errorbank.KindBadRequest, kindOf(t, err))
	})
}

func TestService_EventRouting(t *testing.T) {
	ctx := context.Background()

	newBusService := func(t *testing.T, store *MockStore, catalog *MockCatalog, sink *MockSink, bus *MockBus) *Service {
		t.Helper()
		cfg := testConfig()
		cfg.Messaging.Enabled = true
		cfg.Messaging.Kafka.Topic = "orders.events"
		svc, err := NewService(store, catalog, sink, bus, nil, cfg, zap.NewNop())
		require.NoError(t, err)
		return svc
	}

	t.Run("BusCarriesEventsWhenEnabled", func(t *testing.T) {
		store := new(MockStore)
		catalog := new(MockCatalog)
		sink := new(MockSink)
		bus := new(MockBus)
		svc := newBusService(t, store, catalog, sink, bus)

		catalog.On("GetByID", mock.Anything, "prod-soap").Return(soap(), nil)
		store.On("Create", mock.Anything, mock.Anything).Return(nil)
		bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		_, err := svc.Create(ctx, []CartLine{{ProductID: "prod-soap", Quantity: 1}})
		require.NoError(t, err)

		// The consume loop feeds the local hub; a direct publish here would
		// double-deliver to our own subscribers.
		bus.AssertNumberOfCalls(t, "Publish", 1)
		sink.AssertNotCalled(t, "Publish", mock.Anything)
	})

	t.Run("FallsBackToLocalHubWhenBusIsDown", func(t *testing.T) {
		store := new(MockStore)
		catalog := new(MockCatalog)
		sink := new(MockSink)
		bus := new(MockBus)
		svc := newBusService(t, store, catalog, sink, bus)

		catalog.On("GetByID", mock.Anything, "prod-soap").Return(soap(), nil)
		store.On("Create", mock.Anything, mock.Anything).Return(nil)
		bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker unreachable"))
		sink.On("Publish", mock.Anything).Return()

		_, err := svc.Create(ctx, []CartLine{{ProductID: "prod-soap", Quantity: 1}})
		require.NoError(t, err)

		sink.AssertCalled(t, "Publish", mock.MatchedBy(func(evt notifier.OrderEvent) bool {
			return evt.Type == notifier.EventCreated
		}))
	})

	t.Run("DisabledBusPublishesStraightToHub", func(t *testing.T) {
		store := new(MockStore)
		catalog := new(MockCatalog)
		sink := new(MockSink)
		svc := newTestService(t, store, catalog, sink)

		catalog.On("GetByID", mock.Anything, "prod-soap").Return(soap(), nil)
		store.On("Create", mock.Anything, mock.Anything).Return(nil)
		sink.On("Publish", mock.Anything).Return()

		_, err := svc.Create(ctx, []CartLine{{ProductID: "prod-soap", Quantity: 1}})
		require.NoError(t, err)
		sink.AssertNumberOfCalls(t, "Publish", 1)
	})
}

// --- In-memory fakes shared by the race tests below ---

type memoryStore struct {
	mu     sync.Mutex
	last   map[string]int
	orders map[string]*entity.Order
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		last:   make(map[string]int),
		orders: make(map[string]*entity.Order),
	}
}

func (s *memoryStore) Create(_ context.Context, order *entity.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	day := order.Day.Format("2006-01-02")
	s.last[day]++
	order.Seq = s.last[day]
	clone := *order
	s.orders[order.ID] = &clone
	return nil
}

func (s *memoryStore) GetByID(_ context.Context, id string) (*entity.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	clone := *order
	return &clone, nil
}

func (s *memoryStore) Transition(_ context.Context, id string, to entity.OrderStatus) (*entity.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	if order.Status != entity.StatusPending {
		return nil, repo.ErrInvalidTransition
	}
	order.Status = to
	clone := *order
	return &clone, nil
}

func (s *memoryStore) ListPending(context.Context) ([]*entity.Order, error) { return nil, nil }

func (s *memoryStore) ListPaid(context.Context, int, int) ([]*entity.Order, int, error) {
	return nil, 0, nil
}

func (s *memoryStore) ListHistory(context.Context, repo.HistoryFilter) ([]*entity.Order, int, error) {
	return nil, 0, nil
}

type staticCatalog struct{}

func (staticCatalog) GetByID(_ context.Context, id string) (*entity.Product, error) {
	p := soap()
	p.ID = id
	return p, nil
}

type collectingSink struct {
	mu     sync.Mutex
	events []notifier.OrderEvent
}

func (s *collectingSink) Publish(evt notifier.OrderEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
}

func TestService_ConcurrentCreatesAllocateDistinctSequences(t *testing.T) {
	store := newMemoryStore()
	svc, err := NewService(store, staticCatalog{}, &collectingSink{}, nil, nil, testConfig(), zap.NewNop())
	require.NoError(t, err)

	const cashiers = 16
	seqs := make(chan int, cashiers)
	var wg sync.WaitGroup
	for i := 0; i < cashiers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			order, err := svc.Create(context.Background(), []CartLine{{ProductID: "prod-soap", Quantity: 1}})
			if assert.NoError(t, err) {
				seqs <- order.Seq
			}
		}()
	}
	wg.Wait()
	close(seqs)

	seen := make(map[int]bool)
	for seq := range seqs {
		assert.False(t, seen[seq], "sequence %d handed out twice", seq)
		seen[seq] = true
	}
	assert.Len(t, seen, cashiers)
}

func TestService_RacingPayAndCancelHasOneWinner(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	sink := &collectingSink{}
	svc, err := NewService(store, staticCatalog{}, sink, nil, nil, testConfig(), zap.NewNop())
	require.NoError(t, err)

	order, err := svc.Create(ctx, []CartLine{{ProductID: "prod-soap", Quantity: 1}})
	require.NoError(t, err)

	results := make(chan error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := svc.Pay(ctx, order.ID)
		results <- err
	}()
	go func() {
		defer wg.Done()
		_, err := svc.Cancel(ctx, order.ID)
		results <- err
	}()
	wg.Wait()
	close(results)

	var wins, losses int
	for err := range results {
		if err == nil {
			wins++
			continue
		}
		assert.Equal(t, errorbank.KindConflict, kindOf(t, err))
		losses++
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, losses)

	final, err := svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, final.Status.Terminal())
}
