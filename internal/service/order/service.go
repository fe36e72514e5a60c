package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/inipunyacita/merthanaya-pos-sub001/internal/cache"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/config"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/entity"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/messaging"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/notifier"
	repo "github.com/inipunyacita/merthanaya-pos-sub001/internal/repository/order"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/ticket"
	"github.com/inipunyacita/merthanaya-pos-sub001/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/inipunyacita/merthanaya-pos-sub001/service/order")

// createBackoff is the base delay between creation attempts; attempt N waits
// N times this before trying again.
const createBackoff = 25 * time.Millisecond

// CartLine is one requested line of a runner's cart.
type CartLine struct {
	ProductID string
	Quantity  float64
}

// HistoryQuery is the caller-facing history filter; Search accepts an invoice
// code, a ticket code, or a bare sequence number.
type HistoryQuery struct {
	Status   string
	From     *time.Time
	To       *time.Time
	Search   string
	Page     int
	PageSize int
}

// Store is the ledger persistence consumed by the service.
type Store interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	Transition(ctx context.Context, id string, to entity.OrderStatus) (*entity.Order, error)
	ListPending(ctx context.Context) ([]*entity.Order, error)
	ListPaid(ctx context.Context, page, pageSize int) ([]*entity.Order, int, error)
	ListHistory(ctx context.Context, filter repo.HistoryFilter) ([]*entity.Order, int, error)
}

// Catalog is the product read access used for cart validation.
type Catalog interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
}

// EventSink receives lifecycle events for the local cashier sessions.
type EventSink interface {
	Publish(evt notifier.OrderEvent)
}

// Service is the order ledger: it validates carts against the catalog,
// snapshots prices, drives the PENDING -> PAID/CANCELLED state machine, and
// emits an event for every committed change.
type Service struct {
	store     Store
	catalog   Catalog
	hub       EventSink
	publisher messaging.Client
	cache     cache.Store
	cacheTTL  time.Duration
	logger    *zap.Logger
	loc       *time.Location
	retries   int
	messaging messagingConfig
}

// messagingConfig contains messaging specific knobs we care about.
type messagingConfig struct {
	enabled bool
	topic   string
}

// NewService wires a new Service instance.
func NewService(store Store, catalog Catalog, hub EventSink, publisher messaging.Client, cacheStore cache.Store, cfg config.Config, logger *zap.Logger) (*Service, error) {
	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}

	return &Service{
		store:     store,
		catalog:   catalog,
		hub:       hub,
		publisher: publisher,
		cache:     cacheStore,
		cacheTTL:  cfg.Cache.DefaultTTL,
		logger:    logger,
		loc:       loc,
		retries:   cfg.App.CreateRetries,
		messaging: messagingConfig{
			enabled: cfg.Messaging.Enabled,
			topic:   cfg.Messaging.Kafka.Topic,
		},
	}, nil
}

// Create turns a cart into a persisted PENDING order. Every line is validated
// against the catalog and priced from its current state; the snapshot is what
// the order keeps forever. Creation commits atomically with the sequence
// allocation and stock debits, retrying a bounded number of times on
// transient contention.
func (s *Service) Create(ctx context.Context, cart []CartLine) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Create", trace.WithAttributes(attribute.Int("cart.lines", len(cart))))
	defer span.End()

	items, total, err := s.buildItems(ctx, cart)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	order := &entity.Order{
		ID:        uuid.NewString(),
		Day:       ticket.Day(now, s.loc),
		Status:    entity.StatusPending,
		Total:     total,
		CreatedAt: now,
		UpdatedAt: now,
		Items:     items,
	}

	var createErr error
	for attempt := 1; ; attempt++ {
		createErr = s.store.Create(ctx, order)
		if createErr == nil {
			break
		}
		if errors.Is(createErr, repo.ErrProductUnavailable) {
			return nil, errorbank.BadRequest("product no longer available")
		}
		if attempt >= s.retries || !repo.IsTransient(createErr) || ctx.Err() != nil {
			break
		}
		s.logger.Warn("order creation attempt failed",
			zap.Int("attempt", attempt),
			zap.Error(createErr),
		)
		select {
		case <-ctx.Done():
		case <-time.After(time.Duration(attempt) * createBackoff):
		}
	}
	if createErr != nil {
		span.RecordError(createErr)
		span.SetStatus(codes.Error, "create failed")
		return nil, errorbank.Unavailable("order creation failed", errorbank.WithCause(createErr))
	}

	if err := s.storeInCache(ctx, order); err != nil {
		s.logger.Warn("orders cache write failed", zap.String("id", order.ID), zap.Error(err))
	}

	s.emit(ctx, notifier.EventCreated, order)
	return order, nil
}

func (s *Service) buildItems(ctx context.Context, cart []CartLine) ([]*entity.OrderItem, int64, error) {
	if len(cart) == 0 {
		return nil, 0, errorbank.BadRequest("cart is empty")
	}

	items := make([]*entity.OrderItem, 0, len(cart))
	var total int64
	for _, line := range cart {
		if line.Quantity <= 0 {
			return nil, 0, errorbank.BadRequest("quantity must be positive",
				errorbank.WithDetail("product_id", line.ProductID))
		}

		product, err := s.catalog.GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, 0, errorbank.BadRequest("unknown product",
				errorbank.WithDetail("product_id", line.ProductID))
		}
		if !product.Active {
			return nil, 0, errorbank.BadRequest("product is inactive",
				errorbank.WithDetail("product_id", line.ProductID))
		}
		if product.Unit == entity.UnitItem && line.Quantity != math.Trunc(line.Quantity) {
			return nil, 0, errorbank.BadRequest("quantity must be a whole number for this product",
				errorbank.WithDetail("product_id", line.ProductID))
		}

		subtotal := int64(math.Round(line.Quantity * float64(product.Price)))
		items = append(items, &entity.OrderItem{
			ID:          uuid.NewString(),
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Quantity:    line.Quantity,
			Subtotal:    subtotal,
		})
		total += subtotal
	}
	return items, total, nil
}

// Pay confirms a PENDING order. Stock is untouched; it was debited when the
// order was created. Losing a race against a concurrent cancel surfaces as a
// conflict, never as a silent retry.
func (s *Service) Pay(ctx context.Context, id string) (*entity.Order, error) {
	return s.transition(ctx, id, entity.StatusPaid)
}

// Cancel voids a PENDING order and credits every line's stock back.
func (s *Service) Cancel(ctx context.Context, id string) (*entity.Order, error) {
	return s.transition(ctx, id, entity.StatusCancelled)
}

func (s *Service) transition(ctx context.Context, id string, to entity.OrderStatus) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Transition", trace.WithAttributes(
		attribute.String("order.id", id),
		attribute.String("order.status", string(to)),
	))
	defer span.End()

	order, err := s.store.Transition(ctx, id, to)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return nil, errorbank.NotFound("order not found")
		case errors.Is(err, repo.ErrInvalidTransition):
			return nil, errorbank.Conflict("order already paid or cancelled")
		default:
			span.RecordError(err)
			span.SetStatus(codes.Error, "transition failed")
			return nil, errorbank.Internal("failed to update order", errorbank.WithCause(err))
		}
	}

	if err := s.storeInCache(ctx, order); err != nil {
		s.logger.Warn("orders cache write failed", zap.String("id", order.ID), zap.Error(err))
	}

	s.emit(ctx, notifier.EventUpdated, order)
	return order, nil
}

// Get retrieves an order by id, consulting cache when available.
func (s *Service) Get(ctx context.Context, id string) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	if order, err := s.getFromCache(ctx, id); err == nil {
		return order, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("orders cache read failed", zap.String("id", id), zap.Error(err))
	}

	order, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}

	if err := s.storeInCache(ctx, order); err != nil {
		s.logger.Warn("orders cache write failed", zap.String("id", id), zap.Error(err))
	}

	return order, nil
}

// ListPending returns the live cashier queue.
func (s *Service) ListPending(ctx context.Context) ([]*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.ListPending")
	defer span.End()

	orders, err := s.store.ListPending(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list pending orders", errorbank.WithCause(err))
	}
	return orders, nil
}

// ListPaid returns settled orders, paginated.
func (s *Service) ListPaid(ctx context.Context, page, pageSize int) ([]*entity.Order, int, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.ListPaid")
	defer span.End()

	orders, count, err := s.store.ListPaid(ctx, page, pageSize)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, 0, errorbank.Internal("failed to list paid orders", errorbank.WithCause(err))
	}
	return orders, count, nil
}

// ListHistory returns the filtered ledger. A search term is resolved against
// the invoice and ticket code layouts before hitting the database.
func (s *Service) ListHistory(ctx context.Context, q HistoryQuery) ([]*entity.Order, int, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.ListHistory")
	defer span.End()

	filter := repo.HistoryFilter{
		From:     q.From,
		To:       q.To,
		Page:     q.Page,
		PageSize: q.PageSize,
	}

	if q.Status != "" {
		status := entity.OrderStatus(q.Status)
		switch status {
		case entity.StatusPending, entity.StatusPaid, entity.StatusCancelled:
			filter.Status = &status
		default:
			return nil, 0, errorbank.BadRequest("unknown status filter",
				errorbank.WithDetail("status", q.Status))
		}
	}
	if q.From != nil && q.To != nil && q.To.Before(*q.From) {
		return nil, 0, errorbank.BadRequest("date range is inverted")
	}

	if q.Search != "" {
		if day, seq, ok := ticket.ParseInvoiceCode(q.Search); ok {
			filter.Day = &day
			filter.Seq = &seq
		} else if seq, ok := ticket.ParseTicketCode(q.Search); ok {
			filter.Seq = &seq
		} else {
			return nil, 0, errorbank.BadRequest("search must be an invoice or ticket code",
				errorbank.WithDetail("search", q.Search))
		}
	}

	orders, count, err := s.store.ListHistory(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, 0, errorbank.Internal("failed to list order history", errorbank.WithCause(err))
	}
	return orders, count, nil
}

// emit fans the committed change out to local cashier sessions and onto the
// bus. Failures here never fail the operation; an unreachable subscriber is a
// disconnected subscriber, not a lifecycle error.
func (s *Service) emit(ctx context.Context, eventType notifier.EventType, order *entity.Order) {
	evt := notifier.OrderEvent{
		Type:       eventType,
		OrderID:    order.ID,
		Day:        order.Day.Format("2006-01-02"),
		Seq:        order.Seq,
		TicketCode: ticket.Code(order.Seq),
		Status:     order.Status,
		Total:      order.Total,
		ItemCount:  len(order.Items),
		OccurredAt: time.Now().UTC(),
	}

	// With the bus live, the local hub is fed by the consume loop like on
	// every other instance; publishing here too would double-deliver to our
	// own subscribers. Direct hub publish is the single-process fallback.
	if s.messaging.enabled && s.publisher != nil {
		payload, err := json.Marshal(evt)
		if err != nil {
			s.logger.Error("marshal order event", zap.Error(err))
		} else if err := s.publisher.Publish(ctx, []byte("order-"+order.ID), payload); err != nil {
			s.logger.Error("publish order event", zap.Error(err))
		} else {
			return
		}
	}

	if s.hub != nil {
		s.hub.Publish(evt)
	}
}

// TicketCode derives the short code for an order.
func TicketCode(o *entity.Order) string {
	return ticket.Code(o.Seq)
}

// InvoiceCode derives the invoice identifier for an order.
func InvoiceCode(o *entity.Order) string {
	return ticket.InvoiceCode(o.Day, o.Seq)
}

func (s *Service) cacheKey(id string) string {
	return "orders:" + id
}

func (s *Service) getFromCache(ctx context.Context, id string) (*entity.Order, error) {
	if s.cache == nil {
		return nil, cache.ErrCacheMiss
	}
	bytes, err := s.cache.Get(ctx, s.cacheKey(id))
	if err != nil {
		return nil, err
	}
	var order entity.Order
	if err := json.Unmarshal(bytes, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Service) storeInCache(ctx context.Context, order *entity.Order) error {
	if s.cache == nil || order == nil {
		return nil
	}
	bytes, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, s.cacheKey(order.ID), bytes, s.cacheTTL)
}
