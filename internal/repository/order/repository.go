package order

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/inipunyacita/merthanaya-pos-sub001/internal/database"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/entity"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/repository/inventory"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/repository/sequence"
)

var repoTracer = otel.Tracer("github.com/inipunyacita/merthanaya-pos-sub001/repository/order")

var (
	// ErrNotFound is returned when an order is missing.
	ErrNotFound = errors.New("order not found")
	// ErrInvalidTransition is returned when a pay/cancel targets an order
	// that is no longer PENDING, including the loser of a concurrent race.
	ErrInvalidTransition = errors.New("order is not pending")
	// ErrProductUnavailable is returned when a stock debit is rejected
	// because a referenced product vanished or was deactivated mid-flight.
	ErrProductUnavailable = errors.New("product unavailable")
)

// IsTransient reports whether a failed transaction is worth retrying: the
// whole unit of work rolled back on contention or a dropped connection, so a
// fresh attempt may succeed. Anything else is permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		switch pgErr.Field('C') {
		case "40001", "40P01", "55P03":
			// serialization_failure, deadlock_detected, lock_not_available
			return true
		}
	}
	return false
}

// HistoryFilter narrows the order history listing. Day and Seq are set when a
// text search resolved to a ticket or invoice code.
type HistoryFilter struct {
	Status   *entity.OrderStatus
	From     *time.Time
	To       *time.Time
	Day      *time.Time
	Seq      *int
	Page     int
	PageSize int
}

// Repository is the persistence half of the order ledger. Creation and the
// two status transitions each run as one transaction; sequence allocation and
// stock deltas join the same unit of work so partial application can never be
// observed.
type Repository struct {
	writer   *bun.DB
	reader   *bun.DB
	seq      *sequence.Allocator
	adjuster *inventory.Adjuster
}

// NewRepository wires the ledger repository.
func NewRepository(conns *database.Connections, seq *sequence.Allocator, adjuster *inventory.Adjuster) *Repository {
	return &Repository{
		writer:   conns.Writer,
		reader:   conns.Reader,
		seq:      seq,
		adjuster: adjuster,
	}
}

// Create persists order and its items in a single transaction: the day's
// sequence number is allocated, order and items inserted, and every line's
// stock debited. Any rejected debit aborts the whole creation; the sequence
// increment rolls back with it.
func (r *Repository) Create(ctx context.Context, order *entity.Order) error {
	if order == nil || len(order.Items) == 0 {
		return errors.New("order requires at least one item")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Create", trace.WithAttributes(
		attribute.String("order.id", order.ID),
		attribute.Int("order.items", len(order.Items)),
	))
	defer span.End()

	err := r.writer.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		seq, err := r.seq.Next(ctx, tx, order.Day)
		if err != nil {
			return err
		}
		order.Seq = seq

		if _, err := tx.NewInsert().Model(order).Exec(ctx); err != nil {
			return err
		}

		for _, item := range order.Items {
			item.OrderID = order.ID
		}
		if _, err := tx.NewInsert().Model(&order.Items).Exec(ctx); err != nil {
			return err
		}

		for _, item := range order.Items {
			_, err := r.adjuster.ApplyDeltaTx(ctx, tx, item.ProductID, -item.Quantity, entity.ReasonSale, nil)
			if errors.Is(err, inventory.ErrNotFound) {
				return ErrProductUnavailable
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, ErrProductUnavailable) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
	}
	return err
}

// GetByID fetches an order with its items.
func (r *Repository) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetByID", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order := new(entity.Order)
	err := r.reader.NewSelect().
		Model(order).
		Relation("Items").
		Where("o.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}

// Transition moves a PENDING order into a terminal state with a conditional
// update; zero affected rows means the order was already terminal (or the
// caller lost a concurrent race) and the transition is rejected. A transition
// to CANCELLED credits every line's stock back in the same transaction.
func (r *Repository) Transition(ctx context.Context, id string, to entity.OrderStatus) (*entity.Order, error) {
	if !to.Terminal() {
		return nil, errors.New("transition target must be terminal")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Transition", trace.WithAttributes(
		attribute.String("order.id", id),
		attribute.String("order.status", string(to)),
	))
	defer span.End()

	err := r.writer.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*entity.Order)(nil)).
			Set("status = ?", to).
			Set("updated_at = ?", time.Now().UTC()).
			Where("id = ?", id).
			Where("status = ?", entity.StatusPending).
			Exec(ctx)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			exists, err := tx.NewSelect().
				Model((*entity.Order)(nil)).
				Where("id = ?", id).
				Exists(ctx)
			if err != nil {
				return err
			}
			if !exists {
				return ErrNotFound
			}
			return ErrInvalidTransition
		}

		if to != entity.StatusCancelled {
			return nil
		}

		var items []*entity.OrderItem
		if err := tx.NewSelect().Model(&items).Where("order_id = ?", id).Scan(ctx); err != nil {
			return err
		}
		for _, item := range items {
			if _, err := r.adjuster.ApplyDeltaTx(ctx, tx, item.ProductID, item.Quantity, entity.ReasonCancellation, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrInvalidTransition) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "transition failed")
		}
		return nil, err
	}

	return r.GetByID(ctx, id)
}

// ListPending returns the live cashier queue, oldest ticket first.
func (r *Repository) ListPending(ctx context.Context) ([]*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.ListPending")
	defer span.End()

	var orders []*entity.Order
	err := r.reader.NewSelect().
		Model(&orders).
		Relation("Items").
		Where("o.status = ?", entity.StatusPending).
		Order("o.created_at ASC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return orders, nil
}

// ListPaid returns settled orders newest first, paginated.
func (r *Repository) ListPaid(ctx context.Context, page, pageSize int) ([]*entity.Order, int, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.ListPaid", trace.WithAttributes(
		attribute.Int("page", page),
		attribute.Int("page_size", pageSize),
	))
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	var orders []*entity.Order
	count, err := r.reader.NewSelect().
		Model(&orders).
		Relation("Items").
		Where("o.status = ?", entity.StatusPaid).
		Order("o.created_at DESC", "o.id DESC").
		Limit(pageSize).
		Offset((page-1)*pageSize).
		ScanAndCount(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, 0, err
	}
	return orders, count, nil
}

// ListHistory returns the filtered ledger newest first. The secondary id sort
// keeps pagination stable when rows share a creation timestamp.
func (r *Repository) ListHistory(ctx context.Context, filter HistoryFilter) ([]*entity.Order, int, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.ListHistory", trace.WithAttributes(
		attribute.Int("page", filter.Page),
	))
	defer span.End()

	var orders []*entity.Order
	q := r.reader.NewSelect().
		Model(&orders).
		Relation("Items")

	if filter.Status != nil {
		q = q.Where("o.status = ?", *filter.Status)
	}
	if filter.From != nil {
		q = q.Where("o.created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("o.created_at <= ?", *filter.To)
	}
	if filter.Day != nil {
		q = q.Where("o.day = ?", filter.Day.Format("2006-01-02"))
	}
	if filter.Seq != nil {
		q = q.Where("o.seq = ?", *filter.Seq)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	count, err := q.
		Order("o.created_at DESC", "o.id DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		ScanAndCount(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, 0, err
	}
	return orders, count, nil
}
