// Package sequence issues the daily ticket numbers stamped on orders.
package sequence

import (
	"context"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var allocTracer = otel.Tracer("github.com/inipunyacita/merthanaya-pos-sub001/repository/sequence")

// Allocator hands out strictly increasing ticket numbers scoped to a calendar
// day. The counter is a durable row per day, advanced with an upsert-increment
// so concurrent callers serialize on the row lock and can never observe the
// same value. Because Next runs on the caller's transaction, a rolled back
// order creation does not consume a number; committed rollbacks elsewhere may
// leave gaps, which is acceptable. Duplicates are not.
type Allocator struct{}

// NewAllocator constructs the ticket number allocator.
func NewAllocator() *Allocator {
	return &Allocator{}
}

// Next returns the next sequence number for day, starting at 1 for the first
// order of a new day. idb must be the same transaction that inserts the order.
func (a *Allocator) Next(ctx context.Context, idb bun.IDB, day time.Time) (int, error) {
	ctx, span := allocTracer.Start(ctx, "SequenceAllocator.Next", trace.WithAttributes(
		attribute.String("day", day.Format("2006-01-02")),
	))
	defer span.End()

	var next int
	err := idb.NewRaw(
		`INSERT INTO daily_sequences (day, last_value) VALUES (?, 1)
		 ON CONFLICT (day) DO UPDATE SET last_value = daily_sequences.last_value + 1
		 RETURNING last_value`,
		day.Format("2006-01-02"),
	).Scan(ctx, &next)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	span.SetAttributes(attribute.Int("sequence", next))
	return next, nil
}
