package seeder

import (
	"context"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/inipunyacita/merthanaya-pos-sub001/internal/database"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/entity"
)

// Module exposes the seeder to Fx.
var Module = fx.Provide(New)

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	db     *bun.DB
	logger *zap.Logger
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, logger *zap.Logger) *Seeder {
	return &Seeder{db: conns.Writer, logger: logger}
}

func barcode(code string) *string {
	return &code
}

// Products seeds a starter catalog if it is missing. IDs are fixed so the
// seed stays idempotent across reruns.
func (s *Seeder) Products(ctx context.Context) error {
	now := time.Now().UTC()
	samples := []entity.Product{
		{
			ID:       "5f0c4ab2-5ac9-4891-80e7-04b1be9a1519",
			Name:     "Beras Premium",
			Category: "staples",
			Price:    1500000,
			Stock:    50,
			Unit:     entity.UnitWeight,
		},
		{
			ID:       "2d7bc5a1-77da-46a9-9a55-6b1c23f0f1a3",
			Name:     "Minyak Goreng 1L",
			Category: "staples",
			Price:    1800000,
			Stock:    40,
			Unit:     entity.UnitItem,
			Barcode:  barcode("8991002100015"),
		},
		{
			ID:       "9a3d61de-6a4f-4f85-9f3a-1b9f2d2c7e60",
			Name:     "Sabun Mandi",
			Category: "toiletries",
			Price:    450000,
			Stock:    120,
			Unit:     entity.UnitItem,
			Barcode:  barcode("8991002100022"),
		},
		{
			ID:       "c1f9f3f6-2f43-4f43-94b6-3a21f0f6ab2e",
			Name:     "Gula Pasir",
			Category: "staples",
			Price:    1400000,
			Stock:    35,
			Unit:     entity.UnitWeight,
		},
	}

	for _, sample := range samples {
		product := sample
		product.Active = true
		product.CreatedAt = now
		product.UpdatedAt = now
		_, err := s.db.NewInsert().Model(&product).
			On("CONFLICT (id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
	}

	if s.logger != nil {
		s.logger.Info("seeded products", zap.Int("count", len(samples)))
	}
	return nil
}
