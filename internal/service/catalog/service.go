package catalog

import (
	"context"
	"encoding/json"
	"errors"
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
	repo "github.com/inipunyacita/merthanaya-pos-sub001/internal/repository/catalog"
	"github.com/inipunyacita/merthanaya-pos-sub001/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/inipunyacita/merthanaya-pos-sub001/service/catalog")

// Input is the caller-supplied product payload for create and update.
type Input struct {
	Name     string
	Category string
	Price    int64
	Stock    float64
	Unit     string
	Barcode  *string
}

// Store is the catalog persistence consumed by the service.
type Store interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetByBarcode(ctx context.Context, code string) (*entity.Product, error)
	List(ctx context.Context, filter repo.ListFilter) ([]*entity.Product, int, error)
	Update(ctx context.Context, product *entity.Product) error
	SoftDelete(ctx context.Context, id string) error
}

// Service encapsulates catalog business logic with a read-through cache on
// single-product lookups.
type Service struct {
	store    Store
	cache    cache.Store
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewService wires a new Service instance.
func NewService(store Store, cacheStore cache.Store, cfg config.Config, logger *zap.Logger) *Service {
	return &Service{
		store:    store,
		cache:    cacheStore,
		cacheTTL: cfg.Cache.DefaultTTL,
		logger:   logger,
	}
}

func validate(in Input) error {
	if in.Name == "" {
		return errorbank.BadRequest("product name is required")
	}
	if in.Price < 0 {
		return errorbank.BadRequest("price must not be negative")
	}
	switch entity.Unit(in.Unit) {
	case entity.UnitItem, entity.UnitWeight:
	default:
		return errorbank.BadRequest("unit must be item or weight")
	}
	return nil
}

// Create registers a new active product.
func (s *Service) Create(ctx context.Context, in Input) (*entity.Product, error) {
	ctx, span := serviceTracer.Start(ctx, "CatalogService.Create", trace.WithAttributes(attribute.String("product.name", in.Name)))
	defer span.End()

	if err := validate(in); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	product := &entity.Product{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Category:  in.Category,
		Price:     in.Price,
		Stock:     in.Stock,
		Unit:      entity.Unit(in.Unit),
		Barcode:   in.Barcode,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Create(ctx, product); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to create product", errorbank.WithCause(err))
	}
	return product, nil
}

// Get retrieves a product by id, consulting cache when available.
func (s *Service) Get(ctx context.Context, id string) (*entity.Product, error) {
	ctx, span := serviceTracer.Start(ctx, "CatalogService.Get", trace.WithAttributes(attribute.String("product.id", id)))
	defer span.End()

	if product, err := s.getFromCache(ctx, id); err == nil {
		return product, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("catalog cache read failed", zap.String("id", id), zap.Error(err))
	}

	product, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("product not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load product", errorbank.WithCause(err))
	}

	if err := s.storeInCache(ctx, product); err != nil {
		s.logger.Warn("catalog cache write failed", zap.String("id", id), zap.Error(err))
	}
	return product, nil
}

// GetByBarcode resolves a scanned barcode.
func (s *Service) GetByBarcode(ctx context.Context, code string) (*entity.Product, error) {
	ctx, span := serviceTracer.Start(ctx, "CatalogService.GetByBarcode")
	defer span.End()

	if code == "" {
		return nil, errorbank.BadRequest("barcode is required")
	}
	product, err := s.store.GetByBarcode(ctx, code)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("product not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load product", errorbank.WithCause(err))
	}
	return product, nil
}

// List returns a filtered catalog page plus the total match count.
func (s *Service) List(ctx context.Context, filter repo.ListFilter) ([]*entity.Product, int, error) {
	ctx, span := serviceTracer.Start(ctx, "CatalogService.List")
	defer span.End()

	products, count, err := s.store.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, 0, errorbank.Internal("failed to list products", errorbank.WithCause(err))
	}
	return products, count, nil
}

// Update edits a product's descriptive fields. Stock stays under the
// inventory adjuster's control and is not editable here.
func (s *Service) Update(ctx context.Context, id string, in Input) (*entity.Product, error) {
	ctx, span := serviceTracer.Start(ctx, "CatalogService.Update", trace.WithAttributes(attribute.String("product.id", id)))
	defer span.End()

	if err := validate(in); err != nil {
		return nil, err
	}

	product, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("product not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load product", errorbank.WithCause(err))
	}

	product.Name = in.Name
	product.Category = in.Category
	product.Price = in.Price
	product.Unit = entity.Unit(in.Unit)
	product.Barcode = in.Barcode
	product.UpdatedAt = time.Now().UTC()

	if err := s.store.Update(ctx, product); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("product not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to update product", errorbank.WithCause(err))
	}

	s.invalidate(ctx, id)
	return product, nil
}

// SoftDelete deactivates a product; historical orders keep referencing it.
func (s *Service) SoftDelete(ctx context.Context, id string) error {
	ctx, span := serviceTracer.Start(ctx, "CatalogService.SoftDelete", trace.WithAttributes(attribute.String("product.id", id)))
	defer span.End()

	if err := s.store.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("product not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to delete product", errorbank.WithCause(err))
	}

	s.invalidate(ctx, id)
	return nil
}

func (s *Service) cacheKey(id string) string {
	return "products:" + id
}

func (s *Service) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, s.cacheKey(id)); err != nil {
		s.logger.Warn("catalog cache delete failed", zap.String("id", id), zap.Error(err))
	}
}

func (s *Service) getFromCache(ctx context.Context, id string) (*entity.Product, error) {
	if s.cache == nil {
		return nil, cache.ErrCacheMiss
	}
	bytes, err := s.cache.Get(ctx, s.cacheKey(id))
	if err != nil {
		return nil, err
	}
	var product entity.Product
	if err := json.Unmarshal(bytes, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *Service) storeInCache(ctx context.Context, product *entity.Product) error {
	if s.cache == nil || product == nil {
		return nil
	}
	bytes, err := json.Marshal(product)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, s.cacheKey(product.ID), bytes, s.cacheTTL)
}
