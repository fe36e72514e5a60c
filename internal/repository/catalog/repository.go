package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/inipunyacita/merthanaya-pos-sub001/internal/database"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/entity"
)

var repoTracer = otel.Tracer("github.com/inipunyacita/merthanaya-pos-sub001/repository/catalog")

// ErrNotFound is returned when a product is missing.
var ErrNotFound = errors.New("product not found")

// ListFilter narrows and pages the catalog listing.
type ListFilter struct {
	Category string
	Active   *bool
	Search   string
	Page     int
	PageSize int
}

// Repository encapsulates read/write access for catalog products. Stock is
// deliberately not writable here; all stock deltas go through the inventory
// adjuster.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// Create persists a new product.
func (r *Repository) Create(ctx context.Context, product *entity.Product) error {
	if product == nil {
		return errors.New("nil product")
	}
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.Create", trace.WithAttributes(attribute.String("product.name", product.Name)))
	defer span.End()

	_, err := r.writer.NewInsert().Model(product).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// GetByID fetches a product by primary key using the read replica when
// available.
func (r *Repository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.GetByID", trace.WithAttributes(attribute.String("product.id", id)))
	defer span.End()

	product := new(entity.Product)
	err := r.reader.NewSelect().Model(product).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return product, nil
}

// GetByBarcode resolves a product from a scanned barcode.
func (r *Repository) GetByBarcode(ctx context.Context, code string) (*entity.Product, error) {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.GetByBarcode")
	defer span.End()

	product := new(entity.Product)
	err := r.reader.NewSelect().Model(product).Where("barcode = ?", code).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return product, nil
}

// List returns a filtered catalog page plus the unpaged match count.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]*entity.Product, int, error) {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.List", trace.WithAttributes(
		attribute.Int("page", filter.Page),
		attribute.Int("page_size", filter.PageSize),
	))
	defer span.End()

	var products []*entity.Product
	q := r.reader.NewSelect().Model(&products)

	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Active != nil {
		q = q.Where("active = ?", *filter.Active)
	}
	if filter.Search != "" {
		q = q.Where("name ILIKE ?", "%"+filter.Search+"%")
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
		Order("category ASC", "name ASC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		ScanAndCount(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, 0, err
	}
	return products, count, nil
}

// Update persists an edited product. Stock is preserved as stored; edits never
// race with concurrent sale deltas.
func (r *Repository) Update(ctx context.Context, product *entity.Product) error {
	if product == nil {
		return errors.New("nil product")
	}
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.Update", trace.WithAttributes(attribute.String("product.id", product.ID)))
	defer span.End()

	res, err := r.writer.NewUpdate().
		Model(product).
		Column("name", "category", "price", "unit", "barcode", "active", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		span.SetStatus(codes.Error, "not found")
		return ErrNotFound
	}
	return nil
}

// SoftDelete deactivates a product without removing it, keeping historical
// order references intact.
func (r *Repository) SoftDelete(ctx context.Context, id string) error {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.SoftDelete", trace.WithAttributes(attribute.String("product.id", id)))
	defer span.End()

	res, err := r.writer.NewUpdate().
		Model((*entity.Product)(nil)).
		Set("active = FALSE").
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		span.SetStatus(codes.Error, "not found")
		return ErrNotFound
	}
	return nil
}
