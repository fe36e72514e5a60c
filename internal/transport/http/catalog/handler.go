package catalog

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/inipunyacita/merthanaya-pos-sub001/internal/auth"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/config"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/dto"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/entity"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/presentation/http/response"
	repo "github.com/inipunyacita/merthanaya-pos-sub001/internal/repository/catalog"
	service "github.com/inipunyacita/merthanaya-pos-sub001/internal/service/catalog"
	"github.com/inipunyacita/merthanaya-pos-sub001/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/inipunyacita/merthanaya-pos-sub001/transport/http/catalog")

// Handler exposes catalog endpoints over HTTP. Reads are open to any
// authenticated session; mutations are admin only.
type Handler struct {
	svc      *service.Service
	pageSize int
	maxPage  int
}

// NewHandler constructs a catalog Handler.
func NewHandler(svc *service.Service, cfg config.Config) *Handler {
	return &Handler{
		svc:      svc,
		pageSize: cfg.App.PageSize,
		maxPage:  cfg.App.MaxPageSize,
	}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/products")
	g.GET("", h.list)
	g.GET("/barcode/:code", h.getByBarcode)
	g.GET("/:id", h.getByID)
	g.POST("", h.create, auth.RequireAdmin)
	g.PUT("/:id", h.update, auth.RequireAdmin)
	g.DELETE("/:id", h.remove, auth.RequireAdmin)
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var payload dto.ProductRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "products.create", trace.WithAttributes(attribute.String("product.name", payload.Name)))
	defer span.End()

	product, err := h.svc.Create(ctx, toInput(payload))
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(toDTO(product)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "products.getByID", trace.WithAttributes(attribute.String("product.id", c.Param("id"))))
	defer span.End()

	product, err := h.svc.Get(ctx, c.Param("id"))
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTO(product)).Build()
}

func (h *Handler) getByBarcode(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "products.getByBarcode")
	defer span.End()

	product, err := h.svc.GetByBarcode(ctx, c.Param("code"))
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTO(product)).Build()
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	filter := repo.ListFilter{
		Category: c.QueryParam("category"),
		Search:   c.QueryParam("search"),
	}
	filter.Page, filter.PageSize = pagination(c, h.pageSize, h.maxPage)
	if raw := c.QueryParam("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return b.WithError(errorbank.BadRequest("invalid active filter", errorbank.WithCause(err))).Build()
		}
		filter.Active = &active
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "products.list", trace.WithAttributes(attribute.Int("page", filter.Page)))
	defer span.End()

	products, count, err := h.svc.List(ctx, filter)
	if err != nil {
		return b.WithError(err).Build()
	}

	items := make([]dto.ProductResponse, 0, len(products))
	for _, product := range products {
		items = append(items, toDTO(product))
	}

	return b.WithData(items).
		WithMeta("page", filter.Page).
		WithMeta("page_size", filter.PageSize).
		WithMeta("total", count).
		Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)

	var payload dto.ProductRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "products.update", trace.WithAttributes(attribute.String("product.id", c.Param("id"))))
	defer span.End()

	product, err := h.svc.Update(ctx, c.Param("id"), toInput(payload))
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTO(product)).Build()
}

func (h *Handler) remove(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "products.remove", trace.WithAttributes(attribute.String("product.id", c.Param("id"))))
	defer span.End()

	if err := h.svc.SoftDelete(ctx, c.Param("id")); err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusNoContent).Build()
}

func pagination(c echo.Context, def, max int) (page, pageSize int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(c.QueryParam("page_size"))
	if pageSize < 1 {
		pageSize = def
	}
	if pageSize > max {
		pageSize = max
	}
	return page, pageSize
}

func toInput(payload dto.ProductRequest) service.Input {
	return service.Input{
		Name:     payload.Name,
		Category: payload.Category,
		Price:    payload.Price,
		Stock:    payload.Stock,
		Unit:     payload.Unit,
		Barcode:  payload.Barcode,
	}
}

func toDTO(product *entity.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:        product.ID,
		Name:      product.Name,
		Category:  product.Category,
		Price:     product.Price,
		Stock:     product.Stock,
		Unit:      string(product.Unit),
		Barcode:   product.Barcode,
		Active:    product.Active,
		CreatedAt: product.CreatedAt,
		UpdatedAt: product.UpdatedAt,
	}
}
