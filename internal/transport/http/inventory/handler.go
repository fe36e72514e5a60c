package inventory

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/inipunyacita/merthanaya-pos-sub001/internal/auth"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/dto"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/entity"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/presentation/http/response"
	service "github.com/inipunyacita/merthanaya-pos-sub001/internal/service/inventory"
	"github.com/inipunyacita/merthanaya-pos-sub001/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/inipunyacita/merthanaya-pos-sub001/transport/http/inventory")

// Handler exposes back-office stock endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs an inventory Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/inventory")
	g.GET("/low-stock", h.lowStock)
	g.GET("/movements", h.movements)
	g.POST("/adjustments", h.adjust, auth.RequireAdmin)
}

func (h *Handler) adjust(c echo.Context) error {
	b := response.New(c)

	var payload dto.AdjustmentRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "inventory.adjust", trace.WithAttributes(
		attribute.String("product.id", payload.ProductID),
		attribute.Float64("delta", payload.Delta),
	))
	defer span.End()

	adj, err := h.svc.Adjust(ctx, payload.ProductID, payload.Delta, payload.Note)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.AdjustmentResponse{
		ProductID:     adj.ProductID,
		ProductName:   adj.ProductName,
		PreviousStock: adj.PreviousStock,
		NewStock:      adj.NewStock,
	}).Build()
}

func (h *Handler) lowStock(c echo.Context) error {
	b := response.New(c)

	var threshold float64
	if raw := c.QueryParam("threshold"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return b.WithError(errorbank.BadRequest("invalid threshold", errorbank.WithCause(err))).Build()
		}
		threshold = parsed
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "inventory.lowStock", trace.WithAttributes(attribute.Float64("threshold", threshold)))
	defer span.End()

	items, err := h.svc.LowStock(ctx, threshold)
	if err != nil {
		return b.WithError(err).Build()
	}

	out := make([]dto.LowStockResponse, 0, len(items))
	for _, item := range items {
		out = append(out, dto.LowStockResponse{
			Product:   toProductDTO(item.Product),
			Stock:     item.Product.Stock,
			Threshold: item.Threshold,
		})
	}
	return b.WithData(out).Build()
}

func (h *Handler) movements(c echo.Context) error {
	b := response.New(c)

	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	ctx, span := httpTracer.Start(c.Request().Context(), "inventory.movements")
	defer span.End()

	movements, err := h.svc.Movements(ctx, c.QueryParam("product_id"), limit)
	if err != nil {
		return b.WithError(err).Build()
	}

	out := make([]dto.MovementResponse, 0, len(movements))
	for _, movement := range movements {
		out = append(out, dto.MovementResponse{
			ID:        movement.ID,
			ProductID: movement.ProductID,
			Delta:     movement.Delta,
			Reason:    string(movement.Reason),
			Note:      movement.Note,
			CreatedAt: movement.CreatedAt,
		})
	}
	return b.WithData(out).Build()
}

func toProductDTO(product *entity.Product) dto.ProductResponse {
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
