package order

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/inipunyacita/merthanaya-pos-sub001/internal/config"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/dto"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/entity"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/notifier"
	"github.com/inipunyacita/merthanaya-pos-sub001/internal/presentation/http/response"
	service "github.com/inipunyacita/merthanaya-pos-sub001/internal/service/order"
	"github.com/inipunyacita/merthanaya-pos-sub001/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/inipunyacita/merthanaya-pos-sub001/transport/http/order")

const keepaliveInterval = 15 * time.Second

// Handler exposes the order ledger over HTTP plus the event stream consumed
// by cashier dashboards.
type Handler struct {
	svc      *service.Service
	hub      *notifier.Hub
	pageSize int
	maxPage  int
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service, hub *notifier.Hub, cfg config.Config) *Handler {
	return &Handler{
		svc:      svc,
		hub:      hub,
		pageSize: cfg.App.PageSize,
		maxPage:  cfg.App.MaxPageSize,
	}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/orders")
	g.POST("", h.create)
	g.GET("/events", h.events)
	g.GET("/pending", h.listPending)
	g.GET("/paid", h.listPaid)
	g.GET("/history", h.listHistory)
	g.GET("/:id", h.getByID)
	g.POST("/:id/pay", h.pay)
	g.POST("/:id/cancel", h.cancel)
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var payload dto.CreateOrderRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	cart := make([]service.CartLine, 0, len(payload.Items))
	for _, item := range payload.Items {
		cart = append(cart, service.CartLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.create", trace.WithAttributes(
		attribute.Int("cart.lines", len(cart)),
	))
	defer span.End()

	order, err := h.svc.Create(ctx, cart)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(toDTO(order)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.getByID", trace.WithAttributes(attribute.String("order.id", c.Param("id"))))
	defer span.End()

	order, err := h.svc.Get(ctx, c.Param("id"))
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTO(order)).Build()
}

func (h *Handler) pay(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.pay", trace.WithAttributes(attribute.String("order.id", c.Param("id"))))
	defer span.End()

	order, err := h.svc.Pay(ctx, c.Param("id"))
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTO(order)).Build()
}

func (h *Handler) cancel(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.cancel", trace.WithAttributes(attribute.String("order.id", c.Param("id"))))
	defer span.End()

	order, err := h.svc.Cancel(ctx, c.Param("id"))
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTO(order)).Build()
}

func (h *Handler) listPending(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.listPending")
	defer span.End()

	orders, err := h.svc.ListPending(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTOs(orders)).Build()
}

func (h *Handler) listPaid(c echo.Context) error {
	b := response.New(c)

	page, pageSize := pagination(c, h.pageSize, h.maxPage)

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.listPaid", trace.WithAttributes(attribute.Int("page", page)))
	defer span.End()

	orders, count, err := h.svc.ListPaid(ctx, page, pageSize)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTOs(orders)).
		WithMeta("page", page).
		WithMeta("page_size", pageSize).
		WithMeta("total", count).
		Build()
}

func (h *Handler) listHistory(c echo.Context) error {
	b := response.New(c)

	page, pageSize := pagination(c, h.pageSize, h.maxPage)
	query := service.HistoryQuery{
		Status:   c.QueryParam("status"),
		Search:   c.QueryParam("search"),
		Page:     page,
		PageSize: pageSize,
	}

	if raw := c.QueryParam("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return b.WithError(errorbank.BadRequest("invalid from date", errorbank.WithCause(err))).Build()
		}
		query.From = &from
	}
	if raw := c.QueryParam("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return b.WithError(errorbank.BadRequest("invalid to date", errorbank.WithCause(err))).Build()
		}
		query.To = &to
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.listHistory", trace.WithAttributes(attribute.Int("page", page)))
	defer span.End()

	orders, count, err := h.svc.ListHistory(ctx, query)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTOs(orders)).
		WithMeta("page", page).
		WithMeta("page_size", pageSize).
		WithMeta("total", count).
		Build()
}

// events streams order lifecycle events as server-sent events. The
// subscription ends when the client disconnects; a closed channel means the
// hub dropped this session and the client should reconnect and refresh.
func (h *Handler) events(c echo.Context) error {
	events, cancel := h.hub.Subscribe()
	defer cancel()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	ctx := c.Request().Context()
	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-events:
			if !ok {
				return nil
			}
			data, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", evt.Type, data); err != nil {
				return nil
			}
			res.Flush()
		case <-keepalive.C:
			if _, err := fmt.Fprint(res, ": keepalive\n\n"); err != nil {
				return nil
			}
			res.Flush()
		}
	}
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

func toDTO(order *entity.Order) dto.OrderResponse {
	items := make([]dto.OrderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, dto.OrderItemResponse{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			Subtotal:    item.Subtotal,
		})
	}
	return dto.OrderResponse{
		ID:          order.ID,
		Day:         order.Day.Format("2006-01-02"),
		Seq:         order.Seq,
		TicketCode:  service.TicketCode(order),
		InvoiceCode: service.InvoiceCode(order),
		Status:      string(order.Status),
		Total:       order.Total,
		Items:       items,
		CreatedAt:   order.CreatedAt,
		UpdatedAt:   order.UpdatedAt,
	}
}

func toDTOs(orders []*entity.Order) []dto.OrderResponse {
	out := make([]dto.OrderResponse, 0, len(orders))
	for _, order := range orders {
		out = append(out, toDTO(order))
	}
	return out
}
