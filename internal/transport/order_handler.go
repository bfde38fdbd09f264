package transport

import (
	"net/http"
	"time"

	"decor-admin/internal/domain"
	"decor-admin/internal/middleware"
	"decor-admin/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateOrderRequest represents the order creation payload
type CreateOrderRequest struct {
	CustomerName    string                   `json:"customer_name" validate:"required,max=255"`
	CustomerEmail   string                   `json:"customer_email" validate:"omitempty,email"`
	CustomerPhone   string                   `json:"customer_phone" validate:"required,max=50"`
	ShippingAddress string                   `json:"shipping_address" validate:"required"`
	City            string                   `json:"city" validate:"required,max=100"`
	DeliveryFee     decimal.Decimal          `json:"delivery_fee"`
	Notes           string                   `json:"notes"`
	Items           []CreateOrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// CreateOrderItemRequest is one line of CreateOrderRequest
type CreateOrderItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// UpdateStatusRequest carries the requested status and the status the
// caller last saw. Values are checked by the transition engine.
type UpdateStatusRequest struct {
	Status        string `json:"status" validate:"required"`
	CurrentStatus string `json:"current_status" validate:"required"`
}

// NextStatusesResponse lists the statuses reachable from Status. Terminal
// statuses only lead back to themselves, so the status control can be locked.
type NextStatusesResponse struct {
	Status   domain.OrderStatus   `json:"status"`
	Next     []domain.OrderStatus `json:"next"`
	Terminal bool                 `json:"terminal"`
}

// OrderHandler handles HTTP requests for order operations
type OrderHandler struct {
	orderService service.OrderService
	logger       *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// RegisterRoutes registers all order routes
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.ListOrders)
		r.Post("/", h.CreateOrder)
		r.Get("/{id}", h.GetOrder)
		r.Delete("/{id}", h.DeleteOrder)
		r.Get("/{id}/stock-check", h.CheckStock)
		r.Patch("/{id}/status", h.UpdateStatus)
	})
	r.Get("/order-statuses/{status}/next", h.NextStatuses)
}

// transitionHTTPStatus maps a rejected transition onto a response status
func transitionHTTPStatus(result *service.TransitionResult) int {
	switch {
	case result.Success:
		return http.StatusOK
	case result.Code == service.CodeIllegalTransition:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusConflict
	}
}

// UpdateStatus handles an order status change
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Status update validation failed", zap.Error(err))
		middleware.HandleDecodeError(w, err)
		return
	}

	result, err := h.orderService.TransitionOrder(r.Context(), id,
		domain.OrderStatus(req.Status), domain.OrderStatus(req.CurrentStatus))
	if err != nil {
		respondError(w, h.logger, err, "failed to update order status")
		return
	}

	middleware.RespondWithJSON(w, transitionHTTPStatus(result), result)
}

// parseOrderFilter reads listing filters from the query string
func parseOrderFilter(r *http.Request) (domain.OrderFilter, string) {
	var filter domain.OrderFilter
	q := r.URL.Query()

	if v := q.Get("status"); v != "" {
		status, err := domain.ParseOrderStatus(v)
		if err != nil {
			return filter, "invalid status"
		}
		filter.Status = &status
	}
	if v := q.Get("from"); v != "" {
		from, err := parseTime(v, false)
		if err != nil {
			return filter, "invalid from date"
		}
		filter.From = &from
	}
	if v := q.Get("to"); v != "" {
		to, err := parseTime(v, true)
		if err != nil {
			return filter, "invalid to date"
		}
		filter.To = &to
	}
	if v := q.Get("min_amount"); v != "" {
		amount, err := decimal.NewFromString(v)
		if err != nil {
			return filter, "invalid min_amount"
		}
		filter.MinAmount = &amount
	}
	if v := q.Get("max_amount"); v != "" {
		amount, err := decimal.NewFromString(v)
		if err != nil {
			return filter, "invalid max_amount"
		}
		filter.MaxAmount = &amount
	}
	if v := q.Get("product_id"); v != "" {
		productID, err := uuid.Parse(v)
		if err != nil {
			return filter, "invalid product_id"
		}
		filter.ProductID = &productID
	}

	return filter, ""
}

// parseTime accepts RFC 3339 timestamps or plain dates. A plain date used as
// an upper bound covers the whole day.
func parseTime(v string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

// ListOrders handles the filtered order listing
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	filter, problem := parseOrderFilter(r)
	if problem != "" {
		middleware.RespondWithError(w, http.StatusBadRequest, problem)
		return
	}

	orders, err := h.orderService.ListOrders(r.Context(), filter)
	if err != nil {
		respondError(w, h.logger, err, "failed to list orders")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, orders)
}

// CreateOrder handles order creation
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Order validation failed", zap.Error(err))
		middleware.HandleDecodeError(w, err)
		return
	}
	if req.DeliveryFee.IsNegative() {
		middleware.RespondWithValidationErrors(w, []middleware.ValidationError{
			{Field: "delivery_fee", Message: "Value must be greater than or equal to 0"},
		})
		return
	}

	input := service.CreateOrderInput{
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		ShippingAddress: req.ShippingAddress,
		City:            req.City,
		DeliveryFee:     req.DeliveryFee,
		Notes:           req.Notes,
		Items:           make([]service.CreateOrderItemInput, len(req.Items)),
	}
	for i, item := range req.Items {
		input.Items[i] = service.CreateOrderItemInput{
			ProductID: uuid.MustParse(item.ProductID),
			Quantity:  item.Quantity,
		}
	}

	order, err := h.orderService.CreateOrder(r.Context(), input)
	if err != nil {
		respondError(w, h.logger, err, "failed to create order")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, order)
}

// GetOrder handles fetching a single order
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err, "failed to get order")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// DeleteOrder handles order deletion
func (h *OrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.orderService.DeleteOrder(r.Context(), id); err != nil {
		respondError(w, h.logger, err, "failed to delete order")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CheckStock handles the read-only stock preview for an order
func (h *OrderHandler) CheckStock(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	validation, err := h.orderService.CheckStock(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err, "failed to check stock")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, validation)
}

// NextStatuses lists the statuses an order may move to from the given one
func (h *OrderHandler) NextStatuses(w http.ResponseWriter, r *http.Request) {
	status, err := domain.ParseOrderStatus(chi.URLParam(r, "status"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, NextStatusesResponse{
		Status:   status,
		Next:     h.orderService.AllowedNextStatuses(status),
		Terminal: status.Terminal(),
	})
}
