package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"decor-admin/internal/domain"
	"decor-admin/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrEmptyOrder      = errors.New("order must contain at least one item")
	ErrInvalidQuantity = errors.New("item quantity must be greater than zero")
)

// TransitionCode classifies a rejected transition
type TransitionCode string

const (
	CodeIllegalTransition TransitionCode = "illegal_transition"
	CodeInsufficientStock TransitionCode = "insufficient_stock"
	CodeUnresolvedItems   TransitionCode = "unresolved_items"
)

// TransitionResult is the outcome of TransitionOrder. Rejections are reported
// here, never as errors.
type TransitionResult struct {
	Success      bool                 `json:"success"`
	Code         TransitionCode       `json:"code,omitempty"`
	Error        string               `json:"error,omitempty"`
	Status       domain.OrderStatus   `json:"status,omitempty"`
	StockIssues  []domain.StockIssue  `json:"stock_issues,omitempty"`
	SkippedItems []domain.SkippedItem `json:"skipped_items,omitempty"`
}

func rejected(code TransitionCode, format string, args ...interface{}) *TransitionResult {
	return &TransitionResult{
		Success: false,
		Code:    code,
		Error:   fmt.Sprintf(format, args...),
	}
}

// CreateOrderItemInput is one requested line of a new order
type CreateOrderItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreateOrderInput carries checkout data for a new order
type CreateOrderInput struct {
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	ShippingAddress string
	City            string
	DeliveryFee     decimal.Decimal
	Notes           string
	Items           []CreateOrderItemInput
}

// OrderService defines the interface for order business logic
type OrderService interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListOrders(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) error
	CheckStock(ctx context.Context, id uuid.UUID) (*domain.StockValidation, error)
	TransitionOrder(ctx context.Context, id uuid.UUID, newStatus, currentStatus domain.OrderStatus) (*TransitionResult, error)
	AllowedNextStatuses(status domain.OrderStatus) []domain.OrderStatus
}

type orderService struct {
	repos  repository.Repositories
	tx     repository.Transactor
	policy domain.UnresolvedItemPolicy
	logger *zap.Logger
}

// NewOrderService creates a new instance of OrderService. repos serves reads
// outside a transaction; every write goes through tx.
func NewOrderService(
	repos repository.Repositories,
	tx repository.Transactor,
	policy domain.UnresolvedItemPolicy,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		repos:  repos,
		tx:     tx,
		policy: policy,
		logger: logger,
	}
}

// CreateOrder snapshots each referenced product and stores the order as pending
func (s *orderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error) {
	if len(input.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:              uuid.New(),
		CustomerName:    input.CustomerName,
		CustomerEmail:   input.CustomerEmail,
		CustomerPhone:   input.CustomerPhone,
		ShippingAddress: input.ShippingAddress,
		City:            input.City,
		DeliveryFee:     input.DeliveryFee,
		Status:          domain.OrderStatusPending,
		PaymentMethod:   domain.PaymentMethodCOD,
		PaymentStatus:   domain.PaymentStatusPending,
		Notes:           input.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		for _, line := range input.Items {
			if line.Quantity <= 0 {
				return ErrInvalidQuantity
			}

			product, err := repos.Products.FindByID(ctx, line.ProductID)
			if err != nil {
				return err
			}

			order.Items = append(order.Items, domain.OrderItem{
				ID:              uuid.New(),
				OrderID:         order.ID,
				ProductID:       product.ID,
				Title:           product.Title,
				Price:           product.Price,
				Quantity:        line.Quantity,
				ImageURL:        product.ImageURL,
				ProductSnapshot: product.Snapshot(),
			})
		}

		order.ComputeTotals()
		return repos.Orders.Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.Int("items", len(order.Items)),
		zap.String("total_amount", order.TotalAmount.String()),
	)

	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.repos.Orders.FindByID(ctx, id)
}

// ListOrders returns orders matching filter, newest first
func (s *orderService) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, error) {
	return s.repos.Orders.List(ctx, filter)
}

func (s *orderService) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	if err := s.repos.Orders.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Order deleted", zap.String("order_id", id.String()))
	return nil
}

// CheckStock previews the validation run on the stock-sensitive edge
func (s *orderService) CheckStock(ctx context.Context, id uuid.UUID) (*domain.StockValidation, error) {
	order, err := s.repos.Orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ValidateStock(ctx, s.repos.Products.FindByID, order, s.policy)
}

func (s *orderService) AllowedNextStatuses(status domain.OrderStatus) []domain.OrderStatus {
	return domain.AllowedNextStatuses(status)
}

// lockProducts row-locks every product the order references in ascending id
// order so concurrent transitions over overlapping products cannot deadlock.
// The returned lookup serves the locked rows.
func lockProducts(ctx context.Context, products repository.ProductRepository, order *domain.Order) (ProductLookup, error) {
	ids := make([]uuid.UUID, 0, len(order.Items))
	seen := make(map[uuid.UUID]bool, len(order.Items))
	for _, item := range order.Items {
		if item.ProductID == uuid.Nil || seen[item.ProductID] {
			continue
		}
		seen[item.ProductID] = true
		ids = append(ids, item.ProductID)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})

	locked := make(map[uuid.UUID]*domain.Product, len(ids))
	for _, id := range ids {
		product, err := products.FindByIDForUpdate(ctx, id)
		if errors.Is(err, repository.ErrProductNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		locked[id] = product
	}

	return func(_ context.Context, id uuid.UUID) (*domain.Product, error) {
		product, ok := locked[id]
		if !ok {
			return nil, repository.ErrProductNotFound
		}
		return product, nil
	}, nil
}

// TransitionOrder moves an order from currentStatus to newStatus. The order
// row is locked for the duration, and the pending to processing edge
// validates and deducts stock in the same transaction as the status write.
func (s *orderService) TransitionOrder(ctx context.Context, id uuid.UUID, newStatus, currentStatus domain.OrderStatus) (*TransitionResult, error) {
	log := s.logger.With(
		zap.String("order_id", id.String()),
		zap.String("from", string(currentStatus)),
		zap.String("to", string(newStatus)),
	)

	if !currentStatus.Valid() {
		return rejected(CodeIllegalTransition, "unknown order status %q", currentStatus), nil
	}
	if !newStatus.Valid() {
		return rejected(CodeIllegalTransition, "unknown order status %q", newStatus), nil
	}
	if !domain.CanTransition(currentStatus, newStatus) {
		log.Warn("Rejected illegal order transition")
		return rejected(CodeIllegalTransition, "cannot change order status from %s to %s", currentStatus, newStatus), nil
	}

	var result *TransitionResult

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		order, err := repos.Orders.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if order.Status != currentStatus {
			result = rejected(CodeIllegalTransition,
				"order is %s, not %s", order.Status, currentStatus)
			return nil
		}

		var skipped []domain.SkippedItem

		if domain.IsStockSensitive(currentStatus, newStatus) {
			lookup, err := lockProducts(ctx, repos.Products, order)
			if err != nil {
				return err
			}

			validation, err := ValidateStock(ctx, lookup, order, s.policy)
			if err != nil {
				return err
			}
			if !validation.Valid {
				result = rejected(CodeInsufficientStock, "insufficient stock for %d item(s)", len(validation.Shortfalls))
				result.StockIssues = validation.Shortfalls
				return nil
			}
			if validation.Resolved == 0 && len(validation.Skipped) > 0 {
				result = rejected(CodeUnresolvedItems, "none of the order's products could be found")
				result.SkippedItems = validation.Skipped
				return nil
			}

			deduction, err := DeductStock(ctx, repos.Products, order, log)
			if err != nil {
				return err
			}
			skipped = deduction.Skipped
		}

		if err := repos.Orders.UpdateStatus(ctx, order.ID, currentStatus, newStatus); err != nil {
			return err
		}

		result = &TransitionResult{
			Success:      true,
			Status:       newStatus,
			SkippedItems: skipped,
		}
		return nil
	})

	switch {
	case errors.Is(err, repository.ErrOrderStatusConflict):
		log.Warn("Order status changed during transition")
		return rejected(CodeIllegalTransition, "order status changed concurrently"), nil
	case errors.Is(err, repository.ErrInsufficientStock):
		// Only reachable if a product row escaped the lock; the rollback left
		// stock as it was, so a fresh read names the shortfalls.
		log.Warn("Stock fell below the validated quantity during deduction", zap.Error(err))
		rejection := rejected(CodeInsufficientStock, "insufficient stock")
		if validation, verr := s.CheckStock(ctx, id); verr == nil && len(validation.Shortfalls) > 0 {
			rejection.StockIssues = validation.Shortfalls
		} else if verr != nil {
			log.Warn("Failed to re-check stock after rejected deduction", zap.Error(verr))
		}
		return rejection, nil
	case err != nil:
		return nil, err
	}

	if result.Success {
		log.Info("Order status changed", zap.Int("skipped_items", len(result.SkippedItems)))
	} else {
		log.Warn("Order transition rejected", zap.String("code", string(result.Code)))
	}

	return result, nil
}
