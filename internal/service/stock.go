package service

import (
	"context"
	"errors"
	"fmt"

	"decor-admin/internal/domain"
	"decor-admin/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProductLookup resolves a product at call time. It returns
// repository.ErrProductNotFound when the reference is stale.
type ProductLookup func(ctx context.Context, id uuid.UUID) (*domain.Product, error)

// StockDecrementer is the write side used by DeductStock
type StockDecrementer interface {
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (int, error)
}

func itemTitle(item domain.OrderItem, product *domain.Product) string {
	switch {
	case item.Title != "":
		return item.Title
	case item.ProductSnapshot != nil && item.ProductSnapshot.Title != "":
		return item.ProductSnapshot.Title
	case product != nil:
		return product.Title
	default:
		return item.ProductID.String()
	}
}

// ValidateStock checks every item of order against current stock without
// mutating anything. Items that reference the same product draw from the same
// pool, so Available reflects what is left after the earlier lines.
// An item without a product id is unresolved and follows policy like a
// deleted product.
func ValidateStock(ctx context.Context, lookup ProductLookup, order *domain.Order, policy domain.UnresolvedItemPolicy) (*domain.StockValidation, error) {
	result := &domain.StockValidation{
		Shortfalls: []domain.StockIssue{},
	}
	claimed := make(map[uuid.UUID]int)

	for _, item := range order.Items {
		var product *domain.Product
		if item.ProductID != uuid.Nil {
			p, err := lookup(ctx, item.ProductID)
			if err != nil && !errors.Is(err, repository.ErrProductNotFound) {
				return nil, fmt.Errorf("failed to resolve product %s: %w", item.ProductID, err)
			}
			product = p
		}

		if product == nil {
			if policy == domain.UnresolvedItemSkip {
				result.Skipped = append(result.Skipped, domain.SkippedItem{
					ProductID: item.ProductID,
					Title:     itemTitle(item, nil),
					Quantity:  item.Quantity,
				})
				continue
			}
			result.Shortfalls = append(result.Shortfalls, domain.StockIssue{
				ProductID: item.ProductID,
				Title:     itemTitle(item, nil),
				Requested: item.Quantity,
				Available: 0,
			})
			continue
		}

		result.Resolved++
		available := product.Stock - claimed[product.ID]
		if available < item.Quantity {
			result.Shortfalls = append(result.Shortfalls, domain.StockIssue{
				ProductID: product.ID,
				Title:     itemTitle(item, product),
				Requested: item.Quantity,
				Available: available,
			})
			continue
		}
		claimed[product.ID] += item.Quantity
	}

	result.Valid = len(result.Shortfalls) == 0
	return result, nil
}

// DeductStock decrements stock for every item of order. Items whose product
// no longer exists are skipped. A decrement that would drive stock negative
// fails with repository.ErrInsufficientStock; callers run this inside a
// transaction so earlier decrements are rolled back with it.
func DeductStock(ctx context.Context, products StockDecrementer, order *domain.Order, logger *zap.Logger) (*domain.StockDeduction, error) {
	result := &domain.StockDeduction{
		Deducted: []domain.DeductedItem{},
	}

	for _, item := range order.Items {
		skip := func() {
			logger.Warn("Skipping stock deduction for unresolved product",
				zap.String("order_id", order.ID.String()),
				zap.String("product_id", item.ProductID.String()),
				zap.Int("quantity", item.Quantity),
			)
			result.Skipped = append(result.Skipped, domain.SkippedItem{
				ProductID: item.ProductID,
				Title:     itemTitle(item, nil),
				Quantity:  item.Quantity,
			})
		}

		if item.ProductID == uuid.Nil {
			skip()
			continue
		}

		newStock, err := products.DecrementStock(ctx, item.ProductID, item.Quantity)
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			skip()
			continue
		case err != nil:
			return nil, fmt.Errorf("failed to deduct stock for product %s: %w", item.ProductID, err)
		}

		result.Deducted = append(result.Deducted, domain.DeductedItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			NewStock:  newStock,
		})
	}

	return result, nil
}
