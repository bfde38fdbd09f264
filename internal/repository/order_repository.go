package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"decor-admin/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderStatusConflict = errors.New("order status changed concurrently")
)

const orderColumns = `id, customer_name, customer_email, customer_phone, shipping_address, city,
	subtotal, delivery_fee, total_amount, status, payment_method, payment_status, notes, created_at, updated_at`

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	List(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.OrderStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByProduct(ctx context.Context, productID uuid.UUID) (int, error)
}

type orderRepository struct {
	db DBTX
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db DBTX) OrderRepository {
	return &orderRepository{db: db}
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	order := &domain.Order{}
	err := row.Scan(
		&order.ID,
		&order.CustomerName,
		&order.CustomerEmail,
		&order.CustomerPhone,
		&order.ShippingAddress,
		&order.City,
		&order.Subtotal,
		&order.DeliveryFee,
		&order.TotalAmount,
		&order.Status,
		&order.PaymentMethod,
		&order.PaymentStatus,
		&order.Notes,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	return order, err
}

// Create inserts the order and its items. Callers that need the two writes
// to be atomic run it through a Transactor.
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		order.ID,
		order.CustomerName,
		order.CustomerEmail,
		order.CustomerPhone,
		order.ShippingAddress,
		order.City,
		order.Subtotal,
		order.DeliveryFee,
		order.TotalAmount,
		order.Status,
		order.PaymentMethod,
		order.PaymentStatus,
		order.Notes,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, title, price, quantity, image_url, product_snapshot, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9)
	`

	for i := range order.Items {
		item := &order.Items[i]
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.OrderID = order.ID

		var snapshot sql.NullString
		if item.ProductSnapshot != nil {
			raw, err := json.Marshal(item.ProductSnapshot)
			if err != nil {
				return fmt.Errorf("failed to encode product snapshot: %w", err)
			}
			snapshot = sql.NullString{String: string(raw), Valid: true}
		}

		_, err := r.db.ExecContext(
			ctx,
			itemQuery,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.Title,
			item.Price,
			item.Quantity,
			item.ImageURL,
			snapshot,
			i,
		)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	return nil
}

// FindByID retrieves an order with its items
func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return r.findByID(ctx, id, false)
}

// FindByIDForUpdate retrieves an order with its items and locks the order row
// until the surrounding transaction ends
func (r *orderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return r.findByID(ctx, id, true)
}

func (r *orderRepository) findByID(ctx context.Context, id uuid.UUID, lock bool) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}

	items, err := r.loadItems(ctx, []uuid.UUID{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]
	if order.Items == nil {
		order.Items = []domain.OrderItem{}
	}

	return order, nil
}

// List returns the orders matching filter, newest first
func (r *orderRepository) List(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, error) {
	conditions := []string{}
	args := []interface{}{}

	addCondition := func(format string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(format, len(args)))
	}

	if filter.Status != nil {
		addCondition("status = $%d", *filter.Status)
	}
	if filter.From != nil {
		addCondition("created_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		addCondition("created_at <= $%d", *filter.To)
	}
	if filter.MinAmount != nil {
		addCondition("total_amount >= $%d", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		addCondition("total_amount <= $%d", *filter.MaxAmount)
	}
	if filter.ProductID != nil {
		addCondition("EXISTS (SELECT 1 FROM order_items oi WHERE oi.order_id = orders.id AND oi.product_id = $%d)", *filter.ProductID)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM orders
		%s
		ORDER BY created_at DESC
	`, orderColumns, whereClause)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	ids := []uuid.UUID{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
		ids = append(ids, order.ID)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	if len(orders) == 0 {
		return orders, nil
	}

	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, order := range orders {
		order.Items = items[order.ID]
		if order.Items == nil {
			order.Items = []domain.OrderItem{}
		}
	}

	return orders, nil
}

func (r *orderRepository) loadItems(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]domain.OrderItem, error) {
	ids := make([]string, len(orderIDs))
	for i, id := range orderIDs {
		ids[i] = id.String()
	}

	query := `
		SELECT id, order_id, product_id, title, price, quantity, image_url, product_snapshot
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, position
	`

	rows, err := r.db.QueryContext(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	result := make(map[uuid.UUID][]domain.OrderItem, len(orderIDs))
	for rows.Next() {
		var item domain.OrderItem
		var snapshot []byte
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Title,
			&item.Price,
			&item.Quantity,
			&item.ImageURL,
			&snapshot,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		if len(snapshot) > 0 {
			item.ProductSnapshot = &domain.ProductSnapshot{}
			if err := json.Unmarshal(snapshot, item.ProductSnapshot); err != nil {
				return nil, fmt.Errorf("failed to decode product snapshot: %w", err)
			}
		}
		result[item.OrderID] = append(result[item.OrderID], item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return result, nil
}

// UpdateStatus moves the order from one status to another. The write only
// applies while the persisted status still equals from.
func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.OrderStatus) error {
	query := `
		UPDATE orders
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	result, err := r.db.ExecContext(ctx, query, id, from, to)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check order existence: %w", err)
		}
		if !exists {
			return ErrOrderNotFound
		}
		return ErrOrderStatusConflict
	}

	return nil
}

// Delete removes an order; its items go with it through ON DELETE CASCADE
func (r *orderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// CountByProduct returns how many orders reference the product
func (r *orderRepository) CountByProduct(ctx context.Context, productID uuid.UUID) (int, error) {
	query := `SELECT COUNT(DISTINCT order_id) FROM order_items WHERE product_id = $1`

	var count int
	if err := r.db.QueryRowContext(ctx, query, productID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count orders by product: %w", err)
	}

	return count, nil
}
