package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus tracks cash-on-delivery collection
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// PaymentMethodCOD is the only payment method the storefront offers
const PaymentMethodCOD = "cod"

// Order represents a customer order
type Order struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	CustomerName    string          `json:"customer_name" db:"customer_name"`
	CustomerEmail   string          `json:"customer_email" db:"customer_email"`
	CustomerPhone   string          `json:"customer_phone" db:"customer_phone"`
	ShippingAddress string          `json:"shipping_address" db:"shipping_address"`
	City            string          `json:"city" db:"city"`
	Items           []OrderItem     `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal" db:"subtotal"`
	DeliveryFee     decimal.Decimal `json:"delivery_fee" db:"delivery_fee"`
	TotalAmount     decimal.Decimal `json:"total_amount" db:"total_amount"`
	Status          OrderStatus     `json:"status" db:"status"`
	PaymentMethod   string          `json:"payment_method" db:"payment_method"`
	PaymentStatus   PaymentStatus   `json:"payment_status" db:"payment_status"`
	Notes           string          `json:"notes,omitempty" db:"notes"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// OrderItem is a single line of an order. ProductID may point at a product
// that no longer exists; Title and ProductSnapshot keep the history readable.
type OrderItem struct {
	ID              uuid.UUID        `json:"id" db:"id"`
	OrderID         uuid.UUID        `json:"order_id" db:"order_id"`
	ProductID       uuid.UUID        `json:"product_id" db:"product_id"`
	Title           string           `json:"title" db:"title"`
	Price           decimal.Decimal  `json:"price" db:"price"`
	Quantity        int              `json:"quantity" db:"quantity"`
	ImageURL        string           `json:"image_url,omitempty" db:"image_url"`
	ProductSnapshot *ProductSnapshot `json:"product_snapshot,omitempty" db:"product_snapshot"`
}

// LineTotal returns price * quantity
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ProductSnapshot is a copy of product fields taken when the order was placed
type ProductSnapshot struct {
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"image_url,omitempty"`
	SKU      string          `json:"sku,omitempty"`
}

// ComputeTotals sets Subtotal and TotalAmount from the items and delivery fee
func (o *Order) ComputeTotals() {
	subtotal := decimal.Zero
	for _, item := range o.Items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	o.Subtotal = subtotal
	o.TotalAmount = subtotal.Add(o.DeliveryFee)
}

// OrderFilter narrows an order listing. Nil fields are ignored.
type OrderFilter struct {
	Status    *OrderStatus
	From      *time.Time
	To        *time.Time
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
	ProductID *uuid.UUID
}
