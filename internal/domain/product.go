package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductStatus is the publication state of a catalog entry
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusDraft    ProductStatus = "draft"
	ProductStatusArchived ProductStatus = "archived"
)

// Product represents an inventory unit in the catalog
type Product struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	Title       string          `json:"title" db:"title"`
	Slug        string          `json:"slug" db:"slug"`
	Description string          `json:"description" db:"description"`
	CategoryID  uuid.UUID       `json:"category_id" db:"category_id"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Stock       int             `json:"stock" db:"stock"`
	Featured    bool            `json:"featured" db:"featured"`
	ImageURL    string          `json:"image_url" db:"image_url"`
	SKU         string          `json:"sku" db:"sku"`
	Status      ProductStatus   `json:"status" db:"status"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// Snapshot copies the display fields an order item keeps for history
func (p *Product) Snapshot() *ProductSnapshot {
	return &ProductSnapshot{
		Title:    p.Title,
		Price:    p.Price,
		ImageURL: p.ImageURL,
		SKU:      p.SKU,
	}
}

// Category represents a product category
type Category struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	Description string    `json:"description" db:"description"`
	Active      bool      `json:"active" db:"active"`
	SortOrder   int       `json:"sort_order" db:"sort_order"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
