package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// UnresolvedItemPolicy decides what happens to order items whose product
// reference cannot be resolved
type UnresolvedItemPolicy string

const (
	// UnresolvedItemFail reports the item as a shortfall with zero available stock
	UnresolvedItemFail UnresolvedItemPolicy = "fail"
	// UnresolvedItemSkip leaves the item out of validation and deduction
	UnresolvedItemSkip UnresolvedItemPolicy = "skip"
)

// ParseUnresolvedItemPolicy converts a config value into a policy
func ParseUnresolvedItemPolicy(s string) (UnresolvedItemPolicy, error) {
	switch p := UnresolvedItemPolicy(s); p {
	case UnresolvedItemFail, UnresolvedItemSkip:
		return p, nil
	default:
		return "", fmt.Errorf("invalid unresolved item policy %q", s)
	}
}

// StockIssue describes one order item that cannot be fulfilled from stock
type StockIssue struct {
	ProductID uuid.UUID `json:"product_id"`
	Title     string    `json:"title"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

// SkippedItem is an order item left untouched because its product is missing
type SkippedItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Title     string    `json:"title"`
	Quantity  int       `json:"quantity"`
}

// StockValidation is the outcome of checking an order against inventory
type StockValidation struct {
	Valid      bool          `json:"valid"`
	Shortfalls []StockIssue  `json:"shortfalls"`
	Skipped    []SkippedItem `json:"skipped,omitempty"`
	Resolved   int           `json:"resolved"`
}

// StockDeduction reports what a deduction pass changed
type StockDeduction struct {
	Deducted []DeductedItem `json:"deducted"`
	Skipped  []SkippedItem  `json:"skipped,omitempty"`
}

// DeductedItem records a single stock decrement
type DeductedItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	NewStock  int       `json:"new_stock"`
}
