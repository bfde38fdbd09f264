package domain

import (
	"errors"
	"fmt"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var ErrUnknownOrderStatus = errors.New("unknown order status")

// orderTransitions is the complete state machine. Every status maps to itself
// so that re-saving the current status is always legal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusPending, OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusProcessing, OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusShipped, OrderStatusDelivered},
	OrderStatusDelivered:  {OrderStatusDelivered},
	OrderStatusCancelled:  {OrderStatusCancelled},
}

// OrderStatuses lists every valid status in lifecycle order
func OrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending,
		OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled,
	}
}

// ParseOrderStatus converts a raw value into an OrderStatus, rejecting
// anything outside the enumeration
func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownOrderStatus, s)
	}
	return status, nil
}

// Valid reports whether s is a member of the enumeration
func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// Terminal reports whether no status other than s itself can follow s
func (s OrderStatus) Terminal() bool {
	next, ok := orderTransitions[s]
	return ok && len(next) == 1 && next[0] == s
}

// AllowedNextStatuses returns the statuses an order in status s may move to.
// The returned slice is a copy.
func AllowedNextStatuses(s OrderStatus) []OrderStatus {
	allowed, ok := orderTransitions[s]
	if !ok {
		return []OrderStatus{}
	}
	result := make([]OrderStatus, len(allowed))
	copy(result, allowed)
	return result
}

// CanTransition checks if moving from `from` to `to` is in the table
func CanTransition(from, to OrderStatus) bool {
	for _, s := range orderTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsStockSensitive reports whether the edge reserves and deducts inventory
func IsStockSensitive(from, to OrderStatus) bool {
	return from == OrderStatusPending && to == OrderStatusProcessing
}
