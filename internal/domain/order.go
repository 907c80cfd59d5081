package domain

import (
	"fmt"
	"strings"
	"time"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderPending, OrderConfirmed, OrderPreparing, OrderReady, OrderCompleted, OrderCancelled,
}

// orderTransitions lists the statuses reachable from each status.
// Completed and cancelled are terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderConfirmed, OrderPreparing, OrderCancelled},
	OrderConfirmed: {OrderPreparing, OrderReady, OrderCancelled},
	OrderPreparing: {OrderReady, OrderCancelled},
	OrderReady:     {OrderCompleted, OrderCancelled},
}

// ParseOrderStatus normalizes s and validates it against the known statuses.
func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range OrderStatuses {
		if status == known {
			return status, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Terminal reports whether no further transitions are allowed.
func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

// CanTransitionTo reports whether s may move to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// LineItem is a single menu item line on an order.
type LineItem struct {
	MenuItemID int64  `json:"menu_item_id,omitempty"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	UnitPrice  int64  `json:"unit_price"`
}

// Validate checks quantity ≥ 1, unit price ≥ 0 and a non-empty name.
func (li LineItem) Validate() error {
	if strings.TrimSpace(li.Name) == "" {
		return ErrMissingName
	}
	if li.Quantity < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, li.Quantity)
	}
	if li.UnitPrice < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPrice, li.UnitPrice)
	}
	return nil
}

// Subtotal returns quantity × unit price.
func (li LineItem) Subtotal() int64 {
	return int64(li.Quantity) * li.UnitPrice
}

// LineItemsTotal sums the subtotals of items.
func LineItemsTotal(items []LineItem) int64 {
	var total int64
	for _, li := range items {
		total += li.Subtotal()
	}
	return total
}

// Order is an authoritative order record from the remote data source.
type Order struct {
	ID            int64       `json:"id"`
	OrderNumber   string      `json:"order_number,omitempty"`
	CustomerName  string      `json:"customer_name,omitempty"`
	CustomerPhone string      `json:"customer_phone,omitempty"`
	TotalAmount   int64       `json:"total_amount"`
	Status        OrderStatus `json:"status"`
	OrderType     string      `json:"order_type,omitempty"`
	PaymentMethod string      `json:"payment_method,omitempty"`
	Notes         string      `json:"notes,omitempty"`
	OrderDate     string      `json:"order_date,omitempty"`
	Items         []LineItem  `json:"items,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     *time.Time  `json:"updated_at,omitempty"`
}

// DisplayNumber returns the human order number, falling back to the id.
func (o Order) DisplayNumber() string {
	if o.OrderNumber != "" {
		return o.OrderNumber
	}
	return fmt.Sprintf("%d", o.ID)
}

// NewOrder is the input for creating an order remotely.
type NewOrder struct {
	CustomerName  string     `json:"customer_name"`
	CustomerPhone string     `json:"customer_phone,omitempty"`
	Total         int64      `json:"total_amount"`
	Notes         string     `json:"notes,omitempty"`
	OrderType     string     `json:"order_type,omitempty"`
	Items         []LineItem `json:"items,omitempty"`
}

// Validate checks the customer name, total and every line item.
func (n NewOrder) Validate() error {
	if strings.TrimSpace(n.CustomerName) == "" {
		return ErrMissingCustomer
	}
	if n.Total < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAmount, n.Total)
	}
	for i, li := range n.Items {
		if err := li.Validate(); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	Status OrderStatus
	Date   string // YYYY-MM-DD, matched against order_date
	Limit  int
}
