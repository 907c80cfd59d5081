package domain

import (
	"fmt"
	"strings"
	"time"
)

// PendingOrder is an order placed by the customer-facing flow that has not
// been observed through the remote data source yet. It travels through the
// mailbox slot, so its JSON shape is the one the customer pages write.
type PendingOrder struct {
	CustomerName  string     `json:"customerName"`
	CustomerPhone string     `json:"customerPhone,omitempty"`
	TableNumber   string     `json:"tableNumber,omitempty"`
	OrderType     string     `json:"orderType,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	Items         []LineItem `json:"items"`
	TotalAmount   int64      `json:"totalAmount"`
	CreatedAt     time.Time  `json:"createdAt,omitempty"`
}

// Validate rejects entries that cannot be shown to staff.
func (p PendingOrder) Validate() error {
	if strings.TrimSpace(p.CustomerName) == "" {
		return ErrMissingCustomer
	}
	if len(p.Items) == 0 {
		return ErrNoItems
	}
	if p.TotalAmount < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAmount, p.TotalAmount)
	}
	for i, li := range p.Items {
		if err := li.Validate(); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

// ItemCount returns the number of line items.
func (p PendingOrder) ItemCount() int {
	return len(p.Items)
}

// HistoryEntry is a dispatched mailbox entry kept in the bounded history.
type HistoryEntry struct {
	Seq         int64        `json:"seq,omitempty"`
	Order       PendingOrder `json:"order"`
	Fingerprint string       `json:"fingerprint"`
	ProcessedAt time.Time    `json:"processed_at"`
}
