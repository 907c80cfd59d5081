package domain

import "time"

// Category classifies a notification for presentation.
type Category string

const (
	CategoryOrder       Category = "order"
	CategoryUrgent      Category = "urgent"
	CategoryReservation Category = "reservation"
	CategoryGeneric     Category = "generic"
)

// Notification is an ephemeral alert shown to staff. It has no identity
// beyond its display lifetime.
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Category  Category  `json:"category"`
	Record    any       `json:"record,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
