package domain

import (
	"fmt"
	"strings"
	"time"
)

// MenuItem is a sellable menu entry.
type MenuItem struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Price        int64     `json:"price"`
	CategoryID   int64     `json:"category_id,omitempty"`
	CategoryName string    `json:"category_name,omitempty"`
	ImageURL     string    `json:"image_url,omitempty"`
	IsAvailable  bool      `json:"is_available"`
	IsFeatured   bool      `json:"is_featured"`
	CreatedAt    time.Time `json:"created_at"`
}

// Validate checks the name and price.
func (m MenuItem) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return ErrMissingName
	}
	if m.Price < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPrice, m.Price)
	}
	return nil
}

// MenuFilter narrows menu listings. Nil pointers mean "any".
type MenuFilter struct {
	CategoryID  int64
	IsAvailable *bool
	Featured    bool
}

// MenuItemUpdate carries a partial update. Nil fields are left unchanged.
type MenuItemUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Price       *int64  `json:"price,omitempty"`
	CategoryID  *int64  `json:"category_id,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
	IsAvailable *bool   `json:"is_available,omitempty"`
	IsFeatured  *bool   `json:"is_featured,omitempty"`
}

// Fields returns the non-nil columns of the update, keyed by column name.
func (u MenuItemUpdate) Fields() map[string]any {
	fields := map[string]any{}
	if u.Name != nil {
		fields["name"] = *u.Name
	}
	if u.Description != nil {
		fields["description"] = *u.Description
	}
	if u.Price != nil {
		fields["price"] = *u.Price
	}
	if u.CategoryID != nil {
		fields["category_id"] = *u.CategoryID
	}
	if u.ImageURL != nil {
		fields["image_url"] = *u.ImageURL
	}
	if u.IsAvailable != nil {
		fields["is_available"] = *u.IsAvailable
	}
	if u.IsFeatured != nil {
		fields["is_featured"] = *u.IsFeatured
	}
	return fields
}

// Customer is a known café customer.
type Customer struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Address      string    `json:"address,omitempty"`
	CustomerType string    `json:"customer_type,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableStatus is the occupancy state of a dining table.
type TableStatus string

const (
	TableAvailable   TableStatus = "available"
	TableOccupied    TableStatus = "occupied"
	TableReserved    TableStatus = "reserved"
	TableMaintenance TableStatus = "maintenance"
)

// ParseTableStatus validates s against the known table statuses.
func ParseTableStatus(s string) (TableStatus, error) {
	status := TableStatus(strings.ToLower(strings.TrimSpace(s)))
	switch status {
	case TableAvailable, TableOccupied, TableReserved, TableMaintenance:
		return status, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Table is a dining table.
type Table struct {
	ID          int64       `json:"id"`
	TableNumber string      `json:"table_number"`
	Capacity    int         `json:"capacity"`
	Location    string      `json:"location,omitempty"`
	Status      TableStatus `json:"status"`
	UpdatedAt   *time.Time  `json:"updated_at,omitempty"`
}

// TableFilter narrows table listings.
type TableFilter struct {
	Status   TableStatus
	Location string
}

// Reservation is a table booking.
type Reservation struct {
	ID              int64     `json:"id"`
	CustomerName    string    `json:"customer_name"`
	CustomerPhone   string    `json:"customer_phone,omitempty"`
	ReservationDate string    `json:"reservation_date"`
	ReservationTime string    `json:"reservation_time"`
	NumberOfGuests  int       `json:"number_of_guests"`
	TableID         int64     `json:"table_id,omitempty"`
	Status          string    `json:"status"`
	SpecialRequests string    `json:"special_requests,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewReservation is the input for creating a reservation.
type NewReservation struct {
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone,omitempty"`
	Date          string `json:"reservation_date"`
	Time          string `json:"reservation_time"`
	Guests        int    `json:"number_of_guests"`
	TableID       int64  `json:"table_id,omitempty"`
	Notes         string `json:"special_requests,omitempty"`
}

// Validate checks the customer, guest count and date/time layout.
func (n NewReservation) Validate() error {
	if strings.TrimSpace(n.CustomerName) == "" {
		return ErrMissingCustomer
	}
	if n.Guests < 1 {
		return fmt.Errorf("%w: %d guests", ErrInvalidQuantity, n.Guests)
	}
	if _, err := time.Parse("2006-01-02", n.Date); err != nil {
		return fmt.Errorf("%w: reservation date %q", ErrInvalidDate, n.Date)
	}
	if _, err := time.Parse("15:04", n.Time); err != nil {
		return fmt.Errorf("%w: reservation time %q", ErrInvalidDate, n.Time)
	}
	return nil
}

// ReservationFilter narrows reservation listings.
type ReservationFilter struct {
	Status   string
	Date     string
	Upcoming bool
}
