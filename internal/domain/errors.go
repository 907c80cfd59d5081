package domain

import "errors"

var (
	ErrNotFound          = errors.New("record not found")
	ErrInvalidID         = errors.New("invalid id")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrInvalidPrice      = errors.New("invalid price")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrMissingCustomer   = errors.New("customer name required")
	ErrNoItems           = errors.New("order has no items")
	ErrMissingName       = errors.New("name required")
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidEmail      = errors.New("invalid email")
	ErrInvalidPhone      = errors.New("invalid phone")
)
