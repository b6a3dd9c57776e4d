package models

import "errors"

var (
	// ErrNotFound indicates a referenced origin or trip does not exist in the store.
	ErrNotFound = errors.New("record not found")
	// ErrStoreUnavailable indicates the quantity store could not be reached or failed.
	ErrStoreUnavailable = errors.New("quantity store unavailable")
	// ErrInvalidInput indicates a request value failed validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrOverCapacity indicates a trip was refused because it exceeds the origin's availability.
	ErrOverCapacity = errors.New("loaded kg exceeds origin availability")
)
