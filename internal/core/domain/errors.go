package domain

import "errors"

var (
	// ErrNotFound means the referenced SKU or campaign does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation means the input itself is malformed (bad time window,
	// non-positive quantity, discount out of range).
	ErrValidation = errors.New("validation failed")

	// ErrInsufficientStock is the admission-time rejection: the general pool
	// cannot cover the requested flash-sale allocation.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrOutOfStock is the purchase-time rejection: a conditional decrement
	// found fewer units than requested. Expected under contention.
	ErrOutOfStock = errors.New("out of stock")
)
