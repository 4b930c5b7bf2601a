package order

import "errors"

var (
	ErrEmptyOrder    = errors.New("order has no items with a quantity")
	ErrOrderNotFound = errors.New("order not found")

	// -- Persistence --
	ErrFailedCreateOrder = errors.New("failed to record order")
	ErrFailedGetOrder    = errors.New("failed to get order")

	// -- Delivery --
	ErrNotifierFailed = errors.New("failed to send order message")
)
