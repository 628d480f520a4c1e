package service

import "errors"

var (
	// ErrCustomerExists is returned when registering a national ID that is already registered
	ErrCustomerExists = errors.New("customer already exists")

	// ErrCustomerNotFound is returned when a customer cannot be found
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrInvalidRequest is returned when request data is invalid or incomplete
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidAmount is returned when a purchase or redemption amount is not a positive number
	ErrInvalidAmount = errors.New("amount must be a positive number")
)
