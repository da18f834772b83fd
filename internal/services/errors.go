package services

import "errors"

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrCartChanged        = errors.New("cart changed since it was reviewed")
	ErrInvalidLines       = errors.New("cart still contains unavailable items")
	ErrProductUnavailable = errors.New("product is not available")
	ErrBadCreds           = errors.New("invalid username or password")
	ErrNotApproved        = errors.New("account is awaiting approval")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidStatus      = errors.New("invalid order status")
	ErrInvalidRating      = errors.New("rating must be between 1 and 5")
	ErrNotFound           = errors.New("not found")
	ErrDuplicate          = errors.New("already exists")
	ErrHasOrders          = errors.New("user has placed orders")
)
