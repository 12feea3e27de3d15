// Package errors provides the sentinel errors of the storefront domain.
package errors

import "errors"

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrCartEmpty        = errors.New("cart is empty")
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrOutOfStock       = errors.New("not enough stock")
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrOptimisticLock    = errors.New("optimistic lock error: the record has been modified by another transaction")
)
