package orders

import "errors"

// Business-rule failures. Each aborts placement with no state change and is
// reported to the caller as a 4xx; retrying the same request yields the same
// error until the caller changes it (tops up, reduces quantity, ...).
var (
	ErrEmptySource          = errors.New("no items to order")
	ErrItemNotFound         = errors.New("food item not found")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
)
