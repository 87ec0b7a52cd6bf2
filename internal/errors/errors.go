package errors

import "errors"

// Selection errors are recoverable: the shopper sees a blocking message and the cart stays as it was.
var (
	ErrNoInventoryAvailable  = errors.New("no inventory available for shape")
	ErrInsufficientInventory = errors.New("insufficient inventory for requested quantity")
	ErrNoPriceForCategory    = errors.New("no price for category")
	ErrInvalidQuantity       = errors.New("invalid quantity")
	ErrUnknownShape          = errors.New("shape not found in layout")
	ErrEntryNotFound         = errors.New("selection entry not found")
)

// Checkout errors.
var (
	ErrUnitNoLongerAvailable = errors.New("inventory unit is no longer available")
	ErrEmptySelection        = errors.New("selection is empty")
	ErrDuplicateUnit         = errors.New("inventory unit selected more than once")
	ErrCurrencyMismatch      = errors.New("selection mixes currencies")
	ErrOrderNotFound         = errors.New("order not found")
	ErrOrderNotRefundable    = errors.New("order is not refundable")
)

var (
	ErrEventNotFound     = errors.New("event not found")
	ErrVenueNotFound     = errors.New("venue not found")
	ErrSessionNotFound   = errors.New("session not found")
	ErrInvalidAction     = errors.New("invalid viewport action")
	ErrSearchUnavailable = errors.New("order search is not configured")
)
