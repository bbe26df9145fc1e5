package entity

import (
	"errors"
	"fmt"
)

// Error categories. Concrete errors wrap one of these with fmt.Errorf("%w: ...")
// so that handlers can classify them with errors.Is.
var (
	ErrValidation            = errors.New("validation error")
	ErrNotFound              = errors.New("not found")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrPaymentNotVerified    = errors.New("payment not verified")
	ErrInternal              = errors.New("internal error")
	ErrUnauthorized          = errors.New("unauthorized access")
	ErrForbidden             = errors.New("forbidden access")
	ErrConflict              = errors.New("conflict")
)

var (
	ErrTicketNotFound  = fmt.Errorf("ticket %w", ErrNotFound)
	ErrBookingNotFound = fmt.Errorf("booking %w", ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrVendorNotFound  = fmt.Errorf("vendor %w", ErrNotFound)
	ErrPaymentNotFound = fmt.Errorf("payment %w", ErrNotFound)
)
