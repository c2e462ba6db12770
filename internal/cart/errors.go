package cart

import (
	"errors"
	"fmt"
)

var (
	ErrValidation    = errors.New("validation")
	ErrStockExceeded = errors.New("stock exceeded")
	ErrRemote        = errors.New("remote failure")
	ErrStorage       = errors.New("storage failure")
	ErrCorruptState  = errors.New("corrupt persisted cart")

	ErrNotInCart = fmt.Errorf("not in cart: %w", ErrValidation)
)

// Messages shown to the user through the Notifier.
const (
	MsgAddFailed         = "failed to add the product"
	MsgRemoveFailed      = "failed to remove the product"
	MsgUpdateFailed      = "failed to change the product amount"
	MsgProductOutOfStock = "the product you want is out of stock"
	MsgAmountOutOfStock  = "requested amount is out of stock"
)

// Message returns the user-facing message that was reported for err,
// or an empty string when err did not come from a cart operation.
func Message(err error) string {
	var opErr *OpError
	if errors.As(err, &opErr) {
		return opErr.Message
	}
	return ""
}

// OpError carries the reported message next to the underlying cause.
type OpError struct {
	Op      string
	Message string
	Err     error
}

func (e *OpError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() error {
	return e.Err
}
