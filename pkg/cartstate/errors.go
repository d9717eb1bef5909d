package cartstate

import (
	"errors"
	"fmt"

	pkgerrors "github.com/angelmondragon/shopcart/pkg/errors"
)

// Operation names a cart mutation for errors, notifications and metrics.
type Operation string

const (
	OpLoad   Operation = "load"
	OpAdd    Operation = "add"
	OpUpdate Operation = "update"
	OpRemove Operation = "remove"
	OpClear  Operation = "clear"
)

var (
	// ErrItemNotFound means the caller referenced a line id absent from the cart.
	ErrItemNotFound = errors.New("cart item not found")
	// ErrInvalidLine means an add payload failed validation.
	ErrInvalidLine = errors.New("invalid cart line")
)

// FetchError reports a failed initial load.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch cart: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// RemoteMutationError reports a rejected remote write. The optimistic change was rolled back.
type RemoteMutationError struct {
	Op     Operation
	LineID string
	Err    error
}

func (e *RemoteMutationError) Error() string {
	if e.LineID == "" {
		return fmt.Sprintf("%s cart: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.LineID, e.Err)
}

func (e *RemoteMutationError) Unwrap() error { return e.Err }

// userMessage picks the text shown to the shopper for a failure.
func userMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil && typed.Message() != "" {
		return typed.Message()
	}
	var remote *RemoteMutationError
	if errors.As(err, &remote) && remote.Err != nil {
		return remote.Err.Error()
	}
	return err.Error()
}
