package cart

import (
	"context"

	"github.com/angelmondragon/shopcart/pkg/cartstate"
)

// CartRepository defines the storage surface required by the cart service.
type CartRepository interface {
	List(ctx context.Context) ([]cartstate.CartLine, error)
	Find(ctx context.Context, lineID string) (cartstate.CartLine, bool, error)
	Save(ctx context.Context, line cartstate.CartLine) error
	Delete(ctx context.Context, lineID string) (bool, error)
	Clear(ctx context.Context) error
}
