package cartstate

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const lineIDSeparator = "-"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// CartLine is one purchasable unit in the cart. Display fields are captured when the
// line is added and never re-fetched.
type CartLine struct {
	ProductID   string          `json:"productId" validate:"required"`
	VariantID   string          `json:"variantId" validate:"required"`
	InventoryID string          `json:"inventoryId" validate:"required"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	ColorName   string          `json:"colorName"`
	Size        string          `json:"size"`
	Image       string          `json:"image"`
	Blurhash    string          `json:"blurhash,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity" validate:"min=1"`
	Stock       int             `json:"stock" validate:"min=0"`
}

// LineID derives the canonical identity key for a cart line. Every consumer goes through
// this function so list keys, lookups and request paths never drift apart.
func LineID(productID, variantID, inventoryID string) string {
	return productID + lineIDSeparator + variantID + lineIDSeparator + inventoryID
}

// ID returns the line's identity key.
func (l CartLine) ID() string {
	return LineID(l.ProductID, l.VariantID, l.InventoryID)
}

// Subtotal is price times quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// MarshalJSON encodes price as a JSON number instead of decimal's default string.
func (l CartLine) MarshalJSON() ([]byte, error) {
	type alias CartLine
	return json.Marshal(struct {
		alias
		Price json.Number `json:"price"`
	}{
		alias: alias(l),
		Price: json.Number(l.Price.String()),
	})
}

// ValidateLine checks the payload of an add request before anything touches local state.
func ValidateLine(line CartLine) error {
	if err := validate.Struct(line); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			fe := errs[0]
			return fmt.Errorf("%w: %s failed %s", ErrInvalidLine, fe.Field(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidLine, err)
	}
	if line.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidLine)
	}
	return nil
}

func cloneLines(lines []CartLine) []CartLine {
	if lines == nil {
		return nil
	}
	out := make([]CartLine, len(lines))
	copy(out, lines)
	return out
}

func indexOf(lines []CartLine, id string) int {
	for i := range lines {
		if lines[i].ID() == id {
			return i
		}
	}
	return -1
}
