package cartstate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineID(t *testing.T) {
	assert.Equal(t, "p1-v2-i3", LineID("p1", "v2", "i3"))
	line := lineWith("p1", "v2", "i3", "1", 1)
	assert.Equal(t, LineID("p1", "v2", "i3"), line.ID())
}

func TestValidateLine(t *testing.T) {
	cases := []struct {
		name string
		line CartLine
		ok   bool
	}{
		{name: "valid", line: fakeLine(), ok: true},
		{name: "missing product", line: lineWith("", "v", "i", "1", 1)},
		{name: "missing inventory", line: lineWith("p", "v", "", "1", 1)},
		{name: "zero quantity", line: lineWith("p", "v", "i", "1", 0)},
		{name: "negative price", line: lineWith("p", "v", "i", "-0.01", 1)},
		{name: "free item", line: lineWith("p", "v", "i", "0", 1), ok: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateLine(tc.line)
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidLine)
		})
	}
}

func TestValidateLineNamesJSONField(t *testing.T) {
	err := ValidateLine(lineWith("p", "", "i", "1", 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "variantId")
}

func TestCartLineJSONPriceIsNumber(t *testing.T) {
	line := lineWith("p", "v", "i", "12.50", 2)
	line.Blurhash = ""

	raw, err := json.Marshal(line)
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	assert.Equal(t, 12.5, generic["price"])
	assert.EqualValues(t, 2, generic["quantity"])
	assert.NotContains(t, generic, "blurhash")

	var decoded CartLine
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.True(t, line.Price.Equal(decoded.Price))
	assert.Equal(t, line.ID(), decoded.ID())
}

func TestSubtotal(t *testing.T) {
	line := lineWith("p", "v", "i", "19.99", 3)
	assert.Equal(t, "59.97", line.Subtotal().StringFixed(2))
}
