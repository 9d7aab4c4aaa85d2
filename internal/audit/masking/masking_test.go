package masking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskContact(t *testing.T) {
	assert.Equal(t, "****7788", MaskContact("+62 811 5566 7788"))
	assert.Equal(t, "r****@example.com", MaskContact("rina@example.com"))
	assert.Equal(t, "****", MaskContact("123"))
	assert.Equal(t, "", MaskContact("  "))
}

func TestMaskMetadata(t *testing.T) {
	out := MaskMetadata(map[string]any{
		"customer_phone": "08123456789",
		"total":          120.5,
		"invoice_id":     "INV-AB12CD34",
		"nested":         map[string]any{"email": "a@b.co"},
		"":               "dropped",
	})

	assert.Equal(t, "****6789", out["customer_phone"])
	assert.Equal(t, 120.5, out["total"])
	assert.Equal(t, "INV-AB12CD34", out["invoice_id"])
	assert.Equal(t, map[string]any{"email": "a****@b.co"}, out["nested"])
	assert.NotContains(t, out, "")
	assert.Nil(t, MaskMetadata(nil))
}
