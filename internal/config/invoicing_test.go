package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateInvoicingConfig(t *testing.T) {
	assert.NoError(t, validateInvoicingConfig(DefaultInvoicingConfig()))

	cfg := DefaultInvoicingConfig()
	cfg.IDPrefix = " "
	assert.Error(t, validateInvoicingConfig(cfg))

	cfg = DefaultInvoicingConfig()
	cfg.IDLength = 3
	assert.Error(t, validateInvoicingConfig(cfg))

	cfg = DefaultInvoicingConfig()
	cfg.DefaultStatus = "draft"
	assert.Error(t, validateInvoicingConfig(cfg))
}

func TestAllowsPaymentMethod(t *testing.T) {
	cfg := DefaultInvoicingConfig()
	assert.True(t, cfg.AllowsPaymentMethod("Cash"))
	assert.True(t, cfg.AllowsPaymentMethod(" card "))
	assert.False(t, cfg.AllowsPaymentMethod("barter"))

	cfg.PaymentMethods = nil
	assert.True(t, cfg.AllowsPaymentMethod("barter"))
}

func TestStaticHolderReturnsPinnedConfig(t *testing.T) {
	cfg := DefaultInvoicingConfig()
	cfg.IDPrefix = "BRB-"
	holder := NewStaticInvoicingConfigHolder(cfg)
	assert.Equal(t, "BRB-", holder.Get().IDPrefix)

	var nilHolder *InvoicingConfigHolder
	assert.Equal(t, "INV-", nilHolder.Get().IDPrefix)
}
