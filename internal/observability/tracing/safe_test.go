package tracing

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestSafeAttributesDropsPII(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("http.route", "/invoices"),
		attribute.String("customer.phone", "+62811"),
	)
	assert.Len(t, attrs, 1)
	assert.Equal(t, attribute.Key("http.route"), attrs[0].Key)
}

func TestSafeErrorTruncates(t *testing.T) {
	assert.Nil(t, SafeError(nil))
	assert.Equal(t, "first", SafeError(errors.New("first\nsecond")).Error())
	assert.Len(t, SafeError(errors.New(strings.Repeat("x", 400))).Error(), 256)
}
