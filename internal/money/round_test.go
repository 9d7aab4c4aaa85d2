package money

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	cases := []struct {
		name string
		in   float64
		want float64
	}{
		{"half cent rounds up", 1.005, 1.01},
		{"already rounded", 12.5, 12.5},
		{"third", 10.0 / 3, 3.33},
		{"two thirds", 20.0 / 3, 6.67},
		{"zero", 0, 0},
		{"negative", -1.234, -1.23},
		{"float drift", 0.1 + 0.2, 0.3},
		{"nan", math.NaN(), 0},
		{"inf", math.Inf(1), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Round2(tc.in))
		})
	}
}

func TestRound2Idempotent(t *testing.T) {
	for _, v := range []float64{0.01, 1.005, 3.333333, 99.995, 1234.5678, 7.77} {
		once := Round2(v)
		assert.Equal(t, once, Round2(once), "value %v", v)
	}
}

func TestLineTotal(t *testing.T) {
	override := 18.0
	zero := 0.0
	negative := -4.0

	assert.Equal(t, 50.0, LineTotal(25, 2, nil))
	assert.Equal(t, 25.0, LineTotal(25, 0, nil), "missing quantity defaults to one")
	assert.Equal(t, 18.0, LineTotal(25, 2, &override))
	assert.Equal(t, 50.0, LineTotal(25, 2, &zero), "zero override falls back")
	assert.Equal(t, 50.0, LineTotal(25, 2, &negative), "negative override falls back")
	assert.Equal(t, 10.01, LineTotal(3.3366666, 3, nil))
}

func TestSumAndFormat(t *testing.T) {
	assert.Equal(t, 0.3, Sum(0.1, 0.2))
	assert.Equal(t, 10.0, Sum(3.33, 3.33, 3.34))
	assert.Equal(t, 5.0, Sum(5, math.NaN()))
	assert.Equal(t, "1.01", Format(1.005))
	assert.Equal(t, "10.00", Format(10))
	assert.Equal(t, 1.5, Percent(15, 10))
}
