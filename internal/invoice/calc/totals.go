// Package calc derives invoice header amounts from resolved line totals.
package calc

import (
	"math"
	"strings"

	"github.com/smallbiznis/barberdesk/internal/money"
)

type DiscountType string

const (
	DiscountNone       DiscountType = ""
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

func ParseDiscountType(raw string) (DiscountType, bool) {
	switch DiscountType(strings.ToLower(strings.TrimSpace(raw))) {
	case DiscountNone:
		return DiscountNone, true
	case DiscountPercentage:
		return DiscountPercentage, true
	case DiscountFixed:
		return DiscountFixed, true
	default:
		return DiscountNone, false
	}
}

type Discount struct {
	Type  DiscountType
	Value float64
	// Amount is used verbatim when Type is empty.
	Amount float64
}

type Component struct {
	Name string
	Rate float64
	// Amount nil means derive it from Rate against the taxable base.
	Amount *float64
}

type Tax struct {
	Rate       float64
	Components []Component
}

type Totals struct {
	Subtotal       float64
	DiscountAmount float64
	TaxableBase    float64
	TaxAmount      float64
	// Components carries the resolved component amounts, in input order.
	Components []Component
	// Total excludes tips.
	Total float64
}

// Compute runs subtotal, discount, taxable base and tax in that order.
func Compute(lineTotals []float64, discount Discount, tax Tax) Totals {
	subtotal := money.Sum(lineTotals...)
	discountAmount := DiscountAmount(subtotal, discount)
	base := TaxableBase(subtotal, discountAmount)
	taxAmount, components := TaxAmount(base, tax)

	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discountAmount,
		TaxableBase:    base,
		TaxAmount:      taxAmount,
		Components:     components,
		Total:          money.Round2(base + taxAmount),
	}
}

func DiscountAmount(subtotal float64, d Discount) float64 {
	switch d.Type {
	case DiscountPercentage:
		return money.Percent(subtotal, finite(d.Value))
	case DiscountFixed:
		return money.Round2(d.Value)
	default:
		return money.Round2(d.Amount)
	}
}

// TaxableBase never goes below zero, so an oversized discount zeroes the invoice.
func TaxableBase(subtotal, discountAmount float64) float64 {
	return math.Max(0, money.Round2(subtotal-discountAmount))
}

// TaxAmount prefers itemized components over the flat rate.
func TaxAmount(base float64, tax Tax) (float64, []Component) {
	if len(tax.Components) == 0 {
		return money.Percent(base, finite(tax.Rate)), nil
	}

	resolved := make([]Component, 0, len(tax.Components))
	amounts := make([]float64, 0, len(tax.Components))
	for _, c := range tax.Components {
		amount := money.Percent(base, finite(c.Rate))
		if c.Amount != nil {
			amount = money.Round2(*c.Amount)
		}
		resolved = append(resolved, Component{
			Name:   strings.TrimSpace(c.Name),
			Rate:   c.Rate,
			Amount: &amount,
		})
		amounts = append(amounts, amount)
	}
	return money.Sum(amounts...), resolved
}

// RecomputeComponents re-derives every amount from its stored rate.
func RecomputeComponents(base float64, components []Component) (float64, []Component) {
	stripped := make([]Component, 0, len(components))
	for _, c := range components {
		stripped = append(stripped, Component{Name: c.Name, Rate: c.Rate})
	}
	return TaxAmount(base, Tax{Components: stripped})
}

// GrandTotal adds allocated tips to the pre-tip total.
func GrandTotal(base, taxAmount float64, tips ...float64) float64 {
	return money.Round2(base + taxAmount + money.Sum(tips...))
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
