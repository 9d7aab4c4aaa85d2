// Package tip splits an invoice-level tip across the staff on its service lines.
package tip

import (
	"math"

	"github.com/smallbiznis/barberdesk/internal/money"
)

type Mode string

const (
	ModeNone        Mode = "none"
	ModeSingleStaff Mode = "single_staff"
	ModeMultiStaff  Mode = "multi_staff"
)

// Line is the allocation view of one service line. StaffKey is empty for
// unassigned lines.
type Line struct {
	StaffKey    string
	Total       float64
	TipEligible bool
}

type Result struct {
	Mode Mode
	// Shares is index-aligned with the input lines.
	Shares    []float64
	Allocated float64
}

// Allocate splits totalTip. With a single staff member that staff's lines
// share equally regardless of eligibility and unassigned lines get nothing. With several, eligible staff split
// equally and each staff share is spread over that staff's eligible lines in
// proportion to line totals. Rounding residue always lands on the last entry.
func Allocate(totalTip float64, lines []Line) Result {
	res := Result{Mode: ModeNone, Shares: make([]float64, len(lines))}

	totalTip = money.Round2(totalTip)
	if totalTip <= 0 || len(lines) == 0 {
		return res
	}

	staff := distinctStaff(lines, func(Line) bool { return true })
	switch len(staff) {
	case 0:
		return res
	case 1:
		res.Mode = ModeSingleStaff
		var own []int
		for i, l := range lines {
			if l.StaffKey == staff[0] {
				own = append(own, i)
			}
		}
		for i, share := range spread(totalTip, own, nil) {
			res.Shares[own[i]] = share
		}
	default:
		res.Mode = ModeMultiStaff
		eligible := distinctStaff(lines, func(l Line) bool { return l.TipEligible })
		if len(eligible) == 0 {
			res.Mode = ModeNone
			return res
		}
		groups := groupLines(lines, eligible)
		staffShares := spread(totalTip, make([]int, len(eligible)), nil)
		for si, key := range eligible {
			idx := groups[key]
			weights := make([]float64, len(idx))
			var sum float64
			for i, li := range idx {
				weights[i] = lines[li].Total
				sum += lines[li].Total
			}
			if sum <= 0 {
				weights = nil
			}
			for i, share := range spread(staffShares[si], idx, weights) {
				res.Shares[idx[i]] = share
			}
		}
	}

	res.Allocated = money.Sum(res.Shares...)
	return res
}

// Apply adds shares onto existing tip amounts.
func Apply(existing []float64, res Result) []float64 {
	out := make([]float64, len(existing))
	for i, v := range existing {
		if i < len(res.Shares) {
			v += res.Shares[i]
		}
		out[i] = money.Round2(v)
	}
	return out
}

func distinctStaff(lines []Line, keep func(Line) bool) []string {
	seen := map[string]struct{}{}
	keys := make([]string, 0, len(lines))
	for _, l := range lines {
		if l.StaffKey == "" || !keep(l) {
			continue
		}
		if _, ok := seen[l.StaffKey]; ok {
			continue
		}
		seen[l.StaffKey] = struct{}{}
		keys = append(keys, l.StaffKey)
	}
	return keys
}

func groupLines(lines []Line, staff []string) map[string][]int {
	wanted := make(map[string]struct{}, len(staff))
	for _, key := range staff {
		wanted[key] = struct{}{}
	}
	groups := make(map[string][]int, len(staff))
	for i, l := range lines {
		if !l.TipEligible {
			continue
		}
		if _, ok := wanted[l.StaffKey]; !ok {
			continue
		}
		groups[l.StaffKey] = append(groups[l.StaffKey], i)
	}
	return groups
}

// spread divides amount over len(slots) entries, equally when weights is nil,
// and puts the rounding residue on the last entry.
func spread(amount float64, slots []int, weights []float64) []float64 {
	n := len(slots)
	shares := make([]float64, n)
	if n == 0 {
		return shares
	}

	var weightSum float64
	for _, w := range weights {
		weightSum += w
	}

	var assigned float64
	for i := 0; i < n-1; i++ {
		if weights == nil {
			shares[i] = money.Round2(amount / float64(n))
		} else {
			shares[i] = money.Round2(amount * weights[i] / weightSum)
		}
		assigned = money.Round2(assigned + shares[i])
	}
	shares[n-1] = money.Round2(amount - assigned)

	// Upward rounding on many small shares can overshoot; pull the excess back.
	if shares[n-1] < 0 {
		deficit := -shares[n-1]
		shares[n-1] = 0
		for i := n - 2; i >= 0 && deficit > 0; i-- {
			take := math.Min(shares[i], deficit)
			shares[i] = money.Round2(shares[i] - take)
			deficit = money.Round2(deficit - take)
		}
	}
	return shares
}
