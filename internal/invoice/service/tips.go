package service

import (
	"context"

	invoicedomain "github.com/smallbiznis/barberdesk/internal/invoice/domain"
	"github.com/smallbiznis/barberdesk/internal/invoice/tip"
	"github.com/smallbiznis/barberdesk/internal/money"
	"gorm.io/gorm"
)

// allocateTips spreads totalTip over the service lines on top of base and
// persists every line whose tip changed. lines are updated in place.
func (s *Service) allocateTips(ctx context.Context, tx *gorm.DB, r *lineResolver, lines []*invoicedomain.InvoiceServiceLine, base []float64, totalTip float64) (tip.Result, error) {
	tipLines := make([]tip.Line, len(lines))
	for i, line := range lines {
		eligible, err := r.tipEligible(ctx, line.ServiceID)
		if err != nil {
			return tip.Result{}, err
		}
		tipLines[i] = tip.Line{Total: line.Total, TipEligible: eligible}
		if line.StaffID != nil {
			tipLines[i].StaffKey = line.StaffID.String()
		}
	}

	res := tip.Allocate(totalTip, tipLines)
	final := tip.Apply(base, res)
	for i, line := range lines {
		if line.TipAmount == final[i] {
			continue
		}
		if err := s.repo.UpdateLineTip(ctx, tx, line.ID, final[i]); err != nil {
			return tip.Result{}, err
		}
		line.TipAmount = final[i]
	}

	if res.Allocated > 0 {
		s.metrics.RecordTipAllocated(ctx, string(res.Mode), res.Allocated)
	}
	return res, nil
}

func lineTips(lines []*invoicedomain.InvoiceServiceLine) []float64 {
	tips := make([]float64, len(lines))
	for i, line := range lines {
		tips[i] = line.TipAmount
	}
	return tips
}

func sumTips(lines []*invoicedomain.InvoiceServiceLine) float64 {
	return money.Sum(lineTips(lines)...)
}
