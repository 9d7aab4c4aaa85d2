package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	invoicedomain "github.com/smallbiznis/barberdesk/internal/invoice/domain"
	"github.com/smallbiznis/barberdesk/internal/invoice/calc"
	"gorm.io/gorm"
)

func (s *Service) loadResponse(ctx context.Context, conn *gorm.DB, inv *invoicedomain.Invoice) (*invoicedomain.InvoiceResponse, error) {
	out, err := s.loadResponses(ctx, conn, []*invoicedomain.Invoice{inv})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// loadResponses reads the lines for every invoice in three queries and
// denormalizes them.
func (s *Service) loadResponses(ctx context.Context, conn *gorm.DB, invoices []*invoicedomain.Invoice) ([]invoicedomain.InvoiceResponse, error) {
	out := make([]invoicedomain.InvoiceResponse, 0, len(invoices))
	if len(invoices) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(invoices))
	for _, inv := range invoices {
		ids = append(ids, inv.ID)
	}

	serviceLines, err := s.repo.ServiceLines(ctx, conn, ids...)
	if err != nil {
		return nil, err
	}
	productLines, err := s.repo.ProductLines(ctx, conn, ids...)
	if err != nil {
		return nil, err
	}
	components, err := s.repo.TaxComponents(ctx, conn, ids...)
	if err != nil {
		return nil, err
	}

	servicesBy := map[string][]*invoicedomain.InvoiceServiceLine{}
	for _, line := range serviceLines {
		servicesBy[line.InvoiceID] = append(servicesBy[line.InvoiceID], line)
	}
	productsBy := map[string][]*invoicedomain.InvoiceProductLine{}
	for _, line := range productLines {
		productsBy[line.InvoiceID] = append(productsBy[line.InvoiceID], line)
	}
	componentsBy := map[string][]*invoicedomain.TaxComponent{}
	for _, c := range components {
		componentsBy[c.InvoiceID] = append(componentsBy[c.InvoiceID], c)
	}

	for _, inv := range invoices {
		out = append(out, buildResponse(inv, servicesBy[inv.ID], productsBy[inv.ID], componentsBy[inv.ID]))
	}
	return out, nil
}

func buildResponse(inv *invoicedomain.Invoice, services []*invoicedomain.InvoiceServiceLine, products []*invoicedomain.InvoiceProductLine, components []*invoicedomain.TaxComponent) invoicedomain.InvoiceResponse {
	serviceResp := make([]invoicedomain.ServiceLineResponse, 0, len(services))
	names := make([]string, 0, len(services)+len(products))
	for _, line := range services {
		serviceResp = append(serviceResp, invoicedomain.ServiceLineResponse{
			ID:               line.ID.String(),
			ServiceID:        line.ServiceID.String(),
			ServiceName:      line.ServiceName,
			StaffID:          idString(line.StaffID),
			StaffName:        line.StaffName,
			Price:            line.Price,
			Quantity:         line.Quantity,
			Total:            line.Total,
			TipAmount:        line.TipAmount,
			CommissionRate:   line.CommissionRate,
			CommissionAmount: line.CommissionAmount,
		})
		names = append(names, line.StaffName)
	}

	productResp := make([]invoicedomain.ProductLineResponse, 0, len(products))
	for _, line := range products {
		productResp = append(productResp, invoicedomain.ProductLineResponse{
			ID:               line.ID.String(),
			ProductID:        line.ProductID.String(),
			ProductName:      line.ProductName,
			StaffID:          idString(line.StaffID),
			StaffName:        line.StaffName,
			Price:            line.Price,
			Quantity:         line.Quantity,
			Total:            line.Total,
			CommissionRate:   line.CommissionRate,
			CommissionAmount: line.CommissionAmount,
		})
		names = append(names, line.StaffName)
	}

	componentResp := make([]invoicedomain.TaxComponentResponse, 0, len(components))
	for _, c := range components {
		componentResp = append(componentResp, invoicedomain.TaxComponentResponse{
			ID:     c.ID.String(),
			Name:   c.Name,
			Rate:   c.Rate,
			Amount: c.Amount,
		})
	}

	return invoicedomain.InvoiceResponse{
		ID:              inv.ID,
		CustomerID:      inv.CustomerID.String(),
		CustomerName:    inv.CustomerName,
		Date:            inv.Date,
		Subtotal:        inv.Subtotal,
		DiscountType:    inv.DiscountType,
		DiscountValue:   inv.DiscountValue,
		DiscountAmount:  inv.DiscountAmount,
		TaxableBase:     calc.TaxableBase(inv.Subtotal, inv.DiscountAmount),
		TaxRate:         inv.TaxRate,
		TaxAmount:       inv.TaxAmount,
		TaxComponents:   componentResp,
		TipAmount:       sumTips(services),
		Total:           inv.Total,
		PaymentMethod:   inv.PaymentMethod,
		Status:          string(inv.Status),
		Notes:           inv.Notes,
		StaffName:       joinDistinct(names),
		InvoiceServices: serviceResp,
		Services:        serviceResp,
		InvoiceProducts: productResp,
		Products:        productResp,
		CreatedAt:       inv.CreatedAt,
		UpdatedAt:       inv.UpdatedAt,
	}
}

func joinDistinct(names []string) string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return strings.Join(out, ", ")
}

func idString(id *snowflake.ID) *string {
	if id == nil {
		return nil
	}
	value := id.String()
	return &value
}
