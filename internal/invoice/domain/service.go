package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/smallbiznis/barberdesk/pkg/db/pagination"
)

// FlexibleID accepts an identifier sent either as a JSON string or number.
type FlexibleID string

func (f *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexibleID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexibleID(n.String())
	return nil
}

func (f FlexibleID) String() string { return strings.TrimSpace(string(f)) }

type CustomerDetails struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type ServiceLineInput struct {
	ServiceID FlexibleID `json:"service_id"`
	StaffID   FlexibleID `json:"staff_id"`
	Price     *float64   `json:"price"`
	Quantity  int        `json:"quantity"`
	Total     *float64   `json:"total"`
	TipAmount *float64   `json:"tip_amount"`
}

type ProductLineInput struct {
	ProductID FlexibleID `json:"product_id"`
	StaffID   FlexibleID `json:"staff_id"`
	Price     *float64   `json:"price"`
	Quantity  int        `json:"quantity"`
	Total     *float64   `json:"total"`
}

type TaxComponentInput struct {
	Name   string   `json:"name"`
	Rate   float64  `json:"rate"`
	Amount *float64 `json:"amount"`
}

type CreateInvoiceRequest struct {
	CustomerID      FlexibleID          `json:"customer_id"`
	IsNewCustomer   bool                `json:"is_new_customer"`
	CustomerDetails *CustomerDetails    `json:"customer_details"`
	Date            string              `json:"date"`
	PaymentMethod   string              `json:"payment_method"`
	Status          string              `json:"status"`
	Services        []ServiceLineInput  `json:"services"`
	InvoiceServices []ServiceLineInput  `json:"invoiceServices"`
	Products        []ProductLineInput  `json:"products"`
	InvoiceProducts []ProductLineInput  `json:"invoiceProducts"`
	DiscountType    string              `json:"discount_type"`
	DiscountValue   *float64            `json:"discount_value"`
	DiscountAmount  *float64            `json:"discount_amount"`
	Tax             *float64            `json:"tax"`
	TaxComponents   []TaxComponentInput `json:"tax_components"`
	TipAmount       *float64            `json:"tip_amount"`
	Notes           string              `json:"notes"`
}

// ServiceLines prefers invoiceServices and falls back to the services alias.
func (r CreateInvoiceRequest) ServiceLines() []ServiceLineInput {
	if len(r.InvoiceServices) > 0 {
		return r.InvoiceServices
	}
	return r.Services
}

func (r CreateInvoiceRequest) ProductLines() []ProductLineInput {
	if len(r.InvoiceProducts) > 0 {
		return r.InvoiceProducts
	}
	return r.Products
}

// UpdateInvoiceRequest only carries whitelisted header fields. A nil line or
// component slice leaves the persisted rows untouched; a non-nil one replaces
// them wholesale.
type UpdateInvoiceRequest struct {
	Status          *string              `json:"status"`
	PaymentMethod   *string              `json:"payment_method"`
	DiscountType    *string              `json:"discount_type"`
	DiscountValue   *float64             `json:"discount_value"`
	DiscountAmount  *float64             `json:"discount_amount"`
	Notes           *string              `json:"notes"`
	Services        *[]ServiceLineInput  `json:"services"`
	InvoiceServices *[]ServiceLineInput  `json:"invoiceServices"`
	Products        *[]ProductLineInput  `json:"products"`
	InvoiceProducts *[]ProductLineInput  `json:"invoiceProducts"`
	TaxComponents   *[]TaxComponentInput `json:"tax_components"`
	TipAmount       *float64             `json:"tip_amount"`
}

func (r UpdateInvoiceRequest) ServiceLines() *[]ServiceLineInput {
	if r.InvoiceServices != nil {
		return r.InvoiceServices
	}
	return r.Services
}

func (r UpdateInvoiceRequest) ProductLines() *[]ProductLineInput {
	if r.InvoiceProducts != nil {
		return r.InvoiceProducts
	}
	return r.Products
}

type ListInvoiceRequest struct {
	pagination.Pagination
	Status     string
	CustomerID string
	DateFrom   *time.Time
	DateTo     *time.Time
}

type ListInvoiceResponse struct {
	pagination.PageInfo
	Invoices []InvoiceResponse `json:"invoices"`
}

type ServiceLineResponse struct {
	ID               string  `json:"id"`
	ServiceID        string  `json:"service_id"`
	ServiceName      string  `json:"service_name"`
	StaffID          *string `json:"staff_id"`
	StaffName        string  `json:"staff_name"`
	Price            float64 `json:"price"`
	Quantity         int     `json:"quantity"`
	Total            float64 `json:"total"`
	TipAmount        float64 `json:"tip_amount"`
	CommissionRate   float64 `json:"commission_rate"`
	CommissionAmount float64 `json:"commission_amount"`
}

type ProductLineResponse struct {
	ID               string  `json:"id"`
	ProductID        string  `json:"product_id"`
	ProductName      string  `json:"product_name"`
	StaffID          *string `json:"staff_id"`
	StaffName        string  `json:"staff_name"`
	Price            float64 `json:"price"`
	Quantity         int     `json:"quantity"`
	Total            float64 `json:"total"`
	CommissionRate   float64 `json:"commission_rate"`
	CommissionAmount float64 `json:"commission_amount"`
}

type TaxComponentResponse struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Rate   float64 `json:"rate"`
	Amount float64 `json:"amount"`
}

// InvoiceResponse is the denormalized read model. Services and Products
// mirror InvoiceServices and InvoiceProducts for older clients.
type InvoiceResponse struct {
	ID              string                 `json:"id"`
	CustomerID      string                 `json:"customer_id"`
	CustomerName    string                 `json:"customer_name"`
	Date            time.Time              `json:"date"`
	Subtotal        float64                `json:"subtotal"`
	DiscountType    string                 `json:"discount_type"`
	DiscountValue   float64                `json:"discount_value"`
	DiscountAmount  float64                `json:"discount_amount"`
	TaxableBase     float64                `json:"taxable_base"`
	TaxRate         float64                `json:"tax_rate"`
	TaxAmount       float64                `json:"tax_amount"`
	TaxComponents   []TaxComponentResponse `json:"tax_components"`
	TipAmount       float64                `json:"tip_amount"`
	Total           float64                `json:"total"`
	PaymentMethod   string                 `json:"payment_method"`
	Status          string                 `json:"status"`
	Notes           string                 `json:"notes"`
	StaffName       string                 `json:"staff_name"`
	InvoiceServices []ServiceLineResponse  `json:"invoiceServices"`
	Services        []ServiceLineResponse  `json:"services"`
	InvoiceProducts []ProductLineResponse  `json:"invoiceProducts"`
	Products        []ProductLineResponse  `json:"products"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

type Service interface {
	Create(ctx context.Context, req CreateInvoiceRequest) (*InvoiceResponse, error)
	Update(ctx context.Context, id string, req UpdateInvoiceRequest) (*InvoiceResponse, error)
	List(ctx context.Context, req ListInvoiceRequest) (ListInvoiceResponse, error)
	GetByID(ctx context.Context, id string) (*InvoiceResponse, error)
}
