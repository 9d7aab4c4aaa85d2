// Package domain contains persistence models for invoicing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// InvoiceStatus represents invoice lifecycle states. Invoices are never
// deleted; cancellation is a status.
type InvoiceStatus string

const (
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusPaid, InvoiceStatusPending, InvoiceStatusCancelled:
		return true
	}
	return false
}

// Invoice is the header row. Every amount is server computed.
type Invoice struct {
	ID             string        `gorm:"primaryKey;type:varchar(32)"`
	CustomerID     snowflake.ID  `gorm:"not null;index"`
	CustomerName   string        `gorm:"type:text;not null"`
	Date           time.Time     `gorm:"not null;index"`
	Subtotal       float64       `gorm:"not null;default:0"`
	DiscountType   string        `gorm:"type:varchar(16);not null;default:''"`
	DiscountValue  float64       `gorm:"not null;default:0"`
	DiscountAmount float64       `gorm:"not null;default:0"`
	TaxRate        float64       `gorm:"not null;default:0"`
	TaxAmount      float64       `gorm:"not null;default:0"`
	Total          float64       `gorm:"not null;default:0"`
	PaymentMethod  string        `gorm:"type:varchar(32);not null"`
	Status         InvoiceStatus `gorm:"type:varchar(16);not null;index"`
	Notes          string        `gorm:"type:text"`
	CreatedAt      time.Time     `gorm:"not null;index"`
	UpdatedAt      time.Time     `gorm:"not null"`
}

func (Invoice) TableName() string { return "invoices" }

// InvoiceServiceLine is a performed salon service.
type InvoiceServiceLine struct {
	ID               snowflake.ID  `gorm:"primaryKey"`
	InvoiceID        string        `gorm:"type:varchar(32);not null;index"`
	Position         int           `gorm:"not null;default:0"`
	ServiceID        snowflake.ID  `gorm:"not null;index"`
	ServiceName      string        `gorm:"type:text;not null"`
	StaffID          *snowflake.ID `gorm:"index"`
	StaffName        string        `gorm:"type:text"`
	Price            float64       `gorm:"not null"`
	Quantity         int           `gorm:"not null"`
	Total            float64       `gorm:"not null"`
	TipAmount        float64       `gorm:"not null;default:0"`
	CommissionRate   float64       `gorm:"not null;default:0"`
	CommissionAmount float64       `gorm:"not null;default:0"`
	CreatedAt        time.Time     `gorm:"not null"`
}

func (InvoiceServiceLine) TableName() string { return "invoice_services" }

// InvoiceProductLine is a retail product sold on the invoice. Product lines
// never carry tips.
type InvoiceProductLine struct {
	ID               snowflake.ID  `gorm:"primaryKey"`
	InvoiceID        string        `gorm:"type:varchar(32);not null;index"`
	Position         int           `gorm:"not null;default:0"`
	ProductID        snowflake.ID  `gorm:"not null;index"`
	ProductName      string        `gorm:"type:text;not null"`
	StaffID          *snowflake.ID `gorm:"index"`
	StaffName        string        `gorm:"type:text"`
	Price            float64       `gorm:"not null"`
	Quantity         int           `gorm:"not null"`
	Total            float64       `gorm:"not null"`
	CommissionRate   float64       `gorm:"not null;default:0"`
	CommissionAmount float64       `gorm:"not null;default:0"`
	CreatedAt        time.Time     `gorm:"not null"`
}

func (InvoiceProductLine) TableName() string { return "invoice_products" }

// TaxComponent is one itemized tax. Rate is sticky across updates; Amount
// follows the taxable base.
type TaxComponent struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	InvoiceID string       `gorm:"type:varchar(32);not null;index"`
	Position  int          `gorm:"not null;default:0"`
	Name      string       `gorm:"type:text;not null"`
	Rate      float64      `gorm:"not null;default:0"`
	Amount    float64      `gorm:"not null;default:0"`
	CreatedAt time.Time    `gorm:"not null"`
}

func (TaxComponent) TableName() string { return "tax_components" }
