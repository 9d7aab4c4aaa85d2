package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/barberdesk/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListFilter struct {
	Status     string
	CustomerID snowflake.ID
	DateFrom   *time.Time
	DateTo     *time.Time
}

// Repository owns the invoice header. Line rows go through the generic store.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	// FindByID locks the row when forUpdate is set and the dialect supports it.
	FindByID(ctx context.Context, db *gorm.DB, id string, forUpdate bool) (*Invoice, error)
	Save(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter, page pagination.Pagination) ([]*Invoice, error)

	ServiceLines(ctx context.Context, db *gorm.DB, invoiceIDs ...string) ([]*InvoiceServiceLine, error)
	ProductLines(ctx context.Context, db *gorm.DB, invoiceIDs ...string) ([]*InvoiceProductLine, error)
	TaxComponents(ctx context.Context, db *gorm.DB, invoiceIDs ...string) ([]*TaxComponent, error)
	UpdateLineTip(ctx context.Context, db *gorm.DB, lineID snowflake.ID, tip float64) error
}
