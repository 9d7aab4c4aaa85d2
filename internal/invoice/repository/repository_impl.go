package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/barberdesk/internal/invoice/domain"
	"github.com/smallbiznis/barberdesk/pkg/db"
	"github.com/smallbiznis/barberdesk/pkg/db/option"
	"github.com/smallbiznis/barberdesk/pkg/db/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, inv *domain.Invoice) error {
	return conn.WithContext(ctx).Exec(
		`INSERT INTO invoices (
			id, customer_id, customer_name, date, subtotal, discount_type, discount_value,
			discount_amount, tax_rate, tax_amount, total, payment_method, status, notes,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID,
		inv.CustomerID,
		inv.CustomerName,
		inv.Date,
		inv.Subtotal,
		inv.DiscountType,
		inv.DiscountValue,
		inv.DiscountAmount,
		inv.TaxRate,
		inv.TaxAmount,
		inv.Total,
		inv.PaymentMethod,
		inv.Status,
		inv.Notes,
		inv.CreatedAt,
		inv.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id string, forUpdate bool) (*domain.Invoice, error) {
	var inv domain.Invoice
	stmt := conn.WithContext(ctx).Model(&domain.Invoice{}).Where("id = ?", id)
	if forUpdate && !db.IsSQLite(conn) {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := stmt.Limit(1).Scan(&inv).Error; err != nil {
		return nil, err
	}
	if inv.ID == "" {
		return nil, nil
	}
	return &inv, nil
}

func (r *repo) Save(ctx context.Context, conn *gorm.DB, inv *domain.Invoice) error {
	return conn.WithContext(ctx).Exec(
		`UPDATE invoices SET
			customer_name = ?, subtotal = ?, discount_type = ?, discount_value = ?,
			discount_amount = ?, tax_rate = ?, tax_amount = ?, total = ?,
			payment_method = ?, status = ?, notes = ?, updated_at = ?
		 WHERE id = ?`,
		inv.CustomerName,
		inv.Subtotal,
		inv.DiscountType,
		inv.DiscountValue,
		inv.DiscountAmount,
		inv.TaxRate,
		inv.TaxAmount,
		inv.Total,
		inv.PaymentMethod,
		inv.Status,
		inv.Notes,
		inv.UpdatedAt,
		inv.ID,
	).Error
}

func (r *repo) List(ctx context.Context, conn *gorm.DB, filter domain.ListFilter, page pagination.Pagination) ([]*domain.Invoice, error) {
	var items []*domain.Invoice
	stmt := conn.WithContext(ctx).Model(&domain.Invoice{})

	conditions := []option.Condition{}
	if filter.Status != "" {
		conditions = append(conditions, option.Condition{Field: "status", Operator: option.EQ, Value: filter.Status})
	}
	if filter.CustomerID != 0 {
		conditions = append(conditions, option.Condition{Field: "customer_id", Operator: option.EQ, Value: filter.CustomerID})
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, option.Condition{Field: "date", Operator: option.GTE, Value: filter.DateFrom.UTC()})
	}
	if filter.DateTo != nil {
		conditions = append(conditions, option.Condition{Field: "date", Operator: option.LTE, Value: filter.DateTo.UTC()})
	}
	for _, cond := range conditions {
		stmt = option.ApplyOperator(cond).Apply(stmt)
	}

	stmt = option.ApplyPagination(page).Apply(stmt)
	stmt = option.WithSortBy(option.QuerySortBy{}).Apply(stmt)
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ServiceLines(ctx context.Context, conn *gorm.DB, invoiceIDs ...string) ([]*domain.InvoiceServiceLine, error) {
	var lines []*domain.InvoiceServiceLine
	if len(invoiceIDs) == 0 {
		return lines, nil
	}
	err := conn.WithContext(ctx).
		Where("invoice_id IN ?", invoiceIDs).
		Order("position asc, id asc").
		Find(&lines).Error
	return lines, err
}

func (r *repo) ProductLines(ctx context.Context, conn *gorm.DB, invoiceIDs ...string) ([]*domain.InvoiceProductLine, error) {
	var lines []*domain.InvoiceProductLine
	if len(invoiceIDs) == 0 {
		return lines, nil
	}
	err := conn.WithContext(ctx).
		Where("invoice_id IN ?", invoiceIDs).
		Order("position asc, id asc").
		Find(&lines).Error
	return lines, err
}

func (r *repo) TaxComponents(ctx context.Context, conn *gorm.DB, invoiceIDs ...string) ([]*domain.TaxComponent, error) {
	var comps []*domain.TaxComponent
	if len(invoiceIDs) == 0 {
		return comps, nil
	}
	err := conn.WithContext(ctx).
		Where("invoice_id IN ?", invoiceIDs).
		Order("position asc, id asc").
		Find(&comps).Error
	return comps, err
}

func (r *repo) UpdateLineTip(ctx context.Context, conn *gorm.DB, lineID snowflake.ID, tip float64) error {
	return conn.WithContext(ctx).Exec(
		`UPDATE invoice_services SET tip_amount = ? WHERE id = ?`,
		tip,
		lineID,
	).Error
}
