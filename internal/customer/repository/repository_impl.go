package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/barberdesk/internal/customer/domain"
	"github.com/smallbiznis/barberdesk/pkg/db/option"
	"github.com/smallbiznis/barberdesk/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return repo{}
}

func (repo) Insert(ctx context.Context, db *gorm.DB, customer *domain.Customer) error {
	return db.WithContext(ctx).Create(customer).Error
}

func (repo) UpdateContact(ctx context.Context, db *gorm.DB, customer *domain.Customer) error {
	return db.WithContext(ctx).
		Model(&domain.Customer{}).
		Where("id = ?", customer.ID).
		Updates(map[string]any{
			"name":       customer.Name,
			"phone":      customer.Phone,
			"email":      customer.Email,
			"updated_at": customer.UpdatedAt,
		}).Error
}

func (r repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Customer, error) {
	return r.first(ctx, db, "id = ?", id)
}

func (r repo) FindByPhone(ctx context.Context, db *gorm.DB, phone string) (*domain.Customer, error) {
	return r.first(ctx, db, "phone = ?", phone)
}

// first returns nil, nil when nothing matches.
func (repo) first(ctx context.Context, db *gorm.DB, where string, arg any) (*domain.Customer, error) {
	var rows []domain.Customer
	if err := db.WithContext(ctx).Where(where, arg).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (repo) List(ctx context.Context, db *gorm.DB, filter domain.ListCustomerFilter, page pagination.Pagination) ([]*domain.Customer, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.Customer{}).
		Scopes(
			nameContains(filter.Name),
			phoneIs(filter.Phone),
			spentAtLeast(filter.MinTotalSpent),
			createdWithin(filter.CreatedFrom, filter.CreatedTo),
		)
	stmt = option.ApplyPagination(page).Apply(stmt)

	var customers []*domain.Customer
	if err := stmt.Order("created_at desc, id desc").Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

func (repo) RecordVisit(ctx context.Context, db *gorm.DB, id snowflake.ID, amount float64, visitAt time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.Customer{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"total_spent": gorm.Expr("total_spent + ?", amount),
			"visit_count": gorm.Expr("visit_count + 1"),
			"last_visit":  visitAt,
			"updated_at":  time.Now().UTC(),
		}).Error
}

func (repo) AdjustSpent(ctx context.Context, db *gorm.DB, id snowflake.ID, delta float64) error {
	if delta == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Model(&domain.Customer{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"total_spent": gorm.Expr("total_spent + ?", delta),
			"updated_at":  time.Now().UTC(),
		}).Error
}

// nameContains expects an already lowercased needle.
func nameContains(needle string) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if needle == "" {
			return tx
		}
		return tx.Where("LOWER(name) LIKE ?", "%"+needle+"%")
	}
}

func phoneIs(phone string) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if phone == "" {
			return tx
		}
		return tx.Where("phone = ?", phone)
	}
}

func spentAtLeast(floor *float64) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if floor == nil {
			return tx
		}
		return option.ApplyOperator(option.Condition{
			Field:    "total_spent",
			Operator: option.GTE,
			Value:    *floor,
		}).Apply(tx)
	}
}

func createdWithin(from, to *time.Time) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if from != nil {
			tx = tx.Where("created_at >= ?", *from)
		}
		if to != nil {
			tx = tx.Where("created_at <= ?", *to)
		}
		return tx
	}
}
