package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/barberdesk/internal/product/domain"
	"github.com/smallbiznis/barberdesk/pkg/db/option"
	"github.com/smallbiznis/barberdesk/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const productColumns = `id, sku, name, description, price, stock, commission_rate, active, created_at, updated_at`

func (r *repo) Create(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO products (`+productColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		product.ID,
		product.SKU,
		product.Name,
		product.Description,
		product.Price,
		product.Stock,
		product.CommissionRate,
		product.Active,
		product.CreatedAt,
		product.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Product, error) {
	var p domain.Product
	err := db.WithContext(ctx).Raw(
		`SELECT `+productColumns+` FROM products WHERE id = ?`,
		id,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) FindBySKU(ctx context.Context, db *gorm.DB, sku string) (*domain.Product, error) {
	var p domain.Product
	err := db.WithContext(ctx).Raw(
		`SELECT `+productColumns+` FROM products WHERE sku = ?`,
		sku,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListRequest, page pagination.Pagination) ([]*domain.Product, error) {
	var items []*domain.Product
	stmt := db.WithContext(ctx).Model(&domain.Product{})

	if filter.Name != "" {
		stmt = stmt.Where("LOWER(name) LIKE ?", "%"+filter.Name+"%")
	}
	if filter.Active != nil {
		stmt = stmt.Where("active = ?", *filter.Active)
	}
	if filter.LowStock != nil {
		stmt = option.ApplyOperator(option.Condition{Field: "stock", Operator: option.LTE, Value: *filter.LowStock}).Apply(stmt)
	}

	stmt = option.ApplyPagination(page).Apply(stmt)
	stmt = option.WithSortBy(option.QuerySortBy{}).Apply(stmt)
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) DecrementStock(ctx context.Context, db *gorm.DB, id snowflake.ID, quantity int) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE products SET stock = stock - ?, updated_at = ? WHERE id = ? AND stock >= ?`,
		quantity,
		time.Now().UTC(),
		id,
		quantity,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repo) RestoreStock(ctx context.Context, db *gorm.DB, id snowflake.ID, quantity int) error {
	return db.WithContext(ctx).Exec(
		`UPDATE products SET stock = stock + ?, updated_at = ? WHERE id = ?`,
		quantity,
		time.Now().UTC(),
		id,
	).Error
}
