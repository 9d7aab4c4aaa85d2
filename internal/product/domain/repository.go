package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/barberdesk/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, product *Product) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Product, error)
	FindBySKU(ctx context.Context, db *gorm.DB, sku string) (*Product, error)
	List(ctx context.Context, db *gorm.DB, filter ListRequest, page pagination.Pagination) ([]*Product, error)

	// DecrementStock removes quantity only when enough stock remains and
	// reports whether a row was updated.
	DecrementStock(ctx context.Context, db *gorm.DB, id snowflake.ID, quantity int) (bool, error)
	RestoreStock(ctx context.Context, db *gorm.DB, id snowflake.ID, quantity int) error
}
