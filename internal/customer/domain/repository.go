package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/barberdesk/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, customer *Customer) error
	UpdateContact(ctx context.Context, db *gorm.DB, customer *Customer) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Customer, error)
	FindByPhone(ctx context.Context, db *gorm.DB, phone string) (*Customer, error)
	List(ctx context.Context, db *gorm.DB, filter ListCustomerFilter, page pagination.Pagination) ([]*Customer, error)
	RecordVisit(ctx context.Context, db *gorm.DB, id snowflake.ID, amount float64, visitAt time.Time) error
	AdjustSpent(ctx context.Context, db *gorm.DB, id snowflake.ID, delta float64) error
}
