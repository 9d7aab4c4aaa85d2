package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Product struct {
	ID             snowflake.ID `json:"id" gorm:"primaryKey"`
	SKU            string       `json:"sku" gorm:"type:text;not null;uniqueIndex"`
	Name           string       `json:"name" gorm:"type:text;not null"`
	Description    *string      `json:"description,omitempty" gorm:"type:text"`
	Price          float64      `json:"price" gorm:"not null;default:0"`
	Stock          int          `json:"stock" gorm:"not null;default:0"`
	CommissionRate float64      `json:"commission_rate" gorm:"not null;default:0"`
	Active         bool         `json:"active" gorm:"not null;default:true"`
	CreatedAt      time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt      time.Time    `json:"updated_at" gorm:"not null"`
}

func (Product) TableName() string { return "products" }
