package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Staff struct {
	ID                   snowflake.ID `gorm:"primaryKey" json:"id"`
	Name                 string       `gorm:"not null" json:"name"`
	Phone                string       `json:"phone,omitempty"`
	Email                string       `json:"email,omitempty"`
	CommissionPercentage float64      `gorm:"not null;default:0" json:"commission_percentage"`
	Role                 string       `gorm:"not null;default:cashier" json:"role"`
	PINHash              string       `gorm:"column:pin_hash" json:"-"`
	Active               bool         `gorm:"not null;default:true" json:"active"`
	CreatedAt            time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt            time.Time    `gorm:"not null" json:"updated_at"`
}

func (Staff) TableName() string { return "staff" }
