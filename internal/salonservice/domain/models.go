package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// SalonService is a bookable treatment such as a haircut or shave.
type SalonService struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	Code            string       `gorm:"not null;uniqueIndex" json:"code"`
	Name            string       `gorm:"not null" json:"name"`
	Description     string       `json:"description,omitempty"`
	Price           float64      `gorm:"not null;default:0" json:"price"`
	DurationMinutes int          `gorm:"not null;default:0" json:"duration_minutes"`
	CommissionRate  float64      `gorm:"not null;default:0" json:"commission_rate"`
	IsTipEligible   bool         `gorm:"not null;default:true" json:"is_tip_eligible"`
	Active          bool         `gorm:"not null;default:true" json:"active"`
	CreatedAt       time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time    `gorm:"not null" json:"updated_at"`
}

func (SalonService) TableName() string { return "services" }
