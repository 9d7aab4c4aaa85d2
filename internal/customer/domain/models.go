package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Customer struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	Name       string       `gorm:"not null" json:"name"`
	Phone      string       `gorm:"not null;uniqueIndex" json:"phone"`
	Email      string       `json:"email,omitempty"`
	TotalSpent float64      `gorm:"not null;default:0" json:"total_spent"`
	VisitCount int          `gorm:"not null;default:0" json:"visit_count"`
	LastVisit  *time.Time   `json:"last_visit,omitempty"`
	CreatedAt  time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"not null" json:"updated_at"`
}

func (Customer) TableName() string { return "customers" }
