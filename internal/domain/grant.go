package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Grant is an award of a fixed share count at a fixed promised price on a
// fixed date. Dates are ISO yyyy-mm-dd strings so lexicographic order is
// chronological order.
type Grant struct {
	ID          string  `gorm:"column:id;primaryKey" json:"id"`
	Name        string  `gorm:"column:name;uniqueIndex;not null" json:"name"`
	Date        string  `gorm:"column:date;not null" json:"date"`
	ShareAmount float64 `gorm:"column:share_amount;not null" json:"shareAmount"`
	UnitPrice   float64 `gorm:"column:unit_price;not null" json:"unitPrice"`
	Notes       string  `gorm:"column:notes;not null;default:''" json:"notes"`
	CreatedAt   string  `gorm:"column:created_at;not null" json:"createdAt"`
}

func (Grant) TableName() string {
	return "grants"
}

func (g *Grant) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.CreatedAt == "" {
		g.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	return nil
}
