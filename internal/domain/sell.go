package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Sell is a voluntary disposal. It is not linked to any lot at creation
// time; lot attribution is computed on read by the FIFO engine.
type Sell struct {
	ID          string  `gorm:"column:id;primaryKey" json:"id"`
	Date        string  `gorm:"column:date;not null;index" json:"date"`
	ShareAmount float64 `gorm:"column:share_amount;not null" json:"shareAmount"`
	UnitPrice   float64 `gorm:"column:unit_price;not null" json:"unitPrice"`
	Fee         float64 `gorm:"column:fee;not null;default:0" json:"fee"`
	Notes       string  `gorm:"column:notes;not null;default:''" json:"notes"`
	CreatedAt   string  `gorm:"column:created_at;not null" json:"createdAt"`
}

func (Sell) TableName() string {
	return "sells"
}

func (s *Sell) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt == "" {
		s.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	return nil
}
