package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Vest is the detailed-schema vesting event. Unit price may be unknown
// until settlement, hence the pointer. Each vest owns at most one
// SellForTax, TaxCashReturn and Release, removed together with the vest.
type Vest struct {
	ID          string   `gorm:"column:id;primaryKey" json:"id"`
	Date        string   `gorm:"column:date;not null;index" json:"date"`
	ShareAmount float64  `gorm:"column:share_amount;not null" json:"shareAmount"`
	UnitPrice   *float64 `gorm:"column:unit_price" json:"unitPrice"`
	IsCliff     bool     `gorm:"column:is_cliff;not null;default:false" json:"isCliff"`
	Notes       string   `gorm:"column:notes;not null;default:''" json:"notes"`
	CreatedAt   string   `gorm:"column:created_at;not null" json:"createdAt"`

	SellForTax    *SellForTax    `gorm:"foreignKey:VestID;constraint:OnDelete:CASCADE" json:"sellForTax"`
	TaxCashReturn *TaxCashReturn `gorm:"foreignKey:VestID;constraint:OnDelete:CASCADE" json:"taxCashReturn"`
	Release       *Release       `gorm:"foreignKey:VestID;constraint:OnDelete:CASCADE" json:"release"`
}

func (Vest) TableName() string {
	return "vests"
}

func (v *Vest) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.CreatedAt == "" {
		v.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	return nil
}

// SellForTax records shares sold by the employer at settlement to cover
// withholding tax for one vest.
type SellForTax struct {
	ID          string  `gorm:"column:id;primaryKey" json:"id"`
	VestID      string  `gorm:"column:vest_id;not null;uniqueIndex" json:"vestId"`
	Date        string  `gorm:"column:date;not null" json:"date"`
	ShareAmount float64 `gorm:"column:share_amount;not null" json:"shareAmount"`
	UnitPrice   float64 `gorm:"column:unit_price;not null" json:"unitPrice"`
	Fee         float64 `gorm:"column:fee;not null;default:0" json:"fee"`
	Notes       string  `gorm:"column:notes;not null;default:''" json:"notes"`
	CreatedAt   string  `gorm:"column:created_at;not null" json:"createdAt"`
}

func (SellForTax) TableName() string {
	return "sell_for_tax"
}

func (s *SellForTax) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt == "" {
		s.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	return nil
}

// TaxCashReturn records cash refunded by the employer after
// over-withholding on one vest.
type TaxCashReturn struct {
	ID        string  `gorm:"column:id;primaryKey" json:"id"`
	VestID    string  `gorm:"column:vest_id;not null;uniqueIndex" json:"vestId"`
	Date      string  `gorm:"column:date;not null" json:"date"`
	Amount    float64 `gorm:"column:amount;not null" json:"amount"`
	Notes     string  `gorm:"column:notes;not null;default:''" json:"notes"`
	CreatedAt string  `gorm:"column:created_at;not null" json:"createdAt"`
}

func (TaxCashReturn) TableName() string {
	return "tax_cash_returns"
}

func (t *TaxCashReturn) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt == "" {
		t.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	return nil
}

// Release records the shares actually deposited to the holder's account
// from one vest; its unit price establishes the lot's cost basis.
type Release struct {
	ID          string  `gorm:"column:id;primaryKey" json:"id"`
	VestID      string  `gorm:"column:vest_id;not null;uniqueIndex" json:"vestId"`
	Date        string  `gorm:"column:date;not null;index" json:"date"`
	ShareAmount float64 `gorm:"column:share_amount;not null" json:"shareAmount"`
	UnitPrice   float64 `gorm:"column:unit_price;not null" json:"unitPrice"`
	Notes       string  `gorm:"column:notes;not null;default:''" json:"notes"`
	CreatedAt   string  `gorm:"column:created_at;not null" json:"createdAt"`
}

func (Release) TableName() string {
	return "releases"
}

func (r *Release) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt == "" {
		r.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	return nil
}
