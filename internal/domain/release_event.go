package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReleaseEvent is the simple-schema record combining vest, sell-to-cover and
// release into one event. Grant allocations live in their own child table
// (not a serialized JSON column) and are loaded in position order.
type ReleaseEvent struct {
	ID               string            `gorm:"column:id;primaryKey" json:"id"`
	GrantAllocations []GrantAllocation `gorm:"foreignKey:ReleaseEventID;constraint:OnDelete:CASCADE" json:"grantAllocations"`

	VestDate       string `gorm:"column:vest_date;not null" json:"vestDate"`
	SettlementDate string `gorm:"column:settlement_date;not null;index" json:"settlementDate"`

	TotalShares  float64 `gorm:"column:total_shares;not null" json:"totalShares"`
	ReleasePrice float64 `gorm:"column:release_price;not null" json:"releasePrice"`

	SharesSoldForTax float64 `gorm:"column:shares_sold_for_tax;not null" json:"sharesSoldForTax"`
	TaxSalePrice     float64 `gorm:"column:tax_sale_price;not null" json:"taxSalePrice"`
	TaxWithheld      float64 `gorm:"column:tax_withheld;not null" json:"taxWithheld"`
	BrokerFee        float64 `gorm:"column:broker_fee;not null;default:0" json:"brokerFee"`
	CashReturned     float64 `gorm:"column:cash_returned;not null;default:0" json:"cashReturned"`

	// Computed at create/update time, never user-supplied.
	SellToCoverGain   float64 `gorm:"column:sell_to_cover_gain;not null" json:"sellToCoverGain"`
	NetSharesReceived float64 `gorm:"column:net_shares_received;not null" json:"netSharesReceived"`

	Notes     string `gorm:"column:notes;not null;default:''" json:"notes"`
	CreatedAt string `gorm:"column:created_at;not null" json:"createdAt"`
}

func (ReleaseEvent) TableName() string {
	return "release_events"
}

func (r *ReleaseEvent) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt == "" {
		r.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	return nil
}

// GrantAllocation records how many shares a release event drew from one
// grant. Position preserves the order the caller supplied.
type GrantAllocation struct {
	RowID          uint    `gorm:"column:row_id;primaryKey;autoIncrement" json:"-"`
	ReleaseEventID string  `gorm:"column:release_event_id;not null;index" json:"-"`
	Position       int     `gorm:"column:position;not null" json:"-"`
	GrantID        string  `gorm:"column:grant_id;not null;index" json:"grantId"`
	Shares         float64 `gorm:"column:shares;not null" json:"shares"`
}

func (GrantAllocation) TableName() string {
	return "grant_allocations"
}
