package releaseevents

import (
	"context"
	"math"

	"gorm.io/gorm"

	"rsutrack-backend/internal/application/fifo"
	"rsutrack-backend/internal/domain"
)

// shareTolerance absorbs rounding in UI-entered decimal values. It is an
// absolute tolerance, not a numeric-stability guarantee.
const shareTolerance = 0.01

type Service struct {
	DB *gorm.DB
}

// CreateRequest is the full payload for a new release event. The
// sell-to-cover gain and id are computed server-side and ignored if sent.
type CreateRequest struct {
	GrantAllocations  []fifo.Allocation `json:"grantAllocations"`
	VestDate          string            `json:"vestDate"`
	SettlementDate    string            `json:"settlementDate"`
	TotalShares       float64           `json:"totalShares"`
	ReleasePrice      float64           `json:"releasePrice"`
	SharesSoldForTax  float64           `json:"sharesSoldForTax"`
	TaxSalePrice      float64           `json:"taxSalePrice"`
	TaxWithheld       float64           `json:"taxWithheld"`
	BrokerFee         float64           `json:"brokerFee"`
	CashReturned      float64           `json:"cashReturned"`
	NetSharesReceived float64           `json:"netSharesReceived"`
	Notes             string            `json:"notes"`
}

// UpdateRequest is the partial-update payload; nil fields are untouched.
type UpdateRequest struct {
	GrantAllocations  []fifo.Allocation `json:"grantAllocations"`
	VestDate          *string           `json:"vestDate"`
	SettlementDate    *string           `json:"settlementDate"`
	TotalShares       *float64          `json:"totalShares"`
	ReleasePrice      *float64          `json:"releasePrice"`
	SharesSoldForTax  *float64          `json:"sharesSoldForTax"`
	TaxSalePrice      *float64          `json:"taxSalePrice"`
	TaxWithheld       *float64          `json:"taxWithheld"`
	BrokerFee         *float64          `json:"brokerFee"`
	CashReturned      *float64          `json:"cashReturned"`
	NetSharesReceived *float64          `json:"netSharesReceived"`
	Notes             *string           `json:"notes"`
}

// Suggestion is the result of a prospective FIFO allocation run.
// Availability is the per-grant snapshot before the suggested consumption;
// Shortfall is non-zero when the pools could not cover the request.
type Suggestion struct {
	Allocations  []fifo.Allocation `json:"allocations"`
	Availability []fifo.GrantPool  `json:"grantAvailability"`
	Shortfall    float64           `json:"-"`
}

func (s *Service) List(ctx context.Context) ([]domain.ReleaseEvent, error) {
	var events []domain.ReleaseEvent
	err := s.DB.WithContext(ctx).
		Preload("GrantAllocations", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("settlement_date ASC, created_at ASC, id ASC").
		Find(&events).Error
	return events, err
}

func (s *Service) Get(ctx context.Context, id string) (*domain.ReleaseEvent, error) {
	var event domain.ReleaseEvent
	err := s.DB.WithContext(ctx).
		Preload("GrantAllocations", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&event, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*domain.ReleaseEvent, error) {
	if req.SharesSoldForTax <= 0 {
		return nil, validationErrorf("sharesSoldForTax must be > 0")
	}
	expectedNet := req.TotalShares - req.SharesSoldForTax
	if math.Abs(expectedNet-req.NetSharesReceived) > shareTolerance {
		return nil, validationErrorf("Share balance mismatch")
	}
	if len(req.GrantAllocations) == 0 {
		return nil, validationErrorf("grantAllocations is required and must not be empty")
	}
	if err := s.ValidateAllocations(ctx, req.GrantAllocations, req.TotalShares, ""); err != nil {
		return nil, err
	}

	event := domain.ReleaseEvent{
		VestDate:          req.VestDate,
		SettlementDate:    req.SettlementDate,
		TotalShares:       req.TotalShares,
		ReleasePrice:      req.ReleasePrice,
		SharesSoldForTax:  req.SharesSoldForTax,
		TaxSalePrice:      req.TaxSalePrice,
		TaxWithheld:       req.TaxWithheld,
		BrokerFee:         req.BrokerFee,
		CashReturned:      req.CashReturned,
		SellToCoverGain:   sellToCoverGain(req.TaxSalePrice, req.ReleasePrice, req.SharesSoldForTax, req.BrokerFee),
		NetSharesReceived: req.NetSharesReceived,
		Notes:             req.Notes,
	}
	for i, a := range req.GrantAllocations {
		event.GrantAllocations = append(event.GrantAllocations, domain.GrantAllocation{
			Position: i,
			GrantID:  a.GrantID,
			Shares:   a.Shares,
		})
	}

	if err := s.DB.WithContext(ctx).Create(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*domain.ReleaseEvent, error) {
	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.GrantAllocations != nil && req.TotalShares != nil {
		if err := s.ValidateAllocations(ctx, req.GrantAllocations, *req.TotalShares, id); err != nil {
			return nil, err
		}
	}

	if req.VestDate != nil {
		event.VestDate = *req.VestDate
	}
	if req.SettlementDate != nil {
		event.SettlementDate = *req.SettlementDate
	}
	if req.TotalShares != nil {
		event.TotalShares = *req.TotalShares
	}
	if req.ReleasePrice != nil {
		event.ReleasePrice = *req.ReleasePrice
	}
	if req.SharesSoldForTax != nil {
		event.SharesSoldForTax = *req.SharesSoldForTax
	}
	if req.TaxSalePrice != nil {
		event.TaxSalePrice = *req.TaxSalePrice
	}
	if req.TaxWithheld != nil {
		event.TaxWithheld = *req.TaxWithheld
	}
	if req.BrokerFee != nil {
		event.BrokerFee = *req.BrokerFee
	}
	if req.CashReturned != nil {
		event.CashReturned = *req.CashReturned
	}
	if req.NetSharesReceived != nil {
		event.NetSharesReceived = *req.NetSharesReceived
	}
	if req.Notes != nil {
		event.Notes = *req.Notes
	}
	if req.TaxSalePrice != nil || req.ReleasePrice != nil || req.SharesSoldForTax != nil || req.BrokerFee != nil {
		event.SellToCoverGain = sellToCoverGain(event.TaxSalePrice, event.ReleasePrice, event.SharesSoldForTax, event.BrokerFee)
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.GrantAllocations != nil {
			if err := tx.Where("release_event_id = ?", id).Delete(&domain.GrantAllocation{}).Error; err != nil {
				return err
			}
			rows := make([]domain.GrantAllocation, 0, len(req.GrantAllocations))
			for i, a := range req.GrantAllocations {
				rows = append(rows, domain.GrantAllocation{
					ReleaseEventID: id,
					Position:       i,
					GrantID:        a.GrantID,
					Shares:         a.Shares,
				})
			}
			if len(rows) > 0 {
				if err := tx.Create(&rows).Error; err != nil {
					return err
				}
			}
		}
		return tx.Omit("GrantAllocations").Save(&domain.ReleaseEvent{
			ID:                event.ID,
			VestDate:          event.VestDate,
			SettlementDate:    event.SettlementDate,
			TotalShares:       event.TotalShares,
			ReleasePrice:      event.ReleasePrice,
			SharesSoldForTax:  event.SharesSoldForTax,
			TaxSalePrice:      event.TaxSalePrice,
			TaxWithheld:       event.TaxWithheld,
			BrokerFee:         event.BrokerFee,
			CashReturned:      event.CashReturned,
			SellToCoverGain:   event.SellToCoverGain,
			NetSharesReceived: event.NetSharesReceived,
			Notes:             event.Notes,
			CreatedAt:         event.CreatedAt,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("release_event_id = ?", id).Delete(&domain.GrantAllocation{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.ReleaseEvent{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// ValidateAllocations checks a proposed allocation list against the
// claimed total and against per-grant availability after replaying every
// other release event's consumption. excludeID skips the event being
// edited so its own prior consumption is not double-counted.
func (s *Service) ValidateAllocations(ctx context.Context, allocations []fifo.Allocation, totalShares float64, excludeID string) error {
	allocatedTotal := 0.0
	for _, a := range allocations {
		allocatedTotal += a.Shares
	}
	if math.Abs(allocatedTotal-totalShares) > shareTolerance {
		return validationErrorf("Grant allocations sum to %v but totalShares is %v", allocatedTotal, totalShares)
	}

	pools, err := s.availability(ctx, excludeID)
	if err != nil {
		return err
	}
	byGrant := make(map[string]*fifo.GrantPool, len(pools))
	for i := range pools {
		byGrant[pools[i].GrantID] = &pools[i]
	}

	for _, alloc := range allocations {
		pool, ok := byGrant[alloc.GrantID]
		if !ok {
			return validationErrorf("Grant %s not found", alloc.GrantID)
		}
		if alloc.Shares <= 0 {
			return validationErrorf("Grant allocation shares must be positive, got %v", alloc.Shares)
		}
		if alloc.Shares > pool.RemainingShares {
			return validationErrorf("Insufficient shares in grant %q. Requested %v, available %v",
				pool.GrantName, alloc.Shares, pool.RemainingShares)
		}
	}
	return nil
}

// Suggest runs the same FIFO consumption prospectively: replay history,
// snapshot availability, then allocate the requested total oldest grant
// first. The partial allocation is returned alongside the shortfall.
func (s *Service) Suggest(ctx context.Context, totalShares float64) (*Suggestion, error) {
	pools, err := s.availability(ctx, "")
	if err != nil {
		return nil, err
	}

	availability := make([]fifo.GrantPool, len(pools))
	copy(availability, pools)

	allocations, shortfall := fifo.Consume(pools, totalShares)
	return &Suggestion{
		Allocations:  allocations,
		Availability: availability,
		Shortfall:    shortfall,
	}, nil
}

// availability builds grant pools and replays every persisted release
// event (minus excludeID) against them.
func (s *Service) availability(ctx context.Context, excludeID string) ([]fifo.GrantPool, error) {
	var grants []domain.Grant
	if err := s.DB.WithContext(ctx).Find(&grants).Error; err != nil {
		return nil, err
	}
	pools := fifo.BuildPools(grants)

	var rows []domain.GrantAllocation
	q := s.DB.WithContext(ctx)
	if excludeID != "" {
		q = q.Where("release_event_id <> ?", excludeID)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	history := make([]fifo.Allocation, 0, len(rows))
	for _, r := range rows {
		history = append(history, fifo.Allocation{GrantID: r.GrantID, Shares: r.Shares})
	}
	fifo.Apply(pools, history)
	return pools, nil
}

func sellToCoverGain(taxSalePrice, releasePrice, sharesSoldForTax, brokerFee float64) float64 {
	return (taxSalePrice-releasePrice)*sharesSoldForTax - brokerFee
}
