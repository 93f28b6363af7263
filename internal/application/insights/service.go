// Package insights derives portfolio-level reporting from full snapshot
// reads of the persisted records. Every method is a pure reduction over
// freshly loaded data; nothing here mutates persisted state.
package insights

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"rsutrack-backend/internal/application/fifo"
	"rsutrack-backend/internal/config"
	"rsutrack-backend/internal/domain"
)

type Service struct {
	DB   *gorm.DB
	Mode string
}

type PortfolioOverview struct {
	TotalGranted    float64  `json:"totalGranted"`
	TotalVested     float64  `json:"totalVested"`
	TotalSoldForTax float64  `json:"totalSoldForTax"`
	TotalReleased   float64  `json:"totalReleased"`
	TotalSold       float64  `json:"totalSold"`
	CurrentlyHeld   float64  `json:"currentlyHeld"`
	TotalFeesPaid   float64  `json:"totalFeesPaid"`
	UnrealizedValue float64  `json:"unrealizedValue"`
	LatestPrice     *float64 `json:"latestPrice"`
}

// TaxWithholdingSummary is the per-release-event view (simple schema).
type TaxWithholdingSummary struct {
	ReleaseEventID   string  `json:"releaseEventId"`
	SettlementDate   string  `json:"settlementDate"`
	VestDate         string  `json:"vestDate"`
	TotalShares      float64 `json:"totalShares"`
	ReleasePrice     float64 `json:"releasePrice"`
	SharesSoldForTax float64 `json:"sharesSoldForTax"`
	TaxSalePrice     float64 `json:"taxSalePrice"`
	TaxWithheld      float64 `json:"taxWithheld"`
	BrokerFee        float64 `json:"brokerFee"`
	CashReturned     float64 `json:"cashReturned"`
	SellToCoverGain  float64 `json:"sellToCoverGain"`
	EffectiveTaxRate float64 `json:"effectiveTaxRate"`
}

// VestWithholdingSummary is the per-vest view (detailed schema); net tax
// paid is the tax-sale proceeds minus any cash the employer returned.
type VestWithholdingSummary struct {
	VestID           string  `json:"vestId"`
	Date             string  `json:"date"`
	TotalShares      float64 `json:"totalShares"`
	PricePerShare    float64 `json:"pricePerShare"`
	VestValue        float64 `json:"vestValue"`
	SharesSoldForTax float64 `json:"sharesSoldForTax"`
	TaxSaleProceeds  float64 `json:"taxSaleProceeds"`
	Fee              float64 `json:"fee"`
	CashReturned     float64 `json:"cashReturned"`
	NetTaxPaid       float64 `json:"netTaxPaid"`
	EffectiveTaxRate float64 `json:"effectiveTaxRate"`
}

type SellToCoverGainSummary struct {
	SourceID       string  `json:"sourceId"`
	SettlementDate string  `json:"settlementDate"`
	SharesSold     float64 `json:"sharesSold"`
	CostBasis      float64 `json:"costBasis"`
	SalePrice      float64 `json:"salePrice"`
	Gain           float64 `json:"gain"`
}

type PromisedVsFactual struct {
	GrantName     string  `json:"grantName"`
	GrantPrice    float64 `json:"grantPrice"`
	SharesVested  float64 `json:"sharesVested"`
	PromisedValue float64 `json:"promisedValue"`
	FactualValue  float64 `json:"factualValue"`
	Difference    float64 `json:"difference"`
}

func (s *Service) Portfolio(ctx context.Context) (*PortfolioOverview, error) {
	if s.Mode == config.SchemaDetailed {
		return s.portfolioDetailed(ctx)
	}
	return s.portfolioSimple(ctx)
}

func (s *Service) portfolioSimple(ctx context.Context) (*PortfolioOverview, error) {
	var grants []domain.Grant
	var events []domain.ReleaseEvent
	var sells []domain.Sell
	if err := s.load(ctx, &grants, &events, &sells); err != nil {
		return nil, err
	}

	o := &PortfolioOverview{}
	for _, g := range grants {
		o.TotalGranted += g.ShareAmount
	}
	for _, re := range events {
		o.TotalVested += re.TotalShares
		o.TotalSoldForTax += re.SharesSoldForTax
		o.TotalReleased += re.NetSharesReceived
		o.TotalFeesPaid += re.BrokerFee
	}
	for _, sl := range sells {
		o.TotalSold += sl.ShareAmount
		o.TotalFeesPaid += sl.Fee
	}
	o.CurrentlyHeld = o.TotalReleased - o.TotalSold

	if sell, ok := latestSell(sells); ok {
		o.LatestPrice = &sell.UnitPrice
	} else if re, ok := latestReleaseEvent(events); ok {
		o.LatestPrice = &re.ReleasePrice
	}
	if o.LatestPrice != nil {
		o.UnrealizedValue = o.CurrentlyHeld * *o.LatestPrice
	}
	return o, nil
}

func (s *Service) portfolioDetailed(ctx context.Context) (*PortfolioOverview, error) {
	var grants []domain.Grant
	var vests []domain.Vest
	var taxSales []domain.SellForTax
	var releases []domain.Release
	var sells []domain.Sell
	if err := s.load(ctx, &grants, &vests, &taxSales, &releases, &sells); err != nil {
		return nil, err
	}

	o := &PortfolioOverview{}
	for _, g := range grants {
		o.TotalGranted += g.ShareAmount
	}
	for _, v := range vests {
		o.TotalVested += v.ShareAmount
	}
	for _, ts := range taxSales {
		o.TotalSoldForTax += ts.ShareAmount
		o.TotalFeesPaid += ts.Fee
	}
	for _, rel := range releases {
		o.TotalReleased += rel.ShareAmount
	}
	for _, sl := range sells {
		o.TotalSold += sl.ShareAmount
		o.TotalFeesPaid += sl.Fee
	}
	o.CurrentlyHeld = o.TotalReleased - o.TotalSold

	if sell, ok := latestSell(sells); ok {
		o.LatestPrice = &sell.UnitPrice
	} else if rel, ok := latestRelease(releases); ok {
		o.LatestPrice = &rel.UnitPrice
	}
	if o.LatestPrice != nil {
		o.UnrealizedValue = o.CurrentlyHeld * *o.LatestPrice
	}
	return o, nil
}

// Lots returns the current tax lots with remaining shares after replaying
// all sells against them.
func (s *Service) Lots(ctx context.Context) ([]fifo.TaxLot, error) {
	lots, sells, err := s.lotsAndSells(ctx)
	if err != nil {
		return nil, err
	}
	fifo.AllocateSells(lots, sells)
	return lots, nil
}

// CapitalGains returns the per-sell FIFO lot attribution with prorated
// fees and realized gains.
func (s *Service) CapitalGains(ctx context.Context) ([]fifo.SellAllocation, error) {
	lots, sells, err := s.lotsAndSells(ctx)
	if err != nil {
		return nil, err
	}
	return fifo.AllocateSells(lots, sells), nil
}

func (s *Service) lotsAndSells(ctx context.Context) ([]fifo.TaxLot, []domain.Sell, error) {
	var sells []domain.Sell
	if err := s.DB.WithContext(ctx).Find(&sells).Error; err != nil {
		return nil, nil, err
	}

	if s.Mode == config.SchemaDetailed {
		var releases []domain.Release
		if err := s.DB.WithContext(ctx).Find(&releases).Error; err != nil {
			return nil, nil, err
		}
		return fifo.LotsFromReleases(releases), sells, nil
	}

	var events []domain.ReleaseEvent
	err := s.DB.WithContext(ctx).
		Preload("GrantAllocations", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Find(&events).Error
	if err != nil {
		return nil, nil, err
	}
	return fifo.LotsFromReleaseEvents(events), sells, nil
}

func (s *Service) TaxWithholding(ctx context.Context) (interface{}, error) {
	if s.Mode == config.SchemaDetailed {
		return s.taxWithholdingDetailed(ctx)
	}
	return s.taxWithholdingSimple(ctx)
}

func (s *Service) taxWithholdingSimple(ctx context.Context) ([]TaxWithholdingSummary, error) {
	var events []domain.ReleaseEvent
	err := s.DB.WithContext(ctx).Order("settlement_date DESC, created_at DESC").Find(&events).Error
	if err != nil {
		return nil, err
	}

	summaries := make([]TaxWithholdingSummary, 0, len(events))
	for _, re := range events {
		vestValue := re.TotalShares * re.ReleasePrice
		rate := 0.0
		if vestValue > 0 {
			rate = re.TaxWithheld / vestValue
		}
		summaries = append(summaries, TaxWithholdingSummary{
			ReleaseEventID:   re.ID,
			SettlementDate:   re.SettlementDate,
			VestDate:         re.VestDate,
			TotalShares:      re.TotalShares,
			ReleasePrice:     re.ReleasePrice,
			SharesSoldForTax: re.SharesSoldForTax,
			TaxSalePrice:     re.TaxSalePrice,
			TaxWithheld:      re.TaxWithheld,
			BrokerFee:        re.BrokerFee,
			CashReturned:     re.CashReturned,
			SellToCoverGain:  re.SellToCoverGain,
			EffectiveTaxRate: rate,
		})
	}
	return summaries, nil
}

func (s *Service) taxWithholdingDetailed(ctx context.Context) ([]VestWithholdingSummary, error) {
	var vests []domain.Vest
	err := s.DB.WithContext(ctx).
		Preload("SellForTax").Preload("TaxCashReturn").Preload("Release").
		Order("date DESC, created_at DESC").
		Find(&vests).Error
	if err != nil {
		return nil, err
	}

	summaries := make([]VestWithholdingSummary, 0, len(vests))
	for _, v := range vests {
		sum := VestWithholdingSummary{
			VestID:      v.ID,
			Date:        v.Date,
			TotalShares: v.ShareAmount,
		}
		// Price at vest, falling back to the release's settlement price
		// when the vest price was still unknown.
		if v.UnitPrice != nil {
			sum.PricePerShare = *v.UnitPrice
		} else if v.Release != nil {
			sum.PricePerShare = v.Release.UnitPrice
		}
		sum.VestValue = v.ShareAmount * sum.PricePerShare

		if v.SellForTax != nil {
			sum.SharesSoldForTax = v.SellForTax.ShareAmount
			sum.TaxSaleProceeds = v.SellForTax.ShareAmount * v.SellForTax.UnitPrice
			sum.Fee = v.SellForTax.Fee
		}
		if v.TaxCashReturn != nil {
			sum.CashReturned = v.TaxCashReturn.Amount
		}
		sum.NetTaxPaid = sum.TaxSaleProceeds - sum.CashReturned
		if sum.VestValue > 0 {
			sum.EffectiveTaxRate = sum.NetTaxPaid / sum.VestValue
		}
		summaries = append(summaries, sum)
	}
	return summaries, nil
}

func (s *Service) SellToCoverGains(ctx context.Context) ([]SellToCoverGainSummary, error) {
	if s.Mode == config.SchemaDetailed {
		return s.sellToCoverGainsDetailed(ctx)
	}

	var events []domain.ReleaseEvent
	err := s.DB.WithContext(ctx).Order("settlement_date DESC, created_at DESC").Find(&events).Error
	if err != nil {
		return nil, err
	}
	summaries := make([]SellToCoverGainSummary, 0, len(events))
	for _, re := range events {
		summaries = append(summaries, SellToCoverGainSummary{
			SourceID:       re.ID,
			SettlementDate: re.SettlementDate,
			SharesSold:     re.SharesSoldForTax,
			CostBasis:      re.ReleasePrice,
			SalePrice:      re.TaxSalePrice,
			Gain:           re.SellToCoverGain,
		})
	}
	return summaries, nil
}

func (s *Service) sellToCoverGainsDetailed(ctx context.Context) ([]SellToCoverGainSummary, error) {
	var vests []domain.Vest
	err := s.DB.WithContext(ctx).
		Preload("SellForTax").Preload("Release").
		Order("date DESC, created_at DESC").
		Find(&vests).Error
	if err != nil {
		return nil, err
	}

	summaries := []SellToCoverGainSummary{}
	for _, v := range vests {
		// Cost basis comes from the release; a vest still missing its
		// release counterpart contributes nothing.
		if v.SellForTax == nil || v.Release == nil {
			continue
		}
		ts := v.SellForTax
		gain := (ts.UnitPrice-v.Release.UnitPrice)*ts.ShareAmount - ts.Fee
		summaries = append(summaries, SellToCoverGainSummary{
			SourceID:       ts.ID,
			SettlementDate: ts.Date,
			SharesSold:     ts.ShareAmount,
			CostBasis:      v.Release.UnitPrice,
			SalePrice:      ts.UnitPrice,
			Gain:           gain,
		})
	}
	return summaries, nil
}

func (s *Service) PromisedVsFactual(ctx context.Context) ([]PromisedVsFactual, error) {
	if s.Mode == config.SchemaDetailed {
		return s.promisedVsFactualDetailed(ctx)
	}
	return s.promisedVsFactualSimple(ctx)
}

func (s *Service) promisedVsFactualSimple(ctx context.Context) ([]PromisedVsFactual, error) {
	var grants []domain.Grant
	if err := s.DB.WithContext(ctx).Find(&grants).Error; err != nil {
		return nil, err
	}
	var events []domain.ReleaseEvent
	err := s.DB.WithContext(ctx).
		Preload("GrantAllocations", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("settlement_date ASC, created_at ASC, id ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}

	grantByID := make(map[string]domain.Grant, len(grants))
	for _, g := range grants {
		grantByID[g.ID] = g
	}

	agg := newGrantAggregator()
	for _, re := range events {
		for _, alloc := range re.GrantAllocations {
			grant, ok := grantByID[alloc.GrantID]
			if !ok {
				continue
			}
			agg.add(grant, alloc.Shares, alloc.Shares*re.ReleasePrice)
		}
	}
	return agg.result(), nil
}

func (s *Service) promisedVsFactualDetailed(ctx context.Context) ([]PromisedVsFactual, error) {
	var grants []domain.Grant
	if err := s.DB.WithContext(ctx).Find(&grants).Error; err != nil {
		return nil, err
	}
	var vests []domain.Vest
	err := s.DB.WithContext(ctx).Preload("Release").Find(&vests).Error
	if err != nil {
		return nil, err
	}

	grantByID := make(map[string]domain.Grant, len(grants))
	for _, g := range grants {
		grantByID[g.ID] = g
	}

	pools := fifo.BuildPools(grants)
	vestAllocs := fifo.ConsumeVests(pools, vests)

	releaseByVest := make(map[string]*domain.Release, len(vests))
	for i := range vests {
		if vests[i].Release != nil {
			releaseByVest[vests[i].ID] = vests[i].Release
		}
	}

	agg := newGrantAggregator()
	for _, va := range vestAllocs {
		release, ok := releaseByVest[va.VestID]
		if !ok {
			continue
		}
		for _, alloc := range va.Allocations {
			grant, gok := grantByID[alloc.GrantID]
			if !gok {
				continue
			}
			agg.add(grant, alloc.Shares, alloc.Shares*release.UnitPrice)
		}
	}
	return agg.result(), nil
}

// grantAggregator groups vested shares and factual value by grant name,
// preserving first-seen order for stable output.
type grantAggregator struct {
	order []string
	rows  map[string]*PromisedVsFactual
}

func newGrantAggregator() *grantAggregator {
	return &grantAggregator{rows: map[string]*PromisedVsFactual{}}
}

func (a *grantAggregator) add(grant domain.Grant, shares, factual float64) {
	row, ok := a.rows[grant.Name]
	if !ok {
		row = &PromisedVsFactual{GrantName: grant.Name, GrantPrice: grant.UnitPrice}
		a.rows[grant.Name] = row
		a.order = append(a.order, grant.Name)
	}
	row.SharesVested += shares
	row.FactualValue += factual
}

func (a *grantAggregator) result() []PromisedVsFactual {
	out := make([]PromisedVsFactual, 0, len(a.order))
	for _, name := range a.order {
		row := a.rows[name]
		row.PromisedValue = row.GrantPrice * row.SharesVested
		row.Difference = row.FactualValue - row.PromisedValue
		out = append(out, *row)
	}
	return out
}

func (s *Service) load(ctx context.Context, dests ...interface{}) error {
	for _, dest := range dests {
		if err := s.DB.WithContext(ctx).Find(dest).Error; err != nil {
			return err
		}
	}
	return nil
}

func latestSell(sells []domain.Sell) (domain.Sell, bool) {
	if len(sells) == 0 {
		return domain.Sell{}, false
	}
	sorted := make([]domain.Sell, len(sells))
	copy(sorted, sells)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date > sorted[j].Date })
	return sorted[0], true
}

func latestReleaseEvent(events []domain.ReleaseEvent) (domain.ReleaseEvent, bool) {
	if len(events) == 0 {
		return domain.ReleaseEvent{}, false
	}
	sorted := make([]domain.ReleaseEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].SettlementDate > sorted[j].SettlementDate })
	return sorted[0], true
}

func latestRelease(releases []domain.Release) (domain.Release, bool) {
	if len(releases) == 0 {
		return domain.Release{}, false
	}
	sorted := make([]domain.Release, len(releases))
	copy(sorted, releases)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date > sorted[j].Date })
	return sorted[0], true
}
