package fifo

import (
	"sort"

	"rsutrack-backend/internal/domain"
)

// TaxLot is a batch of shares with a single cost basis and acquisition
// date, consumed FIFO by settlement date on sale. SourceID is the release
// event (simple schema) or release record (detailed schema) that formed
// the lot; VestID and SellToCoverGain are populated only by their
// respective variant.
type TaxLot struct {
	SourceID         string       `json:"sourceId"`
	VestID           string       `json:"vestId,omitempty"`
	GrantAllocations []Allocation `json:"grantAllocations,omitempty"`
	SettlementDate   string       `json:"settlementDate"`
	VestDate         string       `json:"vestDate,omitempty"`
	TotalShares      float64      `json:"totalShares"`
	RemainingShares  float64      `json:"remainingShares"`
	CostBasis        float64      `json:"costBasis"`
	SellToCoverGain  float64      `json:"sellToCoverGain,omitempty"`
}

// LotsFromReleaseEvents forms one lot per release event, ordered
// ascending by settlement date (ties by creation time then id). Cost
// basis is the recorded release price, never re-derived from the grant
// price; remaining shares start at the net shares received.
func LotsFromReleaseEvents(events []domain.ReleaseEvent) []TaxLot {
	sorted := make([]domain.ReleaseEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].SettlementDate != sorted[j].SettlementDate {
			return sorted[i].SettlementDate < sorted[j].SettlementDate
		}
		if sorted[i].CreatedAt != sorted[j].CreatedAt {
			return sorted[i].CreatedAt < sorted[j].CreatedAt
		}
		return sorted[i].ID < sorted[j].ID
	})

	lots := make([]TaxLot, 0, len(sorted))
	for _, re := range sorted {
		allocs := make([]Allocation, 0, len(re.GrantAllocations))
		for _, a := range re.GrantAllocations {
			allocs = append(allocs, Allocation{GrantID: a.GrantID, Shares: a.Shares})
		}
		lots = append(lots, TaxLot{
			SourceID:         re.ID,
			GrantAllocations: allocs,
			SettlementDate:   re.SettlementDate,
			VestDate:         re.VestDate,
			TotalShares:      re.NetSharesReceived,
			RemainingShares:  re.NetSharesReceived,
			CostBasis:        re.ReleasePrice,
			SellToCoverGain:  re.SellToCoverGain,
		})
	}
	return lots
}

// LotsFromReleases forms one lot per release record (detailed schema),
// ordered ascending by release date with the same tie-break rule.
func LotsFromReleases(releases []domain.Release) []TaxLot {
	sorted := make([]domain.Release, len(releases))
	copy(sorted, releases)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Date != sorted[j].Date {
			return sorted[i].Date < sorted[j].Date
		}
		if sorted[i].CreatedAt != sorted[j].CreatedAt {
			return sorted[i].CreatedAt < sorted[j].CreatedAt
		}
		return sorted[i].ID < sorted[j].ID
	})

	lots := make([]TaxLot, 0, len(sorted))
	for _, rel := range sorted {
		lots = append(lots, TaxLot{
			SourceID:        rel.ID,
			VestID:          rel.VestID,
			SettlementDate:  rel.Date,
			TotalShares:     rel.ShareAmount,
			RemainingShares: rel.ShareAmount,
			CostBasis:       rel.UnitPrice,
		})
	}
	return lots
}
