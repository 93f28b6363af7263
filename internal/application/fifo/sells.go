package fifo

import (
	"sort"

	"github.com/rs/zerolog/log"

	"rsutrack-backend/internal/domain"
)

// LotAllocation is the slice of one sell satisfied by one lot, with the
// sell's fee prorated by consumed/total shares.
type LotAllocation struct {
	SourceID       string  `json:"sourceId"`
	SettlementDate string  `json:"settlementDate"`
	Shares         float64 `json:"shares"`
	CostBasis      float64 `json:"costBasis"`
	Gain           float64 `json:"gain"`
	ProratedFee    float64 `json:"proratedFee"`
}

// SellAllocation is the per-sell breakdown of which lots it drew from.
type SellAllocation struct {
	SellID         string          `json:"sellId"`
	SellDate       string          `json:"sellDate"`
	TotalShares    float64         `json:"totalShares"`
	UnitPrice      float64         `json:"unitPrice"`
	Fee            float64         `json:"fee"`
	LotAllocations []LotAllocation `json:"lotAllocations"`
	TotalGain      float64         `json:"totalGain"`
}

// AllocateSells consumes the lots FIFO against each sell in sell-date
// order. Lots are mutated cumulatively across the whole pass: what sell
// N consumes is gone for sell N+1. A sell exceeding the remaining lots
// is left partially un-attributed rather than rejected; the reporting
// path has no authority over what the broker actually executed.
func AllocateSells(lots []TaxLot, sells []domain.Sell) []SellAllocation {
	sorted := make([]domain.Sell, len(sells))
	copy(sorted, sells)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Date != sorted[j].Date {
			return sorted[i].Date < sorted[j].Date
		}
		if sorted[i].CreatedAt != sorted[j].CreatedAt {
			return sorted[i].CreatedAt < sorted[j].CreatedAt
		}
		return sorted[i].ID < sorted[j].ID
	})

	allocations := make([]SellAllocation, 0, len(sorted))
	for _, sell := range sorted {
		remaining := sell.ShareAmount
		lotAllocs := []LotAllocation{}

		for i := range lots {
			if remaining <= 0 {
				break
			}
			if lots[i].RemainingShares <= 0 {
				continue
			}

			consumed := min(remaining, lots[i].RemainingShares)
			lots[i].RemainingShares -= consumed
			remaining -= consumed

			proratedFee := sell.Fee * (consumed / sell.ShareAmount)
			gain := sell.UnitPrice*consumed - lots[i].CostBasis*consumed - proratedFee

			lotAllocs = append(lotAllocs, LotAllocation{
				SourceID:       lots[i].SourceID,
				SettlementDate: lots[i].SettlementDate,
				Shares:         consumed,
				CostBasis:      lots[i].CostBasis,
				Gain:           gain,
				ProratedFee:    proratedFee,
			})
		}

		if remaining > 0 {
			log.Warn().
				Str("sell_id", sell.ID).
				Float64("unattributed_shares", remaining).
				Msg("sell exceeds remaining tax lots")
		}

		totalGain := 0.0
		for _, a := range lotAllocs {
			totalGain += a.Gain
		}

		allocations = append(allocations, SellAllocation{
			SellID:         sell.ID,
			SellDate:       sell.Date,
			TotalShares:    sell.ShareAmount,
			UnitPrice:      sell.UnitPrice,
			Fee:            sell.Fee,
			LotAllocations: lotAllocs,
			TotalGain:      totalGain,
		})
	}
	return allocations
}
