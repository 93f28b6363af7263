package fifo

import (
	"sort"

	"rsutrack-backend/internal/domain"
)

// VestAllocation is the per-vest breakdown of which grants it drew from
// (detailed schema; computed on read, never stored). Shortfall is the
// share count the grant pools could not cover for this vest.
type VestAllocation struct {
	VestID      string       `json:"vestId"`
	VestDate    string       `json:"vestDate"`
	Shares      float64      `json:"shares"`
	Allocations []Allocation `json:"allocations"`
	Shortfall   float64      `json:"shortfall,omitempty"`
}

// ConsumeVests allocates each vest against the pools FIFO in vest-date
// order, threading pool state through the whole pass so earlier vests
// drain pools ahead of later ones.
func ConsumeVests(pools []GrantPool, vests []domain.Vest) []VestAllocation {
	sorted := make([]domain.Vest, len(vests))
	copy(sorted, vests)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Date != sorted[j].Date {
			return sorted[i].Date < sorted[j].Date
		}
		if sorted[i].CreatedAt != sorted[j].CreatedAt {
			return sorted[i].CreatedAt < sorted[j].CreatedAt
		}
		return sorted[i].ID < sorted[j].ID
	})

	result := make([]VestAllocation, 0, len(sorted))
	for _, v := range sorted {
		allocs, shortfall := Consume(pools, v.ShareAmount)
		result = append(result, VestAllocation{
			VestID:      v.ID,
			VestDate:    v.Date,
			Shares:      v.ShareAmount,
			Allocations: allocs,
			Shortfall:   shortfall,
		})
	}
	return result
}
