// Package fifo is the lot-allocation and capital-gains engine shared by
// both schema variants. Every function operates on working copies built
// fresh per request; nothing here is persisted or shared across calls.
package fifo

import (
	"sort"

	"rsutrack-backend/internal/domain"
)

// GrantPool is a grant with a mutable remaining-share counter, consumed
// FIFO by grant date during a single computation pass.
type GrantPool struct {
	GrantID         string  `json:"grantId"`
	GrantName       string  `json:"grantName"`
	GrantDate       string  `json:"grantDate"`
	TotalShares     float64 `json:"totalShares"`
	RemainingShares float64 `json:"remainingShares"`
}

// Allocation is a {grantId, shares} pair drawn from one pool.
type Allocation struct {
	GrantID string  `json:"grantId"`
	Shares  float64 `json:"shares"`
}

// BuildPools turns grants into pools sorted ascending by grant date.
// Ties break by creation time then id so repeated runs over the same
// records allocate identically regardless of store ordering.
func BuildPools(grants []domain.Grant) []GrantPool {
	sorted := make([]domain.Grant, len(grants))
	copy(sorted, grants)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Date != sorted[j].Date {
			return sorted[i].Date < sorted[j].Date
		}
		if sorted[i].CreatedAt != sorted[j].CreatedAt {
			return sorted[i].CreatedAt < sorted[j].CreatedAt
		}
		return sorted[i].ID < sorted[j].ID
	})

	pools := make([]GrantPool, 0, len(sorted))
	for _, g := range sorted {
		pools = append(pools, GrantPool{
			GrantID:         g.ID,
			GrantName:       g.Name,
			GrantDate:       g.Date,
			TotalShares:     g.ShareAmount,
			RemainingShares: g.ShareAmount,
		})
	}
	return pools
}

// Apply replays historical allocations against the pools, decrementing
// remaining shares. Allocations referencing an unknown grant are skipped
// (the grant may have been deleted since).
func Apply(pools []GrantPool, allocations []Allocation) {
	for _, alloc := range allocations {
		for i := range pools {
			if pools[i].GrantID == alloc.GrantID {
				pools[i].RemainingShares -= alloc.Shares
				break
			}
		}
	}
}

// Consume draws required shares from the pools in order, draining each
// pool before moving to the next. It returns the allocations recorded
// (zero-share allocations are never recorded) and the shortfall left
// un-allocated, which is 0 when the pools could satisfy the request.
// The partial allocation is returned even on shortfall so the caller can
// inspect what the request would look like given more shares.
func Consume(pools []GrantPool, required float64) ([]Allocation, float64) {
	allocations := []Allocation{}
	remaining := required

	for i := range pools {
		if remaining <= 0 {
			break
		}
		if pools[i].RemainingShares <= 0 {
			continue
		}

		consumed := min(remaining, pools[i].RemainingShares)
		pools[i].RemainingShares -= consumed
		remaining -= consumed

		allocations = append(allocations, Allocation{
			GrantID: pools[i].GrantID,
			Shares:  consumed,
		})
	}

	if remaining < 0 {
		remaining = 0
	}
	return allocations, remaining
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
