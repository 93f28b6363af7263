package fifo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rsutrack-backend/internal/domain"
)

func twoGrants() []domain.Grant {
	return []domain.Grant{
		{ID: "g2", Name: "Refresh 2021", Date: "2021-01-01", ShareAmount: 100, CreatedAt: "2021-01-01T00:00:00Z"},
		{ID: "g1", Name: "Initial 2020", Date: "2020-01-01", ShareAmount: 100, CreatedAt: "2020-01-01T00:00:00Z"},
	}
}

func TestBuildPools_SortsByDateRegardlessOfInput(t *testing.T) {
	pools := BuildPools(twoGrants())
	require.Len(t, pools, 2)
	assert.Equal(t, "g1", pools[0].GrantID)
	assert.Equal(t, "g2", pools[1].GrantID)
	assert.Equal(t, 100.0, pools[0].RemainingShares)
	assert.Equal(t, 100.0, pools[1].RemainingShares)
}

func TestBuildPools_TieBreakByCreatedAtThenID(t *testing.T) {
	pools := BuildPools([]domain.Grant{
		{ID: "b", Date: "2020-01-01", ShareAmount: 10, CreatedAt: "2020-02-01T00:00:00Z"},
		{ID: "a", Date: "2020-01-01", ShareAmount: 10, CreatedAt: "2020-01-01T00:00:00Z"},
	})
	require.Len(t, pools, 2)
	assert.Equal(t, "a", pools[0].GrantID)
	assert.Equal(t, "b", pools[1].GrantID)
}

func TestConsume_FIFOOrder(t *testing.T) {
	pools := BuildPools(twoGrants())
	allocs, shortfall := Consume(pools, 150)

	assert.Zero(t, shortfall)
	require.Len(t, allocs, 2)
	assert.Equal(t, Allocation{GrantID: "g1", Shares: 100}, allocs[0])
	assert.Equal(t, Allocation{GrantID: "g2", Shares: 50}, allocs[1])
	assert.Equal(t, 0.0, pools[0].RemainingShares)
	assert.Equal(t, 50.0, pools[1].RemainingShares)
}

func TestConsume_AllocationsSumExactlyToRequested(t *testing.T) {
	pools := BuildPools(twoGrants())
	allocs, shortfall := Consume(pools, 137.25)

	assert.Zero(t, shortfall)
	sum := 0.0
	for _, a := range allocs {
		sum += a.Shares
	}
	assert.Equal(t, 137.25, sum)
}

func TestConsume_ShortfallWithPartialAllocation(t *testing.T) {
	pools := BuildPools(twoGrants())
	allocs, shortfall := Consume(pools, 250)

	assert.Equal(t, 50.0, shortfall)
	require.Len(t, allocs, 2)
	assert.Equal(t, Allocation{GrantID: "g1", Shares: 100}, allocs[0])
	assert.Equal(t, Allocation{GrantID: "g2", Shares: 100}, allocs[1])
}

func TestConsume_SkipsDrainedPools(t *testing.T) {
	pools := BuildPools(twoGrants())
	pools[0].RemainingShares = 0

	allocs, shortfall := Consume(pools, 40)
	assert.Zero(t, shortfall)
	require.Len(t, allocs, 1)
	assert.Equal(t, "g2", allocs[0].GrantID)
}

func TestPoolConservation(t *testing.T) {
	pools := BuildPools(twoGrants())
	totalGranted := 200.0

	consumed := 0.0
	for _, req := range []float64{30, 45.5, 60, 80} {
		allocs, _ := Consume(pools, req)
		for _, a := range allocs {
			consumed += a.Shares
		}
		remaining := 0.0
		for _, p := range pools {
			remaining += p.RemainingShares
		}
		assert.InDelta(t, totalGranted, remaining+consumed, 1e-9)
	}
}

func TestApply_ReplaysHistoryAndSkipsUnknownGrants(t *testing.T) {
	pools := BuildPools(twoGrants())
	Apply(pools, []Allocation{
		{GrantID: "g1", Shares: 90},
		{GrantID: "deleted", Shares: 500},
	})
	assert.Equal(t, 10.0, pools[0].RemainingShares)
	assert.Equal(t, 100.0, pools[1].RemainingShares)
}

func TestAllocateSells_SingleLotGain(t *testing.T) {
	lots := []TaxLot{{SourceID: "re1", SettlementDate: "2021-06-01", TotalShares: 50, RemainingShares: 50, CostBasis: 10}}
	sells := []domain.Sell{{ID: "s1", Date: "2022-01-01", ShareAmount: 50, UnitPrice: 15, Fee: 5}}

	result := AllocateSells(lots, sells)
	require.Len(t, result, 1)
	require.Len(t, result[0].LotAllocations, 1)

	la := result[0].LotAllocations[0]
	assert.Equal(t, 50.0, la.Shares)
	assert.Equal(t, 5.0, la.ProratedFee)
	assert.Equal(t, 245.0, la.Gain)
	assert.Equal(t, 245.0, result[0].TotalGain)
	assert.Equal(t, 0.0, lots[0].RemainingShares)
}

func TestAllocateSells_MultiLotSplitAndProration(t *testing.T) {
	lots := []TaxLot{
		{SourceID: "a", SettlementDate: "2021-06-01", TotalShares: 30, RemainingShares: 30, CostBasis: 8},
		{SourceID: "b", SettlementDate: "2022-06-01", TotalShares: 40, RemainingShares: 40, CostBasis: 12},
	}
	sells := []domain.Sell{{ID: "s1", Date: "2023-01-01", ShareAmount: 50, UnitPrice: 20, Fee: 10}}

	result := AllocateSells(lots, sells)
	require.Len(t, result, 1)
	require.Len(t, result[0].LotAllocations, 2)

	first, second := result[0].LotAllocations[0], result[0].LotAllocations[1]
	assert.Equal(t, "a", first.SourceID)
	assert.Equal(t, 30.0, first.Shares)
	assert.InDelta(t, 6.0, first.ProratedFee, 1e-9)
	assert.InDelta(t, 354.0, first.Gain, 1e-9)

	assert.Equal(t, "b", second.SourceID)
	assert.Equal(t, 20.0, second.Shares)
	assert.InDelta(t, 4.0, second.ProratedFee, 1e-9)
	assert.InDelta(t, 156.0, second.Gain, 1e-9)

	assert.InDelta(t, 510.0, result[0].TotalGain, 1e-9)
	assert.InDelta(t, 10.0, first.ProratedFee+second.ProratedFee, 1e-9)
}

func TestAllocateSells_FeeProrationRoundTrip(t *testing.T) {
	lots := []TaxLot{
		{SourceID: "a", SettlementDate: "2021-01-01", TotalShares: 7, RemainingShares: 7, CostBasis: 3},
		{SourceID: "b", SettlementDate: "2021-02-01", TotalShares: 11, RemainingShares: 11, CostBasis: 4},
		{SourceID: "c", SettlementDate: "2021-03-01", TotalShares: 13, RemainingShares: 13, CostBasis: 5},
	}
	sells := []domain.Sell{{ID: "s1", Date: "2022-01-01", ShareAmount: 31, UnitPrice: 9, Fee: 7.77}}

	result := AllocateSells(lots, sells)
	require.Len(t, result, 1)

	feeSum := 0.0
	for _, la := range result[0].LotAllocations {
		feeSum += la.ProratedFee
	}
	assert.InDelta(t, 7.77, feeSum, 1e-9)
}

func TestAllocateSells_CumulativeAcrossSells(t *testing.T) {
	lots := []TaxLot{
		{SourceID: "a", SettlementDate: "2021-01-01", TotalShares: 40, RemainingShares: 40, CostBasis: 10},
		{SourceID: "b", SettlementDate: "2021-02-01", TotalShares: 40, RemainingShares: 40, CostBasis: 20},
	}
	sells := []domain.Sell{
		{ID: "later", Date: "2022-06-01", ShareAmount: 30, UnitPrice: 25, CreatedAt: "2022-06-01T00:00:00Z"},
		{ID: "earlier", Date: "2022-01-01", ShareAmount: 30, UnitPrice: 25, CreatedAt: "2022-01-01T00:00:00Z"},
	}

	result := AllocateSells(lots, sells)
	require.Len(t, result, 2)

	// Sells processed in date order: the earlier one takes lot a first.
	assert.Equal(t, "earlier", result[0].SellID)
	require.Len(t, result[0].LotAllocations, 1)
	assert.Equal(t, "a", result[0].LotAllocations[0].SourceID)

	// The later sell gets what lot a has left, then spills into lot b.
	assert.Equal(t, "later", result[1].SellID)
	require.Len(t, result[1].LotAllocations, 2)
	assert.Equal(t, 10.0, result[1].LotAllocations[0].Shares)
	assert.Equal(t, 20.0, result[1].LotAllocations[1].Shares)
}

func TestAllocateSells_OversoldLeavesRemainderUnattributed(t *testing.T) {
	lots := []TaxLot{{SourceID: "a", SettlementDate: "2021-01-01", TotalShares: 10, RemainingShares: 10, CostBasis: 5}}
	sells := []domain.Sell{{ID: "s1", Date: "2022-01-01", ShareAmount: 25, UnitPrice: 8, Fee: 5}}

	result := AllocateSells(lots, sells)
	require.Len(t, result, 1)
	require.Len(t, result[0].LotAllocations, 1)
	assert.Equal(t, 10.0, result[0].LotAllocations[0].Shares)
	// Fee is prorated against the full sell, so only 10/25 of it lands.
	assert.InDelta(t, 2.0, result[0].LotAllocations[0].ProratedFee, 1e-9)
}

func TestRecomputationIsIdempotent(t *testing.T) {
	grants := twoGrants()
	events := []domain.ReleaseEvent{{
		ID: "re1", SettlementDate: "2021-06-01", VestDate: "2021-05-15",
		TotalShares: 60, ReleasePrice: 12, NetSharesReceived: 40,
		GrantAllocations: []domain.GrantAllocation{{GrantID: "g1", Shares: 60}},
		CreatedAt:        "2021-06-01T00:00:00Z",
	}}
	sells := []domain.Sell{{ID: "s1", Date: "2022-01-01", ShareAmount: 25, UnitPrice: 18, Fee: 3}}

	run := func() ([]GrantPool, []SellAllocation) {
		pools := BuildPools(grants)
		for _, re := range events {
			allocs := make([]Allocation, 0, len(re.GrantAllocations))
			for _, a := range re.GrantAllocations {
				allocs = append(allocs, Allocation{GrantID: a.GrantID, Shares: a.Shares})
			}
			Apply(pools, allocs)
		}
		lots := LotsFromReleaseEvents(events)
		return pools, AllocateSells(lots, sells)
	}

	pools1, sa1 := run()
	pools2, sa2 := run()
	assert.Equal(t, pools1, pools2)
	assert.Equal(t, sa1, sa2)
	require.Len(t, sa1, 1)
	assert.False(t, math.IsNaN(sa1[0].TotalGain))
}

func TestConsumeVests_ThreadsPoolStateAcrossVests(t *testing.T) {
	pools := BuildPools(twoGrants())
	vests := []domain.Vest{
		{ID: "v2", Date: "2021-06-01", ShareAmount: 80, CreatedAt: "2021-06-01T00:00:00Z"},
		{ID: "v1", Date: "2020-06-01", ShareAmount: 60, CreatedAt: "2020-06-01T00:00:00Z"},
	}

	result := ConsumeVests(pools, vests)
	require.Len(t, result, 2)

	assert.Equal(t, "v1", result[0].VestID)
	require.Len(t, result[0].Allocations, 1)
	assert.Equal(t, Allocation{GrantID: "g1", Shares: 60}, result[0].Allocations[0])

	assert.Equal(t, "v2", result[1].VestID)
	require.Len(t, result[1].Allocations, 2)
	assert.Equal(t, Allocation{GrantID: "g1", Shares: 40}, result[1].Allocations[0])
	assert.Equal(t, Allocation{GrantID: "g2", Shares: 40}, result[1].Allocations[1])
	assert.Zero(t, result[1].Shortfall)
}
