package releaseevents

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"rsutrack-backend/internal/application/fifo"
	"rsutrack-backend/internal/domain"
)

func setupService(t *testing.T) *Service {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Grant{}, &domain.ReleaseEvent{}, &domain.GrantAllocation{}))
	return &Service{DB: db}
}

func seedGrant(t *testing.T, s *Service, name, date string, shares float64) domain.Grant {
	grant := domain.Grant{Name: name, Date: date, ShareAmount: shares, UnitPrice: 10}
	require.NoError(t, s.DB.Create(&grant).Error)
	return grant
}

func validCreate(grantID string) CreateRequest {
	return CreateRequest{
		GrantAllocations:  []fifo.Allocation{{GrantID: grantID, Shares: 100}},
		VestDate:          "2024-03-01",
		SettlementDate:    "2024-03-05",
		TotalShares:       100,
		ReleasePrice:      25,
		SharesSoldForTax:  40,
		TaxSalePrice:      26,
		TaxWithheld:       1000,
		BrokerFee:         5,
		NetSharesReceived: 60,
	}
}

func TestCreate_ComputesSellToCoverGain(t *testing.T) {
	s := setupService(t)
	g := seedGrant(t, s, "G1", "2023-01-01", 500)

	event, err := s.Create(context.Background(), validCreate(g.ID))
	require.NoError(t, err)
	// (26 - 25) * 40 - 5
	assert.InDelta(t, 35.0, event.SellToCoverGain, 1e-9)
	require.Len(t, event.GrantAllocations, 1)
	assert.Equal(t, g.ID, event.GrantAllocations[0].GrantID)
}

func TestCreate_RejectsZeroSharesSoldForTax(t *testing.T) {
	s := setupService(t)
	g := seedGrant(t, s, "G1", "2023-01-01", 500)

	req := validCreate(g.ID)
	req.SharesSoldForTax = 0
	_, err := s.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, "sharesSoldForTax must be > 0", err.Error())
}

func TestCreate_RejectsShareBalanceMismatch(t *testing.T) {
	s := setupService(t)
	g := seedGrant(t, s, "G1", "2023-01-01", 500)

	req := validCreate(g.ID)
	req.NetSharesReceived = 59 // expected 60, off by more than the tolerance
	_, err := s.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, "Share balance mismatch", err.Error())
}

func TestCreate_AcceptsMismatchWithinTolerance(t *testing.T) {
	s := setupService(t)
	g := seedGrant(t, s, "G1", "2023-01-01", 500)

	req := validCreate(g.ID)
	req.NetSharesReceived = 60.005
	_, err := s.Create(context.Background(), req)
	require.NoError(t, err)
}

func TestCreate_RejectsEmptyAllocations(t *testing.T) {
	s := setupService(t)
	seedGrant(t, s, "G1", "2023-01-01", 500)

	req := validCreate("")
	req.GrantAllocations = nil
	_, err := s.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, "grantAllocations is required and must not be empty", err.Error())
}

func TestCreate_RejectsUnknownGrant(t *testing.T) {
	s := setupService(t)
	seedGrant(t, s, "G1", "2023-01-01", 500)

	req := validCreate("missing-grant-id")
	_, err := s.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, "Grant missing-grant-id not found", err.Error())
}

func TestCreate_RejectsAllocationSumMismatch(t *testing.T) {
	s := setupService(t)
	g := seedGrant(t, s, "G1", "2023-01-01", 500)

	req := validCreate(g.ID)
	req.GrantAllocations = []fifo.Allocation{{GrantID: g.ID, Shares: 90}}
	_, err := s.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, "Grant allocations sum to 90 but totalShares is 100", err.Error())
}

func TestCreate_RejectsOverAllocation(t *testing.T) {
	s := setupService(t)
	g := seedGrant(t, s, "G1", "2023-01-01", 110)

	// First event consumes 100 of 110 shares.
	_, err := s.Create(context.Background(), validCreate(g.ID))
	require.NoError(t, err)

	// The pool now holds 10; a second 100-share draw must fail and
	// report the availability after replaying the first event.
	_, err = s.Create(context.Background(), validCreate(g.ID))
	require.Error(t, err)
	assert.Equal(t, `Insufficient shares in grant "G1". Requested 100, available 10`, err.Error())
}

func TestUpdate_ExcludesOwnConsumption(t *testing.T) {
	s := setupService(t)
	g := seedGrant(t, s, "G1", "2023-01-01", 100)

	event, err := s.Create(context.Background(), validCreate(g.ID))
	require.NoError(t, err)

	// Re-validating the same 100 shares must not double-count the
	// event's own prior draw.
	total := 100.0
	net := 60.0
	updated, err := s.Update(context.Background(), event.ID, UpdateRequest{
		GrantAllocations:  []fifo.Allocation{{GrantID: g.ID, Shares: 100}},
		TotalShares:       &total,
		NetSharesReceived: &net,
	})
	require.NoError(t, err)
	assert.InDelta(t, 100.0, updated.TotalShares, 1e-9)
}

func TestUpdate_PartialLeavesOtherFieldsAlone(t *testing.T) {
	s := setupService(t)
	g := seedGrant(t, s, "G1", "2023-01-01", 500)

	event, err := s.Create(context.Background(), validCreate(g.ID))
	require.NoError(t, err)

	notes := "settled late"
	updated, err := s.Update(context.Background(), event.ID, UpdateRequest{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "settled late", updated.Notes)
	assert.InDelta(t, event.TotalShares, updated.TotalShares, 1e-9)
	assert.InDelta(t, event.SellToCoverGain, updated.SellToCoverGain, 1e-9)
	require.Len(t, updated.GrantAllocations, 1)
}

func TestUpdate_RecomputesGainWhenInputsChange(t *testing.T) {
	s := setupService(t)
	g := seedGrant(t, s, "G1", "2023-01-01", 500)

	event, err := s.Create(context.Background(), validCreate(g.ID))
	require.NoError(t, err)

	newTaxPrice := 30.0
	updated, err := s.Update(context.Background(), event.ID, UpdateRequest{TaxSalePrice: &newTaxPrice})
	require.NoError(t, err)
	// (30 - 25) * 40 - 5
	assert.InDelta(t, 195.0, updated.SellToCoverGain, 1e-9)
}

func TestDelete_RemovesAllocationRows(t *testing.T) {
	s := setupService(t)
	g := seedGrant(t, s, "G1", "2023-01-01", 500)

	event, err := s.Create(context.Background(), validCreate(g.ID))
	require.NoError(t, err)

	require.NoError(t, s.Delete(context.Background(), event.ID))

	var count int64
	require.NoError(t, s.DB.Model(&domain.GrantAllocation{}).Where("release_event_id = ?", event.ID).Count(&count).Error)
	assert.Zero(t, count)

	err = s.Delete(context.Background(), event.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSuggest_FIFOAcrossGrants(t *testing.T) {
	s := setupService(t)
	g1 := seedGrant(t, s, "Old", "2022-01-01", 100)
	g2 := seedGrant(t, s, "New", "2023-01-01", 200)

	suggestion, err := s.Suggest(context.Background(), 150)
	require.NoError(t, err)
	require.Len(t, suggestion.Allocations, 2)
	assert.Equal(t, g1.ID, suggestion.Allocations[0].GrantID)
	assert.InDelta(t, 100.0, suggestion.Allocations[0].Shares, 1e-9)
	assert.Equal(t, g2.ID, suggestion.Allocations[1].GrantID)
	assert.InDelta(t, 50.0, suggestion.Allocations[1].Shares, 1e-9)
	assert.Zero(t, suggestion.Shortfall)
}

func TestSuggest_AvailabilitySnapshotPrecedesConsumption(t *testing.T) {
	s := setupService(t)
	g := seedGrant(t, s, "G1", "2022-01-01", 100)

	suggestion, err := s.Suggest(context.Background(), 60)
	require.NoError(t, err)
	require.Len(t, suggestion.Availability, 1)
	assert.Equal(t, g.ID, suggestion.Availability[0].GrantID)
	assert.InDelta(t, 100.0, suggestion.Availability[0].RemainingShares, 1e-9)
}

func TestSuggest_ReportsShortfallWithPartialAllocation(t *testing.T) {
	s := setupService(t)
	seedGrant(t, s, "G1", "2022-01-01", 100)

	suggestion, err := s.Suggest(context.Background(), 150)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, suggestion.Shortfall, 1e-9)
	require.Len(t, suggestion.Allocations, 1)
	assert.InDelta(t, 100.0, suggestion.Allocations[0].Shares, 1e-9)
}
