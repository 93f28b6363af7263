package backup

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"rsutrack-backend/internal/config"
	"rsutrack-backend/internal/domain"
)

func setupBackup(t *testing.T, mode string) *Service {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Grant{}, &domain.ReleaseEvent{}, &domain.GrantAllocation{},
		&domain.Vest{}, &domain.SellForTax{}, &domain.TaxCashReturn{}, &domain.Release{},
		&domain.Sell{}, &domain.Setting{},
	))
	return &Service{DB: db, Mode: mode}
}

func seedSimple(t *testing.T, s *Service) {
	grant := domain.Grant{Name: "G1", Date: "2022-01-01", ShareAmount: 400, UnitPrice: 10}
	require.NoError(t, s.DB.Create(&grant).Error)
	require.NoError(t, s.DB.Create(&domain.ReleaseEvent{
		VestDate: "2023-01-01", SettlementDate: "2023-01-05",
		TotalShares: 100, ReleasePrice: 20, SharesSoldForTax: 40, NetSharesReceived: 60,
		GrantAllocations: []domain.GrantAllocation{{Position: 0, GrantID: grant.ID, Shares: 100}},
	}).Error)
	require.NoError(t, s.DB.Create(&domain.Sell{Date: "2023-06-01", ShareAmount: 25, UnitPrice: 30}).Error)
	require.NoError(t, s.DB.Create(&domain.Setting{Key: "currency", Value: "USD"}).Error)
}

func TestExportImport_SimpleRoundTrip(t *testing.T) {
	src := setupBackup(t, config.SchemaSimple)
	seedSimple(t, src)
	ctx := context.Background()

	payload, err := src.Export(ctx)
	require.NoError(t, err)
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	dst := setupBackup(t, config.SchemaSimple)
	require.NoError(t, dst.Import(ctx, raw))

	var grants []domain.Grant
	require.NoError(t, dst.DB.Find(&grants).Error)
	require.Len(t, grants, 1)
	assert.Equal(t, "G1", grants[0].Name)

	var events []domain.ReleaseEvent
	require.NoError(t, dst.DB.Preload("GrantAllocations").Find(&events).Error)
	require.Len(t, events, 1)
	require.Len(t, events[0].GrantAllocations, 1)
	assert.Equal(t, grants[0].ID, events[0].GrantAllocations[0].GrantID)

	var settings []domain.Setting
	require.NoError(t, dst.DB.Find(&settings).Error)
	require.Len(t, settings, 1)
}

func TestExportImport_PreservesAllocationOrder(t *testing.T) {
	src := setupBackup(t, config.SchemaSimple)
	ctx := context.Background()

	g1 := domain.Grant{Name: "G1", Date: "2021-01-01", ShareAmount: 200, UnitPrice: 10}
	g2 := domain.Grant{Name: "G2", Date: "2022-01-01", ShareAmount: 200, UnitPrice: 12}
	require.NoError(t, src.DB.Create(&g1).Error)
	require.NoError(t, src.DB.Create(&g2).Error)

	// Caller-supplied order deliberately disagrees with grant-date order.
	require.NoError(t, src.DB.Create(&domain.ReleaseEvent{
		VestDate: "2023-01-01", SettlementDate: "2023-01-05",
		TotalShares: 150, ReleasePrice: 20, SharesSoldForTax: 50, NetSharesReceived: 100,
		GrantAllocations: []domain.GrantAllocation{
			{Position: 0, GrantID: g2.ID, Shares: 50},
			{Position: 1, GrantID: g1.ID, Shares: 100},
		},
	}).Error)

	payload, err := src.Export(ctx)
	require.NoError(t, err)
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	dst := setupBackup(t, config.SchemaSimple)
	require.NoError(t, dst.Import(ctx, raw))

	var events []domain.ReleaseEvent
	require.NoError(t, dst.DB.
		Preload("GrantAllocations", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Find(&events).Error)
	require.Len(t, events, 1)
	require.Len(t, events[0].GrantAllocations, 2)
	assert.Equal(t, g2.ID, events[0].GrantAllocations[0].GrantID)
	assert.Equal(t, 0, events[0].GrantAllocations[0].Position)
	assert.Equal(t, g1.ID, events[0].GrantAllocations[1].GrantID)
	assert.Equal(t, 1, events[0].GrantAllocations[1].Position)
}

func TestImport_ReplacesExistingData(t *testing.T) {
	s := setupBackup(t, config.SchemaSimple)
	seedSimple(t, s)
	ctx := context.Background()

	payload, err := s.Export(ctx)
	require.NoError(t, err)
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	// New rows created after the export must be gone after import.
	require.NoError(t, s.DB.Create(&domain.Grant{Name: "G2", Date: "2024-01-01", ShareAmount: 10, UnitPrice: 1}).Error)
	require.NoError(t, s.Import(ctx, raw))

	var count int64
	require.NoError(t, s.DB.Model(&domain.Grant{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestImport_RejectsVersionMismatch(t *testing.T) {
	s := setupBackup(t, config.SchemaSimple)

	raw := []byte(`{"version":3,"grants":[],"releaseEvents":[],"sells":[],"settings":[]}`)
	err := s.Import(context.Background(), raw)
	require.Error(t, err)
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.Error(), "expected version 2")
}

func TestImport_RejectsMissingKey(t *testing.T) {
	s := setupBackup(t, config.SchemaSimple)

	raw := []byte(`{"version":2,"grants":[],"sells":[],"settings":[]}`)
	err := s.Import(context.Background(), raw)
	require.Error(t, err)
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.Error(), `"releaseEvents" must be an array`)
}

func TestImport_RejectsNonArrayKey(t *testing.T) {
	s := setupBackup(t, config.SchemaSimple)

	raw := []byte(`{"version":2,"grants":{},"releaseEvents":[],"sells":[],"settings":[]}`)
	err := s.Import(context.Background(), raw)
	require.Error(t, err)
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.Error(), `"grants" must be an array`)
}

func TestImport_RejectsNonObjectBody(t *testing.T) {
	s := setupBackup(t, config.SchemaSimple)

	err := s.Import(context.Background(), []byte(`[1,2,3]`))
	require.Error(t, err)
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
}

func TestImport_MalformedRowRollsBackEverything(t *testing.T) {
	s := setupBackup(t, config.SchemaSimple)
	seedSimple(t, s)
	ctx := context.Background()

	// Two grants sharing a name violate the unique index mid-transaction;
	// the pre-existing data must survive untouched.
	raw := []byte(`{
		"version": 2,
		"grants": [
			{"id":"a","name":"dup","date":"2022-01-01","shareAmount":1,"unitPrice":1},
			{"id":"b","name":"dup","date":"2022-01-02","shareAmount":1,"unitPrice":1}
		],
		"releaseEvents": [],
		"sells": [],
		"settings": []
	}`)
	err := s.Import(ctx, raw)
	require.Error(t, err)

	var grants []domain.Grant
	require.NoError(t, s.DB.Find(&grants).Error)
	require.Len(t, grants, 1)
	assert.Equal(t, "G1", grants[0].Name)
}

func TestExportImport_DetailedRoundTrip(t *testing.T) {
	src := setupBackup(t, config.SchemaDetailed)
	ctx := context.Background()

	require.NoError(t, src.DB.Create(&domain.Grant{Name: "G1", Date: "2022-01-01", ShareAmount: 400, UnitPrice: 10}).Error)
	vest := domain.Vest{Date: "2023-03-01", ShareAmount: 100}
	require.NoError(t, src.DB.Create(&vest).Error)
	require.NoError(t, src.DB.Create(&domain.SellForTax{VestID: vest.ID, Date: "2023-03-05", ShareAmount: 40, UnitPrice: 21}).Error)
	require.NoError(t, src.DB.Create(&domain.TaxCashReturn{VestID: vest.ID, Date: "2023-04-01", Amount: 100}).Error)
	require.NoError(t, src.DB.Create(&domain.Release{VestID: vest.ID, Date: "2023-03-06", ShareAmount: 60, UnitPrice: 20}).Error)

	payload, err := src.Export(ctx)
	require.NoError(t, err)
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	dst := setupBackup(t, config.SchemaDetailed)
	require.NoError(t, dst.Import(ctx, raw))

	var vests []domain.Vest
	require.NoError(t, dst.DB.Preload("SellForTax").Preload("TaxCashReturn").Preload("Release").Find(&vests).Error)
	require.Len(t, vests, 1)
	assert.NotNil(t, vests[0].SellForTax)
	assert.NotNil(t, vests[0].TaxCashReturn)
	assert.NotNil(t, vests[0].Release)
}

func TestImport_DetailedRequiresDetailedVersion(t *testing.T) {
	s := setupBackup(t, config.SchemaDetailed)

	raw := []byte(`{"version":2,"grants":[],"vests":[],"sellForTax":[],"taxCashReturns":[],"releases":[],"sells":[],"settings":[]}`)
	err := s.Import(context.Background(), raw)
	require.Error(t, err)
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.Error(), "expected version 3")
}
