// Package backup implements whole-dataset export and transactional
// full-replace import. The allocation engine never sees this package; it
// only ever reads the post-import state on its next invocation.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"rsutrack-backend/internal/config"
	"rsutrack-backend/internal/domain"
)

// Format versions: 2 is the simple schema, 3 the detailed one. Import
// requires an exact match.
const (
	VersionSimple   = 2
	VersionDetailed = 3
)

type Service struct {
	DB   *gorm.DB
	Mode string
}

// FormatError marks a malformed or version-mismatched payload, rejected
// before any mutation occurs.
type FormatError struct {
	msg string
}

func (e *FormatError) Error() string {
	return e.msg
}

type simpleExport struct {
	Version       int                   `json:"version"`
	ExportedAt    string                `json:"exportedAt"`
	Grants        []domain.Grant        `json:"grants"`
	ReleaseEvents []domain.ReleaseEvent `json:"releaseEvents"`
	Sells         []domain.Sell         `json:"sells"`
	Settings      []domain.Setting      `json:"settings"`
}

type detailedExport struct {
	Version        int                    `json:"version"`
	ExportedAt     string                 `json:"exportedAt"`
	Grants         []domain.Grant         `json:"grants"`
	Vests          []domain.Vest          `json:"vests"`
	SellForTax     []domain.SellForTax    `json:"sellForTax"`
	TaxCashReturns []domain.TaxCashReturn `json:"taxCashReturns"`
	Releases       []domain.Release       `json:"releases"`
	Sells          []domain.Sell          `json:"sells"`
	Settings       []domain.Setting       `json:"settings"`
}

// Export serializes every entity table verbatim plus the format version.
func (s *Service) Export(ctx context.Context) (interface{}, error) {
	now := time.Now().UTC().Format(time.RFC3339)

	if s.Mode == config.SchemaDetailed {
		out := detailedExport{Version: VersionDetailed, ExportedAt: now}
		db := s.DB.WithContext(ctx)
		for _, dest := range []interface{}{&out.Grants, &out.Vests, &out.SellForTax, &out.TaxCashReturns, &out.Releases, &out.Sells, &out.Settings} {
			if err := db.Find(dest).Error; err != nil {
				return nil, err
			}
		}
		return out, nil
	}

	out := simpleExport{Version: VersionSimple, ExportedAt: now}
	db := s.DB.WithContext(ctx)
	if err := db.Find(&out.Grants).Error; err != nil {
		return nil, err
	}
	err := db.Preload("GrantAllocations", func(d *gorm.DB) *gorm.DB { return d.Order("position ASC") }).
		Find(&out.ReleaseEvents).Error
	if err != nil {
		return nil, err
	}
	if err := db.Find(&out.Sells).Error; err != nil {
		return nil, err
	}
	if err := db.Find(&out.Settings).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Import validates the payload shape up front, then replaces the whole
// dataset in one transaction: delete child-to-parent, insert
// parent-to-child. Any failure rolls the entire replace back.
func (s *Service) Import(ctx context.Context, raw []byte) error {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return &FormatError{msg: "Invalid export format: body must be a JSON object"}
	}

	expectedVersion := VersionSimple
	requiredKeys := []string{"grants", "releaseEvents", "sells", "settings"}
	if s.Mode == config.SchemaDetailed {
		expectedVersion = VersionDetailed
		requiredKeys = []string{"grants", "vests", "sellForTax", "taxCashReturns", "releases", "sells", "settings"}
	}

	var version int
	if v, ok := envelope["version"]; !ok || json.Unmarshal(v, &version) != nil || version != expectedVersion {
		return &FormatError{msg: fmt.Sprintf("Invalid export format: missing or unsupported version (expected version %d)", expectedVersion)}
	}
	for _, key := range requiredKeys {
		if !isJSONArray(envelope[key]) {
			return &FormatError{msg: fmt.Sprintf("Invalid export format: %q must be an array", key)}
		}
	}

	if s.Mode == config.SchemaDetailed {
		var payload detailedExport
		if err := json.Unmarshal(raw, &payload); err != nil {
			return &FormatError{msg: "Invalid export format: " + err.Error()}
		}
		return s.replaceDetailed(ctx, payload)
	}

	var payload simpleExport
	if err := json.Unmarshal(raw, &payload); err != nil {
		return &FormatError{msg: "Invalid export format: " + err.Error()}
	}
	return s.replaceSimple(ctx, payload)
}

func (s *Service) replaceSimple(ctx context.Context, payload simpleExport) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{
			&domain.Sell{}, &domain.GrantAllocation{}, &domain.ReleaseEvent{}, &domain.Grant{}, &domain.Setting{},
		} {
			if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
				return err
			}
		}
		if len(payload.Grants) > 0 {
			if err := tx.Create(&payload.Grants).Error; err != nil {
				return err
			}
		}
		if len(payload.ReleaseEvents) > 0 {
			// Position is not part of the wire format; the array order of
			// each event's allocations is authoritative.
			for i := range payload.ReleaseEvents {
				for j := range payload.ReleaseEvents[i].GrantAllocations {
					payload.ReleaseEvents[i].GrantAllocations[j].Position = j
				}
			}
			if err := tx.Create(&payload.ReleaseEvents).Error; err != nil {
				return err
			}
		}
		if len(payload.Sells) > 0 {
			if err := tx.Create(&payload.Sells).Error; err != nil {
				return err
			}
		}
		if len(payload.Settings) > 0 {
			if err := tx.Create(&payload.Settings).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Service) replaceDetailed(ctx context.Context, payload detailedExport) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{
			&domain.Sell{}, &domain.SellForTax{}, &domain.TaxCashReturn{}, &domain.Release{},
			&domain.Vest{}, &domain.Grant{}, &domain.Setting{},
		} {
			if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
				return err
			}
		}
		if len(payload.Grants) > 0 {
			if err := tx.Create(&payload.Grants).Error; err != nil {
				return err
			}
		}
		if len(payload.Vests) > 0 {
			if err := tx.Omit("SellForTax", "TaxCashReturn", "Release").Create(&payload.Vests).Error; err != nil {
				return err
			}
		}
		if len(payload.SellForTax) > 0 {
			if err := tx.Create(&payload.SellForTax).Error; err != nil {
				return err
			}
		}
		if len(payload.TaxCashReturns) > 0 {
			if err := tx.Create(&payload.TaxCashReturns).Error; err != nil {
				return err
			}
		}
		if len(payload.Releases) > 0 {
			if err := tx.Create(&payload.Releases).Error; err != nil {
				return err
			}
		}
		if len(payload.Sells) > 0 {
			if err := tx.Create(&payload.Sells).Error; err != nil {
				return err
			}
		}
		if len(payload.Settings) > 0 {
			if err := tx.Create(&payload.Settings).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func isJSONArray(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '[':
			return true
		default:
			return false
		}
	}
	return false
}
