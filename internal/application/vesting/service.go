// Package vesting implements the detailed-schema pipeline entities: the
// vest itself plus its owned sell-for-tax, tax-cash-return and release
// records.
package vesting

import (
	"context"

	"gorm.io/gorm"

	"rsutrack-backend/internal/domain"
)

type Service struct {
	DB *gorm.DB
}

type CreateVestRequest struct {
	Date        string   `json:"date"`
	ShareAmount float64  `json:"shareAmount"`
	UnitPrice   *float64 `json:"unitPrice"`
	IsCliff     bool     `json:"isCliff"`
	Notes       string   `json:"notes"`
}

type UpdateVestRequest struct {
	Date        *string  `json:"date"`
	ShareAmount *float64 `json:"shareAmount"`
	UnitPrice   *float64 `json:"unitPrice"`
	IsCliff     *bool    `json:"isCliff"`
	Notes       *string  `json:"notes"`
}

func (s *Service) ListVests(ctx context.Context) ([]domain.Vest, error) {
	var vests []domain.Vest
	err := s.DB.WithContext(ctx).
		Preload("SellForTax").Preload("TaxCashReturn").Preload("Release").
		Order("date ASC, created_at ASC, id ASC").
		Find(&vests).Error
	return vests, err
}

func (s *Service) GetVest(ctx context.Context, id string) (*domain.Vest, error) {
	var vest domain.Vest
	err := s.DB.WithContext(ctx).
		Preload("SellForTax").Preload("TaxCashReturn").Preload("Release").
		First(&vest, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &vest, nil
}

func (s *Service) CreateVest(ctx context.Context, req CreateVestRequest) (*domain.Vest, error) {
	vest := domain.Vest{
		Date:        req.Date,
		ShareAmount: req.ShareAmount,
		UnitPrice:   req.UnitPrice,
		IsCliff:     req.IsCliff,
		Notes:       req.Notes,
	}
	if err := s.DB.WithContext(ctx).Create(&vest).Error; err != nil {
		return nil, err
	}
	return s.GetVest(ctx, vest.ID)
}

func (s *Service) UpdateVest(ctx context.Context, id string, req UpdateVestRequest) (*domain.Vest, error) {
	var vest domain.Vest
	if err := s.DB.WithContext(ctx).First(&vest, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if req.Date != nil {
		vest.Date = *req.Date
	}
	if req.ShareAmount != nil {
		vest.ShareAmount = *req.ShareAmount
	}
	if req.UnitPrice != nil {
		vest.UnitPrice = req.UnitPrice
	}
	if req.IsCliff != nil {
		vest.IsCliff = *req.IsCliff
	}
	if req.Notes != nil {
		vest.Notes = *req.Notes
	}
	if err := s.DB.WithContext(ctx).Save(&vest).Error; err != nil {
		return nil, err
	}
	return s.GetVest(ctx, id)
}

// DeleteVest removes the vest together with its linked records,
// children first, in one transaction.
func (s *Service) DeleteVest(ctx context.Context, id string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("vest_id = ?", id).Delete(&domain.SellForTax{}).Error; err != nil {
			return err
		}
		if err := tx.Where("vest_id = ?", id).Delete(&domain.TaxCashReturn{}).Error; err != nil {
			return err
		}
		if err := tx.Where("vest_id = ?", id).Delete(&domain.Release{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.Vest{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (s *Service) vestExists(ctx context.Context, vestID string) error {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&domain.Vest{}).Where("id = ?", vestID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
