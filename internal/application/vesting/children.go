package vesting

import (
	"context"

	"gorm.io/gorm"

	"rsutrack-backend/internal/domain"
)

type CreateSellForTaxRequest struct {
	VestID      string  `json:"vestId"`
	Date        string  `json:"date"`
	ShareAmount float64 `json:"shareAmount"`
	UnitPrice   float64 `json:"unitPrice"`
	Fee         float64 `json:"fee"`
	Notes       string  `json:"notes"`
}

type UpdateSellForTaxRequest struct {
	Date        *string  `json:"date"`
	ShareAmount *float64 `json:"shareAmount"`
	UnitPrice   *float64 `json:"unitPrice"`
	Fee         *float64 `json:"fee"`
	Notes       *string  `json:"notes"`
}

type CreateTaxCashReturnRequest struct {
	VestID string  `json:"vestId"`
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
	Notes  string  `json:"notes"`
}

type UpdateTaxCashReturnRequest struct {
	Date   *string  `json:"date"`
	Amount *float64 `json:"amount"`
	Notes  *string  `json:"notes"`
}

type CreateReleaseRequest struct {
	VestID      string  `json:"vestId"`
	Date        string  `json:"date"`
	ShareAmount float64 `json:"shareAmount"`
	UnitPrice   float64 `json:"unitPrice"`
	Notes       string  `json:"notes"`
}

type UpdateReleaseRequest struct {
	Date        *string  `json:"date"`
	ShareAmount *float64 `json:"shareAmount"`
	UnitPrice   *float64 `json:"unitPrice"`
	Notes       *string  `json:"notes"`
}

func (s *Service) ListSellForTax(ctx context.Context) ([]domain.SellForTax, error) {
	var rows []domain.SellForTax
	err := s.DB.WithContext(ctx).Order("date ASC, created_at ASC, id ASC").Find(&rows).Error
	return rows, err
}

func (s *Service) CreateSellForTax(ctx context.Context, req CreateSellForTaxRequest) (*domain.SellForTax, error) {
	if req.ShareAmount <= 0 {
		return nil, ErrNonPositiveShares
	}
	if err := s.vestExists(ctx, req.VestID); err != nil {
		return nil, err
	}
	row := domain.SellForTax{
		VestID:      req.VestID,
		Date:        req.Date,
		ShareAmount: req.ShareAmount,
		UnitPrice:   req.UnitPrice,
		Fee:         req.Fee,
		Notes:       req.Notes,
	}
	if err := s.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *Service) UpdateSellForTax(ctx context.Context, id string, req UpdateSellForTaxRequest) (*domain.SellForTax, error) {
	var row domain.SellForTax
	if err := s.DB.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if req.Date != nil {
		row.Date = *req.Date
	}
	if req.ShareAmount != nil {
		if *req.ShareAmount <= 0 {
			return nil, ErrNonPositiveShares
		}
		row.ShareAmount = *req.ShareAmount
	}
	if req.UnitPrice != nil {
		row.UnitPrice = *req.UnitPrice
	}
	if req.Fee != nil {
		row.Fee = *req.Fee
	}
	if req.Notes != nil {
		row.Notes = *req.Notes
	}
	if err := s.DB.WithContext(ctx).Save(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *Service) DeleteSellForTax(ctx context.Context, id string) error {
	return deleteByID[domain.SellForTax](ctx, s.DB, id)
}

func (s *Service) ListTaxCashReturns(ctx context.Context) ([]domain.TaxCashReturn, error) {
	var rows []domain.TaxCashReturn
	err := s.DB.WithContext(ctx).Order("date ASC, created_at ASC, id ASC").Find(&rows).Error
	return rows, err
}

func (s *Service) CreateTaxCashReturn(ctx context.Context, req CreateTaxCashReturnRequest) (*domain.TaxCashReturn, error) {
	if err := s.vestExists(ctx, req.VestID); err != nil {
		return nil, err
	}
	row := domain.TaxCashReturn{
		VestID: req.VestID,
		Date:   req.Date,
		Amount: req.Amount,
		Notes:  req.Notes,
	}
	if err := s.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *Service) UpdateTaxCashReturn(ctx context.Context, id string, req UpdateTaxCashReturnRequest) (*domain.TaxCashReturn, error) {
	var row domain.TaxCashReturn
	if err := s.DB.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if req.Date != nil {
		row.Date = *req.Date
	}
	if req.Amount != nil {
		row.Amount = *req.Amount
	}
	if req.Notes != nil {
		row.Notes = *req.Notes
	}
	if err := s.DB.WithContext(ctx).Save(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *Service) DeleteTaxCashReturn(ctx context.Context, id string) error {
	return deleteByID[domain.TaxCashReturn](ctx, s.DB, id)
}

func (s *Service) ListReleases(ctx context.Context) ([]domain.Release, error) {
	var rows []domain.Release
	err := s.DB.WithContext(ctx).Order("date ASC, created_at ASC, id ASC").Find(&rows).Error
	return rows, err
}

func (s *Service) CreateRelease(ctx context.Context, req CreateReleaseRequest) (*domain.Release, error) {
	if err := s.vestExists(ctx, req.VestID); err != nil {
		return nil, err
	}
	row := domain.Release{
		VestID:      req.VestID,
		Date:        req.Date,
		ShareAmount: req.ShareAmount,
		UnitPrice:   req.UnitPrice,
		Notes:       req.Notes,
	}
	if err := s.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *Service) UpdateRelease(ctx context.Context, id string, req UpdateReleaseRequest) (*domain.Release, error) {
	var row domain.Release
	if err := s.DB.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if req.Date != nil {
		row.Date = *req.Date
	}
	if req.ShareAmount != nil {
		row.ShareAmount = *req.ShareAmount
	}
	if req.UnitPrice != nil {
		row.UnitPrice = *req.UnitPrice
	}
	if req.Notes != nil {
		row.Notes = *req.Notes
	}
	if err := s.DB.WithContext(ctx).Save(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *Service) DeleteRelease(ctx context.Context, id string) error {
	return deleteByID[domain.Release](ctx, s.DB, id)
}

func deleteByID[T any](ctx context.Context, db *gorm.DB, id string) error {
	var model T
	res := db.WithContext(ctx).Delete(&model, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
