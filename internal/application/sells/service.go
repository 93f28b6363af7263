package sells

import (
	"context"

	"gorm.io/gorm"

	"rsutrack-backend/internal/domain"
)

type Service struct {
	DB *gorm.DB
}

type CreateRequest struct {
	Date        string  `json:"date"`
	ShareAmount float64 `json:"shareAmount"`
	UnitPrice   float64 `json:"unitPrice"`
	Fee         float64 `json:"fee"`
	Notes       string  `json:"notes"`
}

type UpdateRequest struct {
	Date        *string  `json:"date"`
	ShareAmount *float64 `json:"shareAmount"`
	UnitPrice   *float64 `json:"unitPrice"`
	Fee         *float64 `json:"fee"`
	Notes       *string  `json:"notes"`
}

func (s *Service) List(ctx context.Context) ([]domain.Sell, error) {
	var sells []domain.Sell
	err := s.DB.WithContext(ctx).Order("date ASC, created_at ASC, id ASC").Find(&sells).Error
	return sells, err
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*domain.Sell, error) {
	sell := domain.Sell{
		Date:        req.Date,
		ShareAmount: req.ShareAmount,
		UnitPrice:   req.UnitPrice,
		Fee:         req.Fee,
		Notes:       req.Notes,
	}
	if err := s.DB.WithContext(ctx).Create(&sell).Error; err != nil {
		return nil, err
	}
	return &sell, nil
}

func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*domain.Sell, error) {
	var sell domain.Sell
	if err := s.DB.WithContext(ctx).First(&sell, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if req.Date != nil {
		sell.Date = *req.Date
	}
	if req.ShareAmount != nil {
		sell.ShareAmount = *req.ShareAmount
	}
	if req.UnitPrice != nil {
		sell.UnitPrice = *req.UnitPrice
	}
	if req.Fee != nil {
		sell.Fee = *req.Fee
	}
	if req.Notes != nil {
		sell.Notes = *req.Notes
	}
	if err := s.DB.WithContext(ctx).Save(&sell).Error; err != nil {
		return nil, err
	}
	return &sell, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	res := s.DB.WithContext(ctx).Delete(&domain.Sell{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
