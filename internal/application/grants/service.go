package grants

import (
	"context"

	"gorm.io/gorm"

	"rsutrack-backend/internal/domain"
)

type Service struct {
	DB *gorm.DB
}

type CreateRequest struct {
	Name        string  `json:"name"`
	Date        string  `json:"date"`
	ShareAmount float64 `json:"shareAmount"`
	UnitPrice   float64 `json:"unitPrice"`
	Notes       string  `json:"notes"`
}

type UpdateRequest struct {
	Name        *string  `json:"name"`
	Date        *string  `json:"date"`
	ShareAmount *float64 `json:"shareAmount"`
	UnitPrice   *float64 `json:"unitPrice"`
	Notes       *string  `json:"notes"`
}

func (s *Service) List(ctx context.Context) ([]domain.Grant, error) {
	var grants []domain.Grant
	err := s.DB.WithContext(ctx).Order("date ASC, created_at ASC, id ASC").Find(&grants).Error
	return grants, err
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Grant, error) {
	var grant domain.Grant
	if err := s.DB.WithContext(ctx).First(&grant, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &grant, nil
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*domain.Grant, error) {
	grant := domain.Grant{
		Name:        req.Name,
		Date:        req.Date,
		ShareAmount: req.ShareAmount,
		UnitPrice:   req.UnitPrice,
		Notes:       req.Notes,
	}
	if err := s.DB.WithContext(ctx).Create(&grant).Error; err != nil {
		return nil, err
	}
	return &grant, nil
}

func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*domain.Grant, error) {
	grant, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		grant.Name = *req.Name
	}
	if req.Date != nil {
		grant.Date = *req.Date
	}
	if req.ShareAmount != nil {
		grant.ShareAmount = *req.ShareAmount
	}
	if req.UnitPrice != nil {
		grant.UnitPrice = *req.UnitPrice
	}
	if req.Notes != nil {
		grant.Notes = *req.Notes
	}
	if err := s.DB.WithContext(ctx).Save(grant).Error; err != nil {
		return nil, err
	}
	return grant, nil
}

// Delete refuses to remove a grant that release-event allocations still
// reference; orphaned allocations would leave a silent reporting gap.
func (s *Service) Delete(ctx context.Context, id string) error {
	var referenced int64
	if err := s.DB.WithContext(ctx).Model(&domain.GrantAllocation{}).
		Where("grant_id = ?", id).Count(&referenced).Error; err != nil {
		return err
	}
	if referenced > 0 {
		return ErrReferenced
	}

	res := s.DB.WithContext(ctx).Delete(&domain.Grant{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
