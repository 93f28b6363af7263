package settings

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rsutrack-backend/internal/domain"
)

type Service struct {
	DB *gorm.DB
}

// All returns every setting as a flat key/value map.
func (s *Service) All(ctx context.Context) (map[string]string, error) {
	var rows []domain.Setting
	if err := s.DB.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make(map[string]string, len(rows))
	for _, row := range rows {
		result[row.Key] = row.Value
	}
	return result, nil
}

// Upsert merges the given pairs into the store and returns the full map.
func (s *Service) Upsert(ctx context.Context, pairs map[string]string) (map[string]string, error) {
	for key, value := range pairs {
		err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).Create(&domain.Setting{Key: key, Value: value}).Error
		if err != nil {
			return nil, err
		}
	}
	return s.All(ctx)
}
