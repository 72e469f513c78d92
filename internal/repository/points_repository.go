package repository

import (
	"errors"

	"habitloop_backend/internal/model"

	"gorm.io/gorm"
)

type PointsRepository struct {
	DB *gorm.DB
}

func NewPointsRepository(db *gorm.DB) *PointsRepository {
	return &PointsRepository{DB: db}
}

// GetBalance 没有余额记录时返回零值余额，不视为错误
func (r *PointsRepository) GetBalance(userID uint) (*model.UserPointsBalance, error) {
	var balance model.UserPointsBalance
	err := r.DB.Where("user_id = ?", userID).First(&balance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &model.UserPointsBalance{UserID: userID}, nil
		}
		return nil, err
	}
	return &balance, nil
}

func (r *PointsRepository) History(userID uint, page, limit int) ([]model.PointsTransaction, int64, error) {
	var total int64
	if err := r.DB.Model(&model.PointsTransaction{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []model.PointsTransaction
	err := r.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&entries).Error
	return entries, total, err
}
