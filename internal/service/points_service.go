package service

import (
	"habitloop_backend/internal/model"
	"habitloop_backend/internal/repository"
)

// PointsService 积分只读面。积分的写入只发生在成就颁发事务内。
type PointsService struct {
	PointsRepo *repository.PointsRepository
}

func NewPointsService(pointsRepo *repository.PointsRepository) *PointsService {
	return &PointsService{PointsRepo: pointsRepo}
}

func (s *PointsService) Balance(userID uint) (*model.UserPointsBalance, error) {
	return s.PointsRepo.GetBalance(userID)
}

func (s *PointsService) History(userID uint, page, limit int) ([]model.PointsTransaction, int64, error) {
	return s.PointsRepo.History(userID, page, limit)
}
