package service

import (
	"context"

	"habitloop_backend/internal/model"
	"habitloop_backend/internal/repository"
)

type UserService struct {
	UserRepo   *repository.UserRepository
	HabitStore HabitStore
	PointsRepo *repository.PointsRepository
	Store      repository.AchievementStore
}

func NewUserService(
	userRepo *repository.UserRepository,
	habitStore HabitStore,
	pointsRepo *repository.PointsRepository,
	store repository.AchievementStore,
) *UserService {
	return &UserService{
		UserRepo:   userRepo,
		HabitStore: habitStore,
		PointsRepo: pointsRepo,
		Store:      store,
	}
}

type ProfileUpdateRequest struct {
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
	Bio      string `json:"bio"`
	Timezone string `json:"timezone"`
}

func (s *UserService) UpdateProfile(userID uint, req ProfileUpdateRequest) (*model.User, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Avatar != "" {
		user.Avatar = req.Avatar
	}
	if req.Bio != "" {
		user.Bio = req.Bio
	}
	if req.Timezone != "" {
		user.Timezone = req.Timezone
	}

	if err := s.UserRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

type UserSummary struct {
	HabitCount   int64 `json:"habitCount"`
	CheckinCount int64 `json:"checkinCount"`
	AwardCount   int   `json:"awardCount"`
	TotalPoints  int   `json:"totalPoints"`
}

// Summary 个人主页的汇总数字
func (s *UserService) Summary(ctx context.Context, userID uint) (*UserSummary, error) {
	habitCount, err := s.HabitStore.CountHabits(userID)
	if err != nil {
		return nil, err
	}

	checkinCount, err := s.HabitStore.CountCheckins(userID)
	if err != nil {
		return nil, err
	}

	awards, err := s.Store.ListAwards(ctx, userID)
	if err != nil {
		return nil, err
	}

	balance, err := s.PointsRepo.GetBalance(userID)
	if err != nil {
		return nil, err
	}

	return &UserSummary{
		HabitCount:   habitCount,
		CheckinCount: checkinCount,
		AwardCount:   len(awards),
		TotalPoints:  balance.TotalPoints,
	}, nil
}
