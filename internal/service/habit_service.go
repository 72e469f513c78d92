package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"habitloop_backend/internal/model"
	"habitloop_backend/internal/util"

	"gorm.io/gorm"
)

// HabitStore 习惯及打卡记录的存储访问，由 repository.HabitRepository 实现
type HabitStore interface {
	Create(habit *model.Habit) error
	FindByIDAndUser(habitID, userID uint) (*model.Habit, error)
	FindByUser(userID uint, includeArchived bool) ([]model.Habit, error)
	Update(habit *model.Habit) error
	// FindCheckin 未找到时返回 (nil, nil)
	FindCheckin(habitID uint, date time.Time) (*model.HabitCheckin, error)
	CreateCheckin(checkin *model.HabitCheckin) error
	CountCheckins(userID uint) (int64, error)
	CountHabits(userID uint) (int64, error)
}

type HabitService struct {
	HabitStore  HabitStore
	Achievement *AchievementService
	Streaks     StreakProvider
}

func NewHabitService(habitStore HabitStore, achievement *AchievementService, streaks StreakProvider) *HabitService {
	return &HabitService{
		HabitStore:  habitStore,
		Achievement: achievement,
		Streaks:     streaks,
	}
}

type HabitRequest struct {
	Title       string               `json:"title" binding:"required"`
	Description string               `json:"description"`
	Icon        string               `json:"icon"`
	Frequency   model.HabitFrequency `json:"frequency" binding:"omitempty,oneof=daily weekly"`
}

func (s *HabitService) Create(userID uint, req HabitRequest) (*model.Habit, error) {
	habit := &model.Habit{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Icon:        req.Icon,
		Frequency:   req.Frequency,
	}
	if habit.Frequency == "" {
		habit.Frequency = model.FrequencyDaily
	}

	if err := s.HabitStore.Create(habit); err != nil {
		return nil, err
	}
	return habit, nil
}

func (s *HabitService) List(userID uint, includeArchived bool) ([]model.Habit, error) {
	return s.HabitStore.FindByUser(userID, includeArchived)
}

func (s *HabitService) Get(userID, habitID uint) (*model.Habit, error) {
	habit, err := s.HabitStore.FindByIDAndUser(habitID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrHabitNotFound
		}
		return nil, err
	}
	return habit, nil
}

func (s *HabitService) Update(userID, habitID uint, req HabitRequest) (*model.Habit, error) {
	habit, err := s.Get(userID, habitID)
	if err != nil {
		return nil, err
	}

	habit.Title = req.Title
	habit.Description = req.Description
	habit.Icon = req.Icon
	if req.Frequency != "" {
		habit.Frequency = req.Frequency
	}

	if err := s.HabitStore.Update(habit); err != nil {
		return nil, err
	}
	return habit, nil
}

func (s *HabitService) Archive(userID, habitID uint) error {
	habit, err := s.Get(userID, habitID)
	if err != nil {
		return err
	}

	habit.IsArchived = true
	return s.HabitStore.Update(habit)
}

type CompletionResult struct {
	Checkin      *model.HabitCheckin `json:"checkin"`
	Achievements *BulkProgressResult `json:"achievements"`
}

// Complete 完成一次打卡并把活动增量喂给成就进度追踪。
// 每条成就更新相互独立，打卡成功不因某条成就更新失败而回退。
func (s *HabitService) Complete(ctx context.Context, userID, habitID uint, note string) (*CompletionResult, error) {
	habit, err := s.Get(userID, habitID)
	if err != nil {
		return nil, err
	}
	if habit.IsArchived {
		return nil, util.ErrHabitArchived
	}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	existing, err := s.HabitStore.FindCheckin(habitID, today)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, util.ErrAlreadyCheckedIn
	}

	checkin := &model.HabitCheckin{
		UserID:      userID,
		HabitID:     habitID,
		CheckinDate: today,
		Note:        note,
	}
	if err := s.HabitStore.CreateCheckin(checkin); err != nil {
		// 并发打同一天的卡时由唯一索引兜底
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "Duplicate entry") {
			return nil, util.ErrAlreadyCheckedIn
		}
		return nil, err
	}

	updates, err := s.progressUpdatesFor(ctx, habit, checkin)
	if err != nil {
		return nil, err
	}

	return &CompletionResult{
		Checkin:      checkin,
		Achievements: s.Achievement.AddProgressBulk(ctx, userID, updates),
	}, nil
}

// progressUpdatesFor 把一次打卡换算成各目录成就的进度增量
func (s *HabitService) progressUpdatesFor(ctx context.Context, habit *model.Habit, checkin *model.HabitCheckin) ([]BulkProgressUpdate, error) {
	var updates []BulkProgressUpdate

	totals, err := s.Achievement.Store.ListAchievementsByCriteria(ctx, model.CriteriaTotalCompletions)
	if err != nil {
		return nil, err
	}
	for _, ach := range totals {
		updates = append(updates, BulkProgressUpdate{AchievementID: ach.ID, Amount: 1})
	}

	if s.Streaks != nil {
		streaks, err := s.Achievement.Store.ListAchievementsByCriteria(ctx, model.CriteriaStreakDays)
		if err != nil {
			return nil, err
		}
		delta := s.Streaks.StreakDelta(habit, checkin)
		if delta > 0 {
			for _, ach := range streaks {
				updates = append(updates, BulkProgressUpdate{AchievementID: ach.ID, Amount: delta})
			}
		}
	}

	return updates, nil
}
