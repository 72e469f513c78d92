package repository

import (
	"habitloop_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type HabitRepository struct {
	DB *gorm.DB
}

func NewHabitRepository(db *gorm.DB) *HabitRepository {
	return &HabitRepository{DB: db}
}

func (r *HabitRepository) Create(habit *model.Habit) error {
	return r.DB.Create(habit).Error
}

func (r *HabitRepository) FindByIDAndUser(habitID, userID uint) (*model.Habit, error) {
	var habit model.Habit
	err := r.DB.Where("id = ? AND user_id = ?", habitID, userID).First(&habit).Error
	if err != nil {
		return nil, err
	}
	return &habit, nil
}

func (r *HabitRepository) FindByUser(userID uint, includeArchived bool) ([]model.Habit, error) {
	query := r.DB.Where("user_id = ?", userID)
	if !includeArchived {
		query = query.Where("is_archived = ?", false)
	}

	var habits []model.Habit
	err := query.Order("created_at desc").Find(&habits).Error
	return habits, err
}

func (r *HabitRepository) Update(habit *model.Habit) error {
	return r.DB.Save(habit).Error
}

// FindCheckin 查某习惯在指定日期是否已打卡
func (r *HabitRepository) FindCheckin(habitID uint, date time.Time) (*model.HabitCheckin, error) {
	startOfDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	endOfDay := startOfDay.Add(24 * time.Hour).Add(-1 * time.Nanosecond)

	var checkin model.HabitCheckin
	err := r.DB.Where("habit_id = ? AND checkin_date BETWEEN ? AND ?", habitID, startOfDay, endOfDay).
		First(&checkin).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &checkin, nil
}

func (r *HabitRepository) CreateCheckin(checkin *model.HabitCheckin) error {
	return r.DB.Create(checkin).Error
}

func (r *HabitRepository) CountCheckins(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.HabitCheckin{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *HabitRepository) CountHabits(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Habit{}).
		Where("user_id = ? AND is_archived = ?", userID, false).
		Count(&count).Error
	return count, err
}
