package model

import (
	"time"
)

type HabitFrequency string

const (
	FrequencyDaily  HabitFrequency = "daily"
	FrequencyWeekly HabitFrequency = "weekly"
)

// Habit 用户自建的打卡习惯
// swagger:model Habit
type Habit struct {
	BaseModel
	UserID      uint           `gorm:"index;type:bigint unsigned;not null" json:"userId"`
	Title       string         `gorm:"size:100;not null" json:"title"`
	Description string         `gorm:"size:255" json:"description"`
	Icon        string         `gorm:"size:255" json:"icon"`
	Frequency   HabitFrequency `gorm:"type:enum('daily','weekly');default:'daily'" json:"frequency"`
	IsArchived  bool           `gorm:"default:false" json:"isArchived"`
}

func (Habit) TableName() string {
	return "habits"
}

// HabitCheckin 记录某个习惯在某一天的完成情况，(habit_id, checkin_date) 唯一
// swagger:model HabitCheckin
type HabitCheckin struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint      `gorm:"index;type:bigint unsigned;not null" json:"userId"`
	HabitID     uint      `gorm:"type:bigint unsigned;not null;index:idx_habit_checkin_date,unique" json:"habitId"`
	CheckinDate time.Time `gorm:"not null;index:idx_habit_checkin_date,unique" json:"checkinDate"`
	Note        string    `gorm:"size:255" json:"note"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (HabitCheckin) TableName() string {
	return "habit_checkins"
}
