package service

import (
	"habitloop_backend/internal/model"
)

// StreakProvider 计算一次打卡带来的连续天数增量。
// 连续天数的具体算法由独立的 streak 服务提供，这里只定义消费侧接口；
// 未注入时，打卡不更新 streak_days 类成就的进度。
type StreakProvider interface {
	StreakDelta(habit *model.Habit, checkin *model.HabitCheckin) int64
}
