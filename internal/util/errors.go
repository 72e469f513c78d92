package util

import "errors"

var (
	ErrUserNotFound         = errors.New("用户不存在")
	ErrEmailRegistered      = errors.New("该邮箱已被注册")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrHabitNotFound        = errors.New("habit not found")
	ErrHabitArchived        = errors.New("habit archived")
	ErrAlreadyCheckedIn     = errors.New("今日已打卡")
	ErrAchievementNotFound  = errors.New("achievement not found")
	ErrInvalidProgressInput = errors.New("invalid progress input")
	ErrNotificationNotFound = errors.New("notification not found")
)
