package database

import (
	"fmt"
	"log"

	"habitloop_backend/internal/config"
	"habitloop_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
		// 唯一键冲突需要被翻译成 gorm.ErrDuplicatedKey（颁发幂等依赖它）
		TranslateError: true,
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	err = db.AutoMigrate(
		&model.User{},
		&model.Habit{},
		&model.HabitCheckin{},
		&model.Achievement{},
		&model.AchievementProgress{},
		&model.UserAchievement{},
		&model.PointsTransaction{},
		&model.UserPointsBalance{},
		&model.Notification{},
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	// 默认成就目录
	var achCount int64
	db.Model(&model.Achievement{}).Count(&achCount)
	if achCount == 0 {
		defaultAchievements := []model.Achievement{
			{Name: "初来乍到", Description: "完成第一次打卡", Icon: "seedling", CriteriaType: model.CriteriaTotalCompletions, CriteriaValue: 1, PointsReward: 10},
			{Name: "渐入佳境", Description: "累计打卡 30 次", Icon: "sprout", CriteriaType: model.CriteriaTotalCompletions, CriteriaValue: 30, PointsReward: 50},
			{Name: "百日筑基", Description: "累计打卡 100 次", Icon: "tree", CriteriaType: model.CriteriaTotalCompletions, CriteriaValue: 100, PointsReward: 200},
			{Name: "坚持一周", Description: "连续打卡 7 天", Icon: "flame", CriteriaType: model.CriteriaStreakDays, CriteriaValue: 7, PointsReward: 30},
			{Name: "月度达人", Description: "连续打卡 30 天", Icon: "fire", CriteriaType: model.CriteriaStreakDays, CriteriaValue: 30, PointsReward: 150},
			{Name: "积分收藏家", Description: "累计获得 500 积分", Icon: "gem", CriteriaType: model.CriteriaPointsEarned, CriteriaValue: 500, PointsReward: 0, Hidden: true},
		}
		for _, a := range defaultAchievements {
			db.Create(&a)
		}
	}

	return db, nil
}
