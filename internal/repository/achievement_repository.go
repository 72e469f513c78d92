package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"habitloop_backend/internal/model"
	"habitloop_backend/internal/util"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AchievementStore 成就子系统的存储访问接口。
// 由 AchievementRepository 提供 GORM 实现，测试时可注入内存实现。
type AchievementStore interface {
	// FindAchievement 未找到时返回 util.ErrAchievementNotFound
	FindAchievement(ctx context.Context, id uint) (*model.Achievement, error)
	ListAchievements(ctx context.Context) ([]model.Achievement, error)
	ListAchievementsByCriteria(ctx context.Context, ct model.CriteriaType) ([]model.Achievement, error)

	// FindAward / FindProgress 未找到时返回 (nil, nil)
	FindAward(ctx context.Context, userID, achievementID uint) (*model.UserAchievement, error)
	ListAwards(ctx context.Context, userID uint) ([]model.UserAchievement, error)
	FindProgress(ctx context.Context, userID, achievementID uint) (*model.AchievementProgress, error)
	ListProgress(ctx context.Context, userID uint) ([]model.AchievementProgress, error)

	// UpsertProgress 在单个事务内完成读-改-写：并发增量按行锁串行化，
	// 百分比始终基于增量之后的 current_value 计算
	UpsertProgress(ctx context.Context, userID uint, ach *model.Achievement, amount int64) (*model.AchievementProgress, error)

	// AwardInTx 执行颁发事务；fn 内任何一步失败则全部回滚。
	// 颁发记录的唯一键冲突以 gorm.ErrDuplicatedKey 上抛。
	AwardInTx(ctx context.Context, fn func(tx AwardWriter) error) error
}

// AwardWriter 颁发事务内允许的写操作
type AwardWriter interface {
	CreateAward(award *model.UserAchievement) error
	DeleteProgress(userID, achievementID uint) error
	// CreditPoints 追加一条积分流水并原子自增用户积分总额
	CreditPoints(entry *model.PointsTransaction) error
	CreateNotification(n *model.Notification) error
}

const (
	achievementCacheKeyPrefix = "achievement:catalog:"
	achievementCacheTTL       = 10 * time.Minute
)

type AchievementRepository struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewAchievementRepository(db *gorm.DB, rdb *redis.Client) *AchievementRepository {
	return &AchievementRepository{DB: db, Redis: rdb}
}

func (r *AchievementRepository) FindAchievement(ctx context.Context, id uint) (*model.Achievement, error) {
	cacheKey := fmt.Sprintf("%s%d", achievementCacheKeyPrefix, id)

	// 成就定义运行期只读，适合短 TTL 缓存
	if r.Redis != nil {
		if val, err := r.Redis.Get(ctx, cacheKey).Result(); err == nil {
			var ach model.Achievement
			if json.Unmarshal([]byte(val), &ach) == nil {
				return &ach, nil
			}
		}
	}

	var ach model.Achievement
	if err := r.DB.WithContext(ctx).First(&ach, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAchievementNotFound
		}
		return nil, err
	}

	if r.Redis != nil {
		if data, err := json.Marshal(&ach); err == nil {
			r.Redis.Set(ctx, cacheKey, data, achievementCacheTTL)
		}
	}

	return &ach, nil
}

func (r *AchievementRepository) ListAchievements(ctx context.Context) ([]model.Achievement, error) {
	var achievements []model.Achievement
	err := r.DB.WithContext(ctx).Order("id").Find(&achievements).Error
	return achievements, err
}

func (r *AchievementRepository) ListAchievementsByCriteria(ctx context.Context, ct model.CriteriaType) ([]model.Achievement, error) {
	var achievements []model.Achievement
	err := r.DB.WithContext(ctx).Where("criteria_type = ?", ct).Order("id").Find(&achievements).Error
	return achievements, err
}

func (r *AchievementRepository) FindAward(ctx context.Context, userID, achievementID uint) (*model.UserAchievement, error) {
	var award model.UserAchievement
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND achievement_id = ?", userID, achievementID).
		First(&award).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &award, nil
}

func (r *AchievementRepository) ListAwards(ctx context.Context, userID uint) ([]model.UserAchievement, error) {
	var awards []model.UserAchievement
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("awarded_at DESC").
		Find(&awards).Error
	return awards, err
}

func (r *AchievementRepository) FindProgress(ctx context.Context, userID, achievementID uint) (*model.AchievementProgress, error) {
	var progress model.AchievementProgress
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND achievement_id = ?", userID, achievementID).
		First(&progress).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &progress, nil
}

func (r *AchievementRepository) ListProgress(ctx context.Context, userID uint) ([]model.AchievementProgress, error) {
	var progress []model.AchievementProgress
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Find(&progress).Error
	return progress, err
}

func (r *AchievementRepository) UpsertProgress(ctx context.Context, userID uint, ach *model.Achievement, amount int64) (*model.AchievementProgress, error) {
	var progress model.AchievementProgress
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND achievement_id = ?", userID, ach.ID).
			First(&progress).Error
		switch {
		case err == nil:
			progress.CurrentValue += amount
		case errors.Is(err, gorm.ErrRecordNotFound):
			progress = model.AchievementProgress{
				UserID:        userID,
				AchievementID: ach.ID,
				CurrentValue:  amount,
				TargetValue:   ach.CriteriaValue,
			}
		default:
			return err
		}

		progress.Recalc()
		return tx.Save(&progress).Error
	})
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

func (r *AchievementRepository) AwardInTx(ctx context.Context, fn func(tx AwardWriter) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&awardWriter{tx: tx})
	})
}

type awardWriter struct {
	tx *gorm.DB
}

func (w *awardWriter) CreateAward(award *model.UserAchievement) error {
	return w.tx.Create(award).Error
}

func (w *awardWriter) DeleteProgress(userID, achievementID uint) error {
	return w.tx.
		Where("user_id = ? AND achievement_id = ?", userID, achievementID).
		Delete(&model.AchievementProgress{}).Error
}

func (w *awardWriter) CreditPoints(entry *model.PointsTransaction) error {
	if err := w.tx.Create(entry).Error; err != nil {
		return err
	}

	balance := model.UserPointsBalance{UserID: entry.UserID}
	if err := w.tx.Where("user_id = ?", entry.UserID).FirstOrCreate(&balance).Error; err != nil {
		return err
	}

	return w.tx.Model(&model.UserPointsBalance{}).
		Where("user_id = ?", entry.UserID).
		Update("total_points", gorm.Expr("total_points + ?", entry.Points)).
		Error
}

func (w *awardWriter) CreateNotification(n *model.Notification) error {
	return w.tx.Create(n).Error
}
